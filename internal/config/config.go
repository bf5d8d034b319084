package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Account is a local login. PassHash is a bcrypt hash.
type Account struct {
	Username string `yaml:"username"`
	PassHash string `yaml:"pass_hash"`
	Role     string `yaml:"role"`
}

type Config struct {
	Mode      Mode   `yaml:"mode"`
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`

	LogLevel  string `yaml:"log_level"`  // debug|info|warn|error
	LogFormat string `yaml:"log_format"` // json|console

	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxItemBytes       int64         `yaml:"max_item_bytes"`
	RejectInvalidItems bool          `yaml:"reject_invalid_items"`

	EnableLocalAuth bool   `yaml:"enable_local_auth"`
	EnableGuestAuth bool   `yaml:"enable_guest_auth"`
	AuthSecret      string `yaml:"auth_secret"`

	TokenTTL time.Duration `yaml:"token_ttl"`

	AdminUser     string    `yaml:"admin_user"`
	AdminPassHash string    `yaml:"admin_pass_hash"` // bcrypt
	Accounts      []Account `yaml:"accounts"`

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`
}

// Defaults is the configuration used when nothing else is given.
func Defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		DBDriver:           "sqlite",
		BlobBasePath:       "./data",
		LogLevel:           "info",
		LogFormat:          "json",
		RequestTimeout:     30 * time.Second,
		MaxItemBytes:       4 << 20,
		EnableLocalAuth:    true,
		AuthSecret:         "supersecret-dev-key",
		TokenTTL:           8 * time.Hour,
		AdminUser:          "admin",
		AdminPassHash:      "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji",
		CORSOriginsOnline:  []string{"https://qti.mindengage.ai"},
		CORSOriginsOffline: []string{"http://localhost:3000"},
	}
}

// FromEnv applies environment overrides to the defaults.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads the YAML file named by QTI_CONFIG_FILE, if any, over the
// defaults and then applies environment overrides.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("QTI_CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parse config file %s", path)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Validate checks the settings that have no usable fallback.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return errors.Errorf("unsupported mode %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.Mode == ModeOnline && c.AuthSecret == Defaults().AuthSecret {
		return errors.New("AUTH_HMAC_SECRET must be set in online mode")
	}
	for _, a := range c.Accounts {
		if a.Username == "" || a.PassHash == "" || a.Role == "" {
			return errors.Errorf("account %q needs username, pass_hash and role", a.Username)
		}
	}
	return nil
}

// CORSOrigins returns the allowed origins for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func applyEnv(c *Config) {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.PublicURL = envOr("PUBLIC_URL", c.PublicURL)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.BlobBasePath = envOr("BLOB_BASE_PATH", c.BlobBasePath)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
	c.RequestTimeout = envDuration("REQUEST_TIMEOUT", c.RequestTimeout)
	c.RejectInvalidItems = envBool("REJECT_INVALID_ITEMS", c.RejectInvalidItems)
	c.EnableLocalAuth = envBool("ENABLE_LOCAL_AUTH", c.EnableLocalAuth)
	c.EnableGuestAuth = envBool("ENABLE_GUEST_AUTH", c.EnableGuestAuth)
	c.AuthSecret = envOr("AUTH_HMAC_SECRET", c.AuthSecret)
	c.TokenTTL = envDuration("TOKEN_TTL", c.TokenTTL)
	c.AdminUser = envOr("ADMIN_USER", c.AdminUser)
	c.AdminPassHash = envOr("ADMIN_PASS_HASH", c.AdminPassHash)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return d
	}
	return def
}

func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
