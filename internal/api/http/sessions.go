package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/delivery"
	"github.com/mind-engage/mindengage-qti/internal/rbac"
)

// submissionSchema accepts the same identifier syntax as value.Identifier.
const submissionSchema = `{
  "type": "object",
  "required": ["responses"],
  "additionalProperties": false,
  "properties": {
    "responses": {
      "type": "object",
      "propertyNames": {"pattern": "^[_\\p{L}][_\\p{L}\\p{Nd}\\p{Mn}\\p{Mc}.\\x{B7}-]*$"},
      "additionalProperties": {
        "type": "array",
        "items": {"type": "string"}
      }
    }
  }
}`

var submissionValidator = mustSchema(submissionSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// checkSubmission validates body against the submission schema and returns
// the violations.
func checkSubmission(body []byte) ([]string, error) {
	res, err := submissionValidator.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	var problems []string
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// POST /items/{itemID}/sessions
func StartSessionHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		candidate := rbac.SubjectFromContext(r.Context())
		if candidate == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		ses, err := svc.StartSession(r.Context(), chi.URLParam(r, "itemID"), candidate)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, ses)
	}
}

// loadOwned fetches the session and checks the caller may act on it.
func loadOwned(w http.ResponseWriter, r *http.Request, svc *delivery.Service, log *zap.Logger, perm string) (delivery.Session, bool) {
	ses, err := svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, log, err)
		return delivery.Session{}, false
	}
	if !rbac.OwnerOr(r.Context(), ses.Candidate, perm) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return delivery.Session{}, false
	}
	return ses, true
}

// POST /sessions/{sessionID}/responses  {"responses": {"RESPONSE": ["A"]}}
func SubmitResponsesHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ses, ok := loadOwned(w, r, svc, log, rbac.PermSessionRespondAny)
		if !ok {
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			http.Error(w, "body too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}
		problems, err := checkSubmission(body)
		if err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(problems) > 0 {
			http.Error(w, "invalid submission: "+strings.Join(problems, "; "), http.StatusBadRequest)
			return
		}
		var req struct {
			Responses map[string][]string `json:"responses"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.Submit(r.Context(), ses.ID, req.Responses)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /sessions/{sessionID}/close
func CloseSessionHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ses, ok := loadOwned(w, r, svc, log, rbac.PermSessionRespondAny)
		if !ok {
			return
		}
		ses, err := svc.Close(r.Context(), ses.ID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, ses)
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ses, ok := loadOwned(w, r, svc, log, rbac.PermSessionViewAll)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, ses)
	}
}

// GET /sessions?item_id=&candidate=
// Callers without session:view-all only see their own sessions.
func ListSessionsHandler(svc *delivery.Service, log *zap.Logger) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		candidate := r.URL.Query().Get("candidate")
		if !checker.Has(rbac.RoleFromContext(r.Context()), rbac.PermSessionViewAll) {
			candidate = rbac.SubjectFromContext(r.Context())
		}
		list, err := svc.ListSessions(r.Context(), r.URL.Query().Get("item_id"), candidate)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
