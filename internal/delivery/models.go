// Package delivery stores items and candidate sessions and runs submissions
// through the session controller.
package delivery

import (
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-qti/internal/qti/validation"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Diagnostic is the stored form of a validation finding.
type Diagnostic struct {
	Severity string `json:"severity"`
	Class    string `json:"class,omitempty"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
}

func diagnosticOf(d validation.Diagnostic) Diagnostic {
	out := Diagnostic{Severity: d.Severity.String(), Message: d.Message}
	if d.Source != nil {
		out.Class = d.Source.ClassTag()
		out.Path = d.Source.Path()
	}
	return out
}

type Item struct {
	ID          string       `json:"id"`
	Identifier  string       `json:"identifier"`
	Title       string       `json:"title"`
	BlobKey     string       `json:"-"`
	Valid       bool         `json:"valid"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Session struct {
	ID        string     `json:"id"`
	ItemID    string     `json:"item_id"`
	Candidate string     `json:"candidate"`
	Status    Status     `json:"status"`
	Responses value.Map  `json:"responses"`
	Outcomes  value.Map  `json:"outcomes"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// SubmitResult reports one submission.
type SubmitResult struct {
	Session  Session           `json:"session"`
	Bound    []string          `json:"bound"`
	Invalid  []string          `json:"invalid,omitempty"`
	Ignored  []string          `json:"ignored,omitempty"`
	Failures map[string]string `json:"failures,omitempty"`
	Template string            `json:"template,omitempty"`
	Score    float64           `json:"score"`
	MaxScore float64           `json:"max_score"`
}

type ListOpts struct {
	Limit  int
	Offset int
}

// InvalidItemError is returned for XML that cannot be loaded at all, and
// when a session is started on an item that failed validation.
type InvalidItemError struct {
	Problems []string
}

func (e *InvalidItemError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid item"
	}
	return fmt.Sprintf("invalid item: %s", strings.Join(e.Problems, "; "))
}
