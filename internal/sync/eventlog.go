package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const (
	TypeItemUploaded       = "ItemUploaded"
	TypeSessionStarted     = "SessionStarted"
	TypeResponsesSubmitted = "ResponsesSubmitted"
	TypeSessionClosed      = "SessionClosed"
)

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// NewEvent encodes data as the event payload.
func NewEvent(typ, key string, data any) (Event, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Event{}, errors.Wrapf(err, "encode %s event", typ)
	}
	return Event{SiteID: "local", Type: typ, Key: key, DataJSON: string(b)}, nil
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return errors.Wrap(err, "append event")
}

// List returns events for key in append order. An empty key lists all.
func (r *EventRepo) List(ctx context.Context, key string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE ($1 = '' OR key = $1) ORDER BY seq LIMIT $2`, key, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
