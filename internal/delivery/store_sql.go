package delivery

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutItem(ctx context.Context, it Item) error {
	dj, err := json.Marshal(it.Diagnostics)
	if err != nil {
		return errors.Wrap(err, "encode diagnostics")
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO items (id,identifier,title,blob_key,valid,diagnostics_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET identifier=EXCLUDED.identifier, title=EXCLUDED.title,
		blob_key=EXCLUDED.blob_key, valid=EXCLUDED.valid, diagnostics_json=EXCLUDED.diagnostics_json`,
		it.ID, it.Identifier, it.Title, it.BlobKey, it.Valid, string(dj), it.CreatedAt.Unix())
	return errors.Wrap(err, "put item")
}

const itemColumns = `id,identifier,title,blob_key,valid,diagnostics_json,created_at`

type scanner interface{ Scan(dest ...any) error }

func scanItem(row scanner) (Item, error) {
	var it Item
	var dj string
	var created int64
	if err := row.Scan(&it.ID, &it.Identifier, &it.Title, &it.BlobKey, &it.Valid, &dj, &created); err != nil {
		return Item{}, err
	}
	it.CreatedAt = time.Unix(created, 0).UTC()
	if err := json.Unmarshal([]byte(dj), &it.Diagnostics); err != nil {
		return Item{}, errors.Wrapf(err, "decode diagnostics of item %s", it.ID)
	}
	return it, nil
}

func (s *SQLStore) GetItem(ctx context.Context, id string) (Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, errors.Wrap(err, "get item")
}

func (s *SQLStore) ListItems(ctx context.Context, opts ListOpts) ([]Item, error) {
	if opts.Limit <= 0 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items
		ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	defer rows.Close()
	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan item")
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateSession(ctx context.Context, ses Session) error {
	rj, oj, err := encodeState(ses)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (id,item_id,candidate,status,responses_json,outcomes_json,started_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ses.ID, ses.ItemID, ses.Candidate, string(ses.Status), rj, oj, ses.StartedAt.Unix(), ses.UpdatedAt.Unix())
	return errors.Wrap(err, "create session")
}

func (s *SQLStore) UpdateSession(ctx context.Context, ses Session) error {
	rj, oj, err := encodeState(ses)
	if err != nil {
		return err
	}
	var closed sql.NullInt64
	if ses.ClosedAt != nil {
		closed = sql.NullInt64{Int64: ses.ClosedAt.Unix(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET status=$1, responses_json=$2, outcomes_json=$3,
		updated_at=$4, closed_at=$5 WHERE id=$6`,
		string(ses.Status), rj, oj, ses.UpdatedAt.Unix(), closed, ses.ID)
	if err != nil {
		return errors.Wrap(err, "update session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const sessionColumns = `id,item_id,candidate,status,responses_json,outcomes_json,started_at,updated_at,closed_at`

func scanSession(row scanner) (Session, error) {
	var ses Session
	var status, rj, oj string
	var started, updated int64
	var closed sql.NullInt64
	if err := row.Scan(&ses.ID, &ses.ItemID, &ses.Candidate, &status, &rj, &oj, &started, &updated, &closed); err != nil {
		return Session{}, err
	}
	ses.Status = Status(status)
	ses.StartedAt = time.Unix(started, 0).UTC()
	ses.UpdatedAt = time.Unix(updated, 0).UTC()
	if closed.Valid {
		t := time.Unix(closed.Int64, 0).UTC()
		ses.ClosedAt = &t
	}
	ses.Responses, ses.Outcomes = value.Map{}, value.Map{}
	if err := json.Unmarshal([]byte(rj), &ses.Responses); err != nil {
		return Session{}, errors.Wrapf(err, "decode responses of session %s", ses.ID)
	}
	if err := json.Unmarshal([]byte(oj), &ses.Outcomes); err != nil {
		return Session{}, errors.Wrapf(err, "decode outcomes of session %s", ses.ID)
	}
	return ses, nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (Session, error) {
	ses, err := scanSession(s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	return ses, errors.Wrap(err, "get session")
}

// ListSessions filters by item and candidate; empty filters match all.
func (s *SQLStore) ListSessions(ctx context.Context, itemID, candidate string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions
		WHERE ($1 = '' OR item_id = $1) AND ($2 = '' OR candidate = $2)
		ORDER BY started_at DESC, id`, itemID, candidate)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		ses, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		out = append(out, ses)
	}
	return out, rows.Err()
}

func encodeState(ses Session) (string, string, error) {
	rj, err := json.Marshal(ses.Responses)
	if err != nil {
		return "", "", errors.Wrapf(err, "encode responses of session %s", ses.ID)
	}
	oj, err := json.Marshal(ses.Outcomes)
	if err != nil {
		return "", "", errors.Wrapf(err, "encode outcomes of session %s", ses.ID)
	}
	return string(rj), string(oj), nil
}
