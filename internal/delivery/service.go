package delivery

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/grading"
	"github.com/mind-engage/mindengage-qti/internal/qti/attribute"
	"github.com/mind-engage/mindengage-qti/internal/qti/loader"
	"github.com/mind-engage/mindengage-qti/internal/qti/node"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
	"github.com/mind-engage/mindengage-qti/internal/session"
	"github.com/mind-engage/mindengage-qti/internal/storage"
	syncx "github.com/mind-engage/mindengage-qti/internal/sync"
)

// EventSink records domain events. *syncx.EventRepo satisfies it.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

type Option func(*Service)

// WithMaxItemBytes caps the size of uploaded item XML.
func WithMaxItemBytes(n int64) Option { return func(s *Service) { s.maxItemBytes = n } }

// WithRejectInvalid makes UploadItem refuse items with validation errors
// instead of storing them as invalid.
func WithRejectInvalid(reject bool) Option { return func(s *Service) { s.rejectInvalid = reject } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

type Service struct {
	store         Store
	blobs         storage.BlobStore
	events        EventSink
	log           *zap.Logger
	maxItemBytes  int64
	rejectInvalid bool
	now           func() time.Time

	mu    sync.Mutex
	docs  map[string]*node.Document // shared, read-only; see document
	locks map[string]*sync.Mutex
}

// NewService wires the delivery service. events and logger may be nil.
func NewService(store Store, blobs storage.BlobStore, events EventSink, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:        store,
		blobs:        blobs,
		events:       events,
		log:          logger.Named("delivery"),
		maxItemBytes: 4 << 20,
		now:          time.Now,
		docs:         map[string]*node.Document{},
		locks:        map[string]*sync.Mutex{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// UploadItem loads and validates item XML and stores it. Items with
// validation errors are stored with Valid false unless the service rejects
// them; XML that cannot be loaded at all is rejected with an
// *InvalidItemError.
func (s *Service) UploadItem(ctx context.Context, src []byte) (Item, error) {
	if s.maxItemBytes > 0 && int64(len(src)) > s.maxItemBytes {
		return Item{}, &InvalidItemError{Problems: []string{"item exceeds size limit"}}
	}
	doc, loadErrs, err := loader.Load(bytes.NewReader(src))
	if err != nil {
		return Item{}, &InvalidItemError{Problems: []string{err.Error()}}
	}
	item := doc.Item()
	if item == nil {
		return Item{}, &InvalidItemError{Problems: []string{"root element is not assessmentItem"}}
	}

	it := Item{
		ID:         uuid.NewString(),
		Identifier: item.Identifier(),
		Title:      item.Title(),
		CreatedAt:  s.now().UTC().Truncate(time.Second),
	}
	it.BlobKey = storage.ItemKey(it.ID)
	structural := 0
	for _, e := range loadErrs {
		// rejected attribute literals are reported by the validation walk
		var be *attribute.BindingError
		if errors.As(e, &be) {
			continue
		}
		structural++
		it.Diagnostics = append(it.Diagnostics, Diagnostic{Severity: "error", Message: e.Error()})
	}
	vctx := doc.Validate()
	for _, d := range vctx.Diagnostics() {
		it.Diagnostics = append(it.Diagnostics, diagnosticOf(d))
	}
	it.Valid = structural == 0 && vctx.Valid()
	if it.Diagnostics == nil {
		it.Diagnostics = []Diagnostic{}
	}
	if !it.Valid && s.rejectInvalid {
		return Item{}, &InvalidItemError{Problems: problems(it.Diagnostics)}
	}

	if _, err := s.blobs.Put(ctx, it.BlobKey, bytes.NewReader(src)); err != nil {
		return Item{}, errors.Wrap(err, "store item source")
	}
	if err := s.store.PutItem(ctx, it); err != nil {
		_ = s.blobs.Delete(ctx, it.BlobKey)
		return Item{}, err
	}
	if it.Valid {
		s.mu.Lock()
		s.docs[it.ID] = doc
		s.mu.Unlock()
	}
	s.emit(ctx, syncx.TypeItemUploaded, it.ID, map[string]any{"identifier": it.Identifier, "valid": it.Valid})
	s.log.Info("item uploaded",
		zap.String("item_id", it.ID),
		zap.String("identifier", it.Identifier),
		zap.Bool("valid", it.Valid),
		zap.Int("diagnostics", len(it.Diagnostics)))
	return it, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, opts ListOpts) ([]Item, error) {
	return s.store.ListItems(ctx, opts)
}

// ItemSource returns the stored XML of an item.
func (s *Service) ItemSource(ctx context.Context, id string) (io.ReadCloser, error) {
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.blobs.Get(ctx, it.BlobKey)
}

// StartSession opens a session for candidate on a valid item with every
// variable at its initial value.
func (s *Service) StartSession(ctx context.Context, itemID, candidate string) (Session, error) {
	it, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return Session{}, err
	}
	if !it.Valid {
		return Session{}, &InvalidItemError{Problems: problems(it.Diagnostics)}
	}
	doc, err := s.document(ctx, it)
	if err != nil {
		return Session{}, err
	}
	ctl := session.New(doc.Item(), s.log)
	if err := ctl.Initialize(); err != nil {
		return Session{}, errors.Wrap(err, "initialise session")
	}
	now := s.now().UTC().Truncate(time.Second)
	ses := Session{
		ID:        uuid.NewString(),
		ItemID:    it.ID,
		Candidate: candidate,
		Status:    StatusOpen,
		Responses: ctl.Responses(),
		Outcomes:  ctl.Outcomes(),
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSession(ctx, ses); err != nil {
		return Session{}, err
	}
	s.emit(ctx, syncx.TypeSessionStarted, ses.ID, map[string]string{"item_id": it.ID, "candidate": candidate})
	s.log.Info("session started", zap.String("session_id", ses.ID), zap.String("item_id", it.ID))
	return ses, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return s.store.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, itemID, candidate string) ([]Session, error) {
	return s.store.ListSessions(ctx, itemID, candidate)
}

// Submit binds raw responses into an open session and runs response
// processing. Responses that fail to bind keep their previous value; the
// failures are reported in the result rather than as an error. Items whose
// template is not supported are stored without scoring.
func (s *Service) Submit(ctx context.Context, sessionID string, raw map[string][]string) (SubmitResult, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	ses, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if ses.Status != StatusOpen {
		return SubmitResult{}, ErrSessionClosed
	}
	it, err := s.store.GetItem(ctx, ses.ItemID)
	if err != nil {
		return SubmitResult{}, err
	}
	doc, err := s.document(ctx, it)
	if err != nil {
		return SubmitResult{}, err
	}

	ctl := session.New(doc.Item(), s.log.With(zap.String("session_id", ses.ID)))
	ctl.Restore(ses.Responses, ses.Outcomes)
	in := make(map[value.Identifier][]string, len(raw))
	for k, v := range raw {
		in[value.Identifier(k)] = v
	}
	sub := ctl.BindResponses(in)
	graded, err := ctl.ProcessResponses(ctx)
	if err != nil && !errors.Is(err, grading.ErrUnknownTemplate) {
		return SubmitResult{}, errors.Wrap(err, "process responses")
	}

	ses.Responses, ses.Outcomes = ctl.Responses(), ctl.Outcomes()
	ses.UpdatedAt = s.now().UTC().Truncate(time.Second)
	if err := s.store.UpdateSession(ctx, ses); err != nil {
		return SubmitResult{}, err
	}

	res := SubmitResult{
		Session:  ses,
		Bound:    identifiers(sub.Bound),
		Invalid:  identifiers(sub.Invalid),
		Ignored:  identifiers(sub.Ignored),
		Template: graded.Template,
		Score:    graded.Score,
		MaxScore: graded.MaxScore,
	}
	if len(sub.Failures) > 0 {
		res.Failures = make(map[string]string, len(sub.Failures))
		for id, ferr := range sub.Failures {
			res.Failures[string(id)] = ferr.Error()
		}
	}
	s.emit(ctx, syncx.TypeResponsesSubmitted, ses.ID, map[string]any{
		"bound": res.Bound, "invalid": res.Invalid, "failures": res.Failures, "score": res.Score,
	})
	return res, nil
}

// Close ends a session. Closing a closed session returns it unchanged.
func (s *Service) Close(ctx context.Context, sessionID string) (Session, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	ses, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if ses.Status == StatusClosed {
		return ses, nil
	}
	now := s.now().UTC().Truncate(time.Second)
	ses.Status = StatusClosed
	ses.UpdatedAt = now
	ses.ClosedAt = &now
	if err := s.store.UpdateSession(ctx, ses); err != nil {
		return Session{}, err
	}
	s.emit(ctx, syncx.TypeSessionClosed, ses.ID, map[string]any{"outcomes": ses.Outcomes})
	s.log.Info("session closed", zap.String("session_id", ses.ID))
	return ses, nil
}

// document returns the parsed item, loading it from blob storage on first use.
// One tree serves every session of the item, so it must stay read-only after
// loading: session state lives in session.Controller, and binding,
// validation and response processing only read the tree.
func (s *Service) document(ctx context.Context, it Item) (*node.Document, error) {
	s.mu.Lock()
	doc, ok := s.docs[it.ID]
	s.mu.Unlock()
	if ok {
		return doc, nil
	}
	rc, err := s.blobs.Get(ctx, it.BlobKey)
	if err != nil {
		return nil, errors.Wrapf(err, "read item %s", it.ID)
	}
	defer rc.Close()
	doc, loadErrs, err := loader.Load(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "load item %s", it.ID)
	}
	if len(loadErrs) > 0 {
		return nil, errors.Wrapf(loadErrs[0], "load item %s", it.ID)
	}
	s.mu.Lock()
	s.docs[it.ID] = doc
	s.mu.Unlock()
	return doc, nil
}

func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(typ, key, data)
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		s.log.Warn("event not recorded", zap.String("type", typ), zap.String("key", key), zap.Error(err))
	}
}

func identifiers(ids []value.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	sort.Strings(out)
	return out
}

func problems(ds []Diagnostic) []string {
	var out []string
	for _, d := range ds {
		if d.Severity == "error" {
			out = append(out, d.Message)
		}
	}
	return out
}
