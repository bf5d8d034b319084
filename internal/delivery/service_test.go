package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/db"
	"github.com/mind-engage/mindengage-qti/internal/qti/loader"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
	"github.com/mind-engage/mindengage-qti/internal/storage"
	syncx "github.com/mind-engage/mindengage-qti/internal/sync"
)

const choiceXML = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="capital" title="Capitals" adaptive="false" timeDependent="false">
  <responseDeclaration identifier="RESPONSE" cardinality="single" baseType="identifier">
    <correctResponse><value>B</value></correctResponse>
  </responseDeclaration>
  <outcomeDeclaration identifier="SCORE" cardinality="single" baseType="float">
    <defaultValue><value>0</value></defaultValue>
  </outcomeDeclaration>
  <itemBody>
    <choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="1">
      <prompt>Capital of France?</prompt>
      <simpleChoice identifier="A">Berlin</simpleChoice>
      <simpleChoice identifier="B">Paris</simpleChoice>
    </choiceInteraction>
  </itemBody>
  <responseProcessing template="http://www.imsglobal.org/question/qti_v2p1/rptemplates/match_correct"/>
</assessmentItem>`

const brokenXML = `<assessmentItem xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1" identifier="broken" title="Broken" timeDependent="false">
  <itemBody>
    <choiceInteraction responseIdentifier="MISSING" shuffle="false" maxChoices="1">
      <simpleChoice identifier="A">A</simpleChoice>
    </choiceInteraction>
  </itemBody>
</assessmentItem>`

type fixture struct {
	svc    *Service
	events *syncx.EventRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	d, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(dir, "qti.db")+"?mode=rwc")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	blobs, err := storage.NewFSStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	events := syncx.NewEventRepo(d)
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return fixture{
		svc:    NewService(NewSQLStore(d), blobs, events, nil, WithClock(clock)),
		events: events,
	}
}

func TestUploadItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.svc.UploadItem(ctx, []byte(choiceXML))
	require.NoError(t, err)
	assert.True(t, it.Valid)
	assert.Equal(t, "capital", it.Identifier)
	assert.Equal(t, "Capitals", it.Title)
	assert.Empty(t, it.Diagnostics)

	got, err := f.svc.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it, got)

	rc, err := f.svc.ItemSource(ctx, it.ID)
	require.NoError(t, err)
	src, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, choiceXML, string(src))

	list, err := f.svc.ListItems(ctx, ListOpts{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUploadInvalidItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.svc.UploadItem(ctx, []byte(brokenXML))
	require.NoError(t, err)
	assert.False(t, it.Valid)
	require.NotEmpty(t, it.Diagnostics)
	assert.Equal(t, "Cannot find responseDeclaration MISSING", it.Diagnostics[0].Message)
	assert.Equal(t, "choiceInteraction", it.Diagnostics[0].Class)

	_, err = f.svc.StartSession(ctx, it.ID, "ada")
	var invalid *InvalidItemError
	assert.ErrorAs(t, err, &invalid)

	_, err = f.svc.UploadItem(ctx, []byte("<assessmentItem"))
	assert.ErrorAs(t, err, &invalid, "unparseable XML is rejected")
}

func TestUploadMalformedAttributesReportedOnce(t *testing.T) {
	f := newFixture(t)
	src := strings.NewReplacer(
		`timeDependent="false"`, `timeDependent="maybe"`,
		`<simpleChoice identifier="A">`, `<simpleChoice identifier="1A">`,
	).Replace(choiceXML)

	it, err := f.svc.UploadItem(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.False(t, it.Valid)
	require.Len(t, it.Diagnostics, 2)
	assert.Equal(t, `Invalid value "maybe" for attribute timeDependent`, it.Diagnostics[0].Message)
	assert.Equal(t, "assessmentItem", it.Diagnostics[0].Class)
	assert.Equal(t, `Invalid value "1A" for attribute identifier`, it.Diagnostics[1].Message)
	assert.Equal(t, "simpleChoice", it.Diagnostics[1].Class)
}

func TestUploadRejectsInvalidWhenConfigured(t *testing.T) {
	f := newFixture(t)
	WithRejectInvalid(true)(f.svc)

	_, err := f.svc.UploadItem(context.Background(), []byte(brokenXML))
	var invalid *InvalidItemError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Problems, "Cannot find responseDeclaration MISSING")

	list, err := f.svc.ListItems(context.Background(), ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, err := f.svc.UploadItem(ctx, []byte(choiceXML))
	require.NoError(t, err)

	ses, err := f.svc.StartSession(ctx, it.ID, "ada")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, ses.Status)
	assert.True(t, value.IsNull(ses.Responses["RESPONSE"]))
	assert.Equal(t, value.FloatValue(0), ses.Outcomes["SCORE"])

	res, err := f.svc.Submit(ctx, ses.ID, map[string][]string{"RESPONSE": {"A"}, "NOPE": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"RESPONSE"}, res.Bound)
	assert.Contains(t, res.Failures, "NOPE")
	assert.Equal(t, 0.0, res.Score)

	res, err = f.svc.Submit(ctx, ses.ID, map[string][]string{"RESPONSE": {"B"}})
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "match_correct", res.Template)

	stored, err := f.svc.GetSession(ctx, ses.ID)
	require.NoError(t, err)
	assert.Equal(t, value.IdentifierValue("B"), stored.Responses["RESPONSE"])
	assert.Equal(t, value.FloatValue(1), stored.Outcomes["SCORE"])

	closed, err := f.svc.Close(ctx, ses.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	_, err = f.svc.Submit(ctx, ses.ID, map[string][]string{"RESPONSE": {"A"}})
	assert.ErrorIs(t, err, ErrSessionClosed)

	again, err := f.svc.Close(ctx, ses.ID)
	require.NoError(t, err)
	assert.Equal(t, closed.ClosedAt, again.ClosedAt)

	evs, err := f.events.List(ctx, ses.ID, 0)
	require.NoError(t, err)
	var types []string
	for _, e := range evs {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		syncx.TypeSessionStarted,
		syncx.TypeResponsesSubmitted,
		syncx.TypeResponsesSubmitted,
		syncx.TypeSessionClosed,
	}, types)

	list, err := f.svc.ListSessions(ctx, it.ID, "ada")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.GetItem(ctx, "nope")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = f.svc.StartSession(ctx, "nope", "ada")
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = f.svc.Submit(ctx, "nope", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.Close(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentSubmitsAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, err := f.svc.UploadItem(ctx, []byte(choiceXML))
	require.NoError(t, err)
	ses, err := f.svc.StartSession(ctx, it.ID, "ada")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok := "A"
			if i%2 == 0 {
				tok = "B"
			}
			_, err := f.svc.Submit(ctx, ses.ID, map[string][]string{"RESPONSE": {tok}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	evs, err := f.events.List(ctx, ses.ID, 0)
	require.NoError(t, err)
	assert.Len(t, evs, 9)
}

func TestDocumentReloadedFromBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, err := f.svc.UploadItem(ctx, []byte(choiceXML))
	require.NoError(t, err)

	f.svc.mu.Lock()
	delete(f.svc.docs, it.ID)
	f.svc.mu.Unlock()

	_, err = f.svc.StartSession(ctx, it.ID, "ada")
	assert.NoError(t, err)
}

func TestSessionsShareReadOnlyDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it, err := f.svc.UploadItem(ctx, []byte(choiceXML))
	require.NoError(t, err)

	f.svc.mu.Lock()
	doc := f.svc.docs[it.ID]
	f.svc.mu.Unlock()
	require.NotNil(t, doc)
	var before bytes.Buffer
	require.NoError(t, loader.Write(&before, doc))

	var wg sync.WaitGroup
	scores := make([]float64, 6)
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ses, err := f.svc.StartSession(ctx, it.ID, fmt.Sprintf("cand-%d", i))
			if !assert.NoError(t, err) {
				return
			}
			tok := []string{"A", "B", "C"}[i%3]
			res, err := f.svc.Submit(ctx, ses.ID, map[string][]string{"RESPONSE": {tok}})
			if assert.NoError(t, err) {
				scores[i] = res.Score
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, []float64{0, 1, 0, 0, 1, 0}, scores)

	f.svc.mu.Lock()
	assert.Same(t, doc, f.svc.docs[it.ID])
	f.svc.mu.Unlock()
	var after bytes.Buffer
	require.NoError(t, loader.Write(&after, doc))
	assert.Equal(t, before.String(), after.String())
	assert.Empty(t, doc.Validate().Diagnostics())
}
