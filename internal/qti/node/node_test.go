package node

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti/binding"
	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

type sink map[value.Identifier]value.Value

func (s sink) SetResponseValue(id value.Identifier, v value.Value) { s[id] = v }

func newTestItem(t *testing.T) (*Document, *AssessmentItem) {
	t.Helper()
	doc, item := NewItem()
	item.SetIdentifier("item-1")
	item.SetTitle("Capitals")
	item.SetTimeDependent(false)
	return doc, item
}

func addResponse(t *testing.T, item *AssessmentItem, id value.Identifier, c value.Cardinality, b value.BaseType) *ResponseDeclaration {
	t.Helper()
	n, err := item.ResponseDeclarationGroup().Append(ClassResponseDeclaration)
	require.NoError(t, err)
	d := n.(*ResponseDeclaration)
	d.SetIdentifier(id)
	d.SetCardinality(c)
	if b != "" {
		d.SetBaseType(b)
	}
	return d
}

func addBody(t *testing.T, item *AssessmentItem) *ItemBody {
	t.Helper()
	n, err := item.ItemBodyGroup().Append(ClassItemBody)
	require.NoError(t, err)
	return n.(*ItemBody)
}

func choiceItem(t *testing.T) (*Document, *AssessmentItem, *ChoiceInteraction) {
	t.Helper()
	doc, item := newTestItem(t)
	d := addResponse(t, item, "RESPONSE", value.Single, value.IdentifierType)
	cr, err := d.CorrectResponseGroup().Append(ClassCorrectResponse)
	require.NoError(t, err)
	_, err = cr.(*CorrectResponse).AddValue("A")
	require.NoError(t, err)

	body := addBody(t, item)
	n, err := body.Content().Append(ClassChoiceInteraction)
	require.NoError(t, err)
	ci := n.(*ChoiceInteraction)
	ci.SetResponseIdentifier("RESPONSE")
	_, err = ci.AddChoice("A", "Paris")
	require.NoError(t, err)
	_, err = ci.AddChoice("B", "Lyon")
	require.NoError(t, err)
	return doc, item, ci
}

func TestValidItemHasNoDiagnostics(t *testing.T) {
	doc, _, _ := choiceItem(t)
	ctx := doc.Validate()
	assert.Empty(t, ctx.Diagnostics())
	assert.True(t, ctx.Valid())
}

func TestSingleSlotSetTwiceKeepsSecond(t *testing.T) {
	_, item := newTestItem(t)
	g := item.ItemBodyGroup()
	first, err := g.Create(ClassItemBody)
	require.NoError(t, err)
	second, err := g.Create(ClassItemBody)
	require.NoError(t, err)

	require.NoError(t, g.Set(first))
	require.NoError(t, g.Set(second))
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, second.ID(), item.ItemBody().ID())
}

func TestSetSoleChildAgainIsNoop(t *testing.T) {
	_, item := newTestItem(t)
	g := item.ItemBodyGroup()
	body, err := g.Create(ClassItemBody)
	require.NoError(t, err)

	require.NoError(t, g.Set(body))
	require.NoError(t, g.Set(body))
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, body.ID(), item.ItemBody().ID())

	decls := item.ResponseDeclarationGroup()
	d, err := decls.Append(ClassResponseDeclaration)
	require.NoError(t, err)
	assert.Error(t, decls.Add(d), "a repeated group holds a node once")
	assert.Equal(t, 1, decls.Len())
}

func TestAbsentSlotReturnsNil(t *testing.T) {
	_, item := newTestItem(t)
	assert.Nil(t, item.ItemBody())
	assert.Nil(t, item.ResponseProcessing())
	assert.Nil(t, item.ItemBodyGroup().Get())
	assert.Empty(t, item.Interactions())
}

func TestUnsupportedChild(t *testing.T) {
	_, item := newTestItem(t)
	body := addBody(t, item)

	_, err := body.Content().Create(ClassSimpleChoice)
	var uc *UnsupportedChildError
	require.True(t, errors.As(err, &uc))
	assert.Equal(t, ClassItemBody, uc.Parent)
	assert.Equal(t, ClassSimpleChoice, uc.Class)

	_, err = body.Content().Create("marquee")
	assert.ErrorAs(t, err, &uc)
}

func TestAddToFullGroup(t *testing.T) {
	_, item := newTestItem(t)
	addBody(t, item)
	n, err := item.ItemBodyGroup().Create(ClassItemBody)
	require.NoError(t, err)

	var ae *ArityError
	require.ErrorAs(t, item.ItemBodyGroup().Add(n), &ae)
	assert.Equal(t, 1, ae.Max)
}

func TestAtomicNodesHaveNoChildren(t *testing.T) {
	_, item := newTestItem(t)
	body := addBody(t, item)
	n, err := body.Content().Append(ClassP)
	require.NoError(t, err)
	te, err := n.(*P).Content().Append(ClassTextEntryInteraction)
	require.NoError(t, err)
	assert.Nil(t, te.Children())
	assert.Empty(t, te.Groups())
}

func TestEveryMalformedAttributeIsReported(t *testing.T) {
	doc, item, ci := choiceItem(t)

	n, err := item.OutcomeDeclarationGroup().Append(ClassOutcomeDeclaration)
	require.NoError(t, err)
	od := n.(*OutcomeDeclaration)
	od.SetIdentifier("1SCORE")
	od.SetCardinality(value.Single)
	od.SetBaseType(value.FloatType)

	ci.Choices()[1].SetIdentifier("not valid")

	n, err = item.TemplateDeclarationGroup().Append(ClassTemplateDeclaration)
	require.NoError(t, err)
	td := n.(*TemplateDeclaration)
	td.SetIdentifier("T1")
	td.SetCardinality(value.Cardinality("bogus"))

	ctx := doc.Validate()
	assert.Len(t, ctx.Errors(), 3)
	assert.Empty(t, ctx.Warnings())
}

func TestRequiredAttributes(t *testing.T) {
	doc, item := NewItem()
	ctx := doc.Validate()
	// identifier, title and timeDependent; adaptive has a default
	require.Len(t, ctx.Errors(), 3)
	assert.Contains(t, ctx.Errors()[0].Message, "identifier")
	assert.Same(t, item, ctx.Errors()[0].Source)
}

func TestPath(t *testing.T) {
	_, item, ci := choiceItem(t)
	assert.Equal(t, "/assessmentItem", item.Path())
	assert.Equal(t, "/assessmentItem/itemBody[1]/choiceInteraction[0]", ci.Path())
	assert.Equal(t, "/assessmentItem/itemBody[1]/choiceInteraction[0]/simpleChoice[1]", ci.Choices()[1].Path())
}

func TestUnresolvedResponseIdentifier(t *testing.T) {
	doc, _, ci := choiceItem(t)
	ci.SetResponseIdentifier("MISSING")

	ctx := doc.Validate()
	require.Len(t, ctx.Errors(), 1)
	assert.Equal(t, "Cannot find responseDeclaration MISSING", ctx.Errors()[0].Message)
	assert.Nil(t, ci.ResponseDeclaration())
	assert.Error(t, ci.BindResponse(sink{}, []string{"A"}))
}

func TestDuplicateDeclarationsAndSharedResponse(t *testing.T) {
	doc, item, ci := choiceItem(t)
	addResponse(t, item, "RESPONSE", value.Single, value.StringType)

	n, err := item.ItemBody().Content().Append(ClassChoiceInteraction)
	require.NoError(t, err)
	other := n.(*ChoiceInteraction)
	other.SetResponseIdentifier(ci.ResponseIdentifier())
	_, err = other.AddChoice("C", "")
	require.NoError(t, err)

	ctx := doc.Validate()
	require.Len(t, ctx.Errors(), 1)
	assert.Contains(t, ctx.Errors()[0].Message, "Duplicate variable identifier")
	require.Len(t, ctx.Warnings(), 1)
	assert.Same(t, other, ctx.Warnings()[0].Source)
}

func TestChoiceChecks(t *testing.T) {
	doc, item, ci := choiceItem(t)
	item.ResponseDeclaration("RESPONSE").SetBaseType(value.StringType)
	ci.SetMaxChoices(2)
	ci.Choices()[1].SetIdentifier("A")

	var msgs []string
	for _, d := range doc.Validate().Errors() {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{
		"Response variable RESPONSE must have identifier baseType but has string",
		"Response variable RESPONSE has single cardinality so maxChoices must be 1",
		"Duplicate choice identifier: A",
	}, msgs)
}

func TestChoiceValidateResponse(t *testing.T) {
	_, item, ci := choiceItem(t)
	out := sink{}
	require.NoError(t, ci.BindResponse(out, []string{"A"}))
	assert.Equal(t, value.IdentifierValue("A"), out["RESPONSE"])
	assert.True(t, ci.ValidateResponse(out["RESPONSE"]))
	assert.False(t, ci.ValidateResponse(value.IdentifierValue("Z")))

	d := item.ResponseDeclaration("RESPONSE")
	d.SetCardinality(value.Multiple)
	ci.SetMaxChoices(2)
	ci.SetMinChoices(1)
	require.NoError(t, ci.BindResponse(out, []string{"A", "B"}))
	assert.True(t, ci.ValidateResponse(out["RESPONSE"]))

	require.NoError(t, ci.BindResponse(out, nil))
	assert.False(t, ci.ValidateResponse(out["RESPONSE"]))

	three, err := value.NewMultiple(value.IdentifierType,
		value.IdentifierValue("A"), value.IdentifierValue("B"), value.IdentifierValue("A"))
	require.NoError(t, err)
	assert.False(t, ci.ValidateResponse(three))
}

func textEntryItem(t *testing.T, bt value.BaseType) (*Document, *AssessmentItem, *TextEntryInteraction) {
	t.Helper()
	doc, item := newTestItem(t)
	addResponse(t, item, "RESPONSE", value.Single, bt)
	body := addBody(t, item)
	p, err := body.Content().Append(ClassP)
	require.NoError(t, err)
	_, err = p.(*P).AppendText("Answer: ")
	require.NoError(t, err)
	n, err := p.(*P).Content().Append(ClassTextEntryInteraction)
	require.NoError(t, err)
	te := n.(*TextEntryInteraction)
	te.SetResponseIdentifier("RESPONSE")
	return doc, item, te
}

func TestPatternMaskIsSeparateFromBinding(t *testing.T) {
	doc, _, te := textEntryItem(t, value.StringType)
	te.SetPatternMask("[0-9]+")
	require.True(t, doc.Validate().Valid())

	out := sink{}
	require.NoError(t, te.BindResponse(out, []string{"12a"}))
	assert.Equal(t, value.StringValue("12a"), out["RESPONSE"])
	assert.False(t, te.ValidateResponse(out["RESPONSE"]))
	assert.True(t, te.ValidateResponse(value.StringValue("12")))
}

func TestRunawayPatternMaskIsInvalid(t *testing.T) {
	doc, _, te := textEntryItem(t, value.StringType)
	te.SetPatternMask("([0-9]+)*")
	require.True(t, doc.Validate().Valid())

	out := sink{}
	require.NoError(t, te.BindResponse(out, []string{strings.Repeat("1", 40) + "x"}))
	assert.False(t, te.ValidateResponse(out["RESPONSE"]))
}

func TestBindFailureStoresNothing(t *testing.T) {
	_, _, te := textEntryItem(t, value.IntegerType)
	out := sink{}
	err := te.BindResponse(out, []string{"abc"})
	var be *binding.Error
	require.ErrorAs(t, err, &be)
	assert.Empty(t, out)
}

func TestStringIdentifierCompanion(t *testing.T) {
	doc, item, te := textEntryItem(t, value.FloatType)
	addResponse(t, item, "NUM", value.Record, "")
	te.SetStringIdentifier("NUM")
	require.True(t, doc.Validate().Valid())

	out := sink{}
	require.NoError(t, te.BindResponse(out, []string{"1.50"}))
	assert.Equal(t, value.FloatValue(1.5), out["RESPONSE"])
	rec := out["NUM"].(value.RecordValue)
	nsf, _ := rec.Get(numstring.FieldNSF)
	ndp, _ := rec.Get(numstring.FieldNDP)
	assert.Equal(t, value.IntegerValue(3), nsf)
	assert.Equal(t, value.IntegerValue(2), ndp)
}

func TestStringInteractionChecks(t *testing.T) {
	doc, item, te := textEntryItem(t, value.FloatType)
	addResponse(t, item, "POINT", value.Single, value.PointType)
	te.SetBase(16)
	te.SetStringIdentifier("POINT")
	te.SetPatternMask("(")

	ctx := doc.Validate()
	require.Len(t, ctx.Warnings(), 1)
	assert.Contains(t, ctx.Warnings()[0].Message, "base 16")
	assert.Len(t, ctx.Errors(), 2)
}

func TestExtendedTextStrings(t *testing.T) {
	doc, item := newTestItem(t)
	addResponse(t, item, "ESSAY", value.Ordered, value.StringType)
	body := addBody(t, item)
	n, err := body.Content().Append(ClassExtendedTextInteraction)
	require.NoError(t, err)
	et := n.(*ExtendedTextInteraction)
	et.SetResponseIdentifier("ESSAY")
	et.SetMinStrings(2)
	et.SetMaxStrings(3)
	require.True(t, doc.Validate().Valid())
	assert.Equal(t, PlainFormat, et.Format())

	out := sink{}
	require.NoError(t, et.BindResponse(out, []string{"one", "", "two"}))
	assert.True(t, et.ValidateResponse(out["ESSAY"]))
	require.NoError(t, et.BindResponse(out, []string{"one"}))
	assert.False(t, et.ValidateResponse(out["ESSAY"]))

	et.SetMinStrings(4)
	assert.False(t, doc.Validate().Valid())
}

func TestDeclarationShapeChecks(t *testing.T) {
	doc, item := newTestItem(t)
	addResponse(t, item, "R1", value.Record, value.StringType)
	addResponse(t, item, "R2", value.Single, "")
	assert.Len(t, doc.Validate().Errors(), 2)
}

func TestDefaultValues(t *testing.T) {
	_, item := newTestItem(t)
	d := addResponse(t, item, "REC", value.Record, "")
	n, err := d.DefaultValueGroup().Append(ClassDefaultValue)
	require.NoError(t, err)
	dv := n.(*DefaultValue)
	v, err := dv.AddValue("2")
	require.NoError(t, err)
	v.SetFieldIdentifier("leftDigits")
	v.SetBaseType(value.IntegerType)

	got, err := d.Initial()
	require.NoError(t, err)
	want, err := value.NewRecord(value.Field{Name: "leftDigits", Value: value.IntegerValue(2)})
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	list := addResponse(t, item, "L", value.Multiple, value.IntegerType)
	got, err = list.Initial()
	require.NoError(t, err)
	assert.True(t, got.(value.ListValue).Empty())

	single := addResponse(t, item, "S", value.Single, value.IntegerType)
	got, err = single.Initial()
	require.NoError(t, err)
	assert.True(t, value.IsNull(got))
}

func TestInvalidDefaultValue(t *testing.T) {
	doc, item := newTestItem(t)
	d := addResponse(t, item, "N", value.Single, value.IntegerType)
	n, err := d.DefaultValueGroup().Append(ClassDefaultValue)
	require.NoError(t, err)
	dv := n.(*DefaultValue)
	_, err = dv.AddValue("1")
	require.NoError(t, err)
	_, err = dv.AddValue("2")
	require.NoError(t, err)

	errs := doc.Validate().Errors()
	require.Len(t, errs, 1)
	assert.Same(t, dv, errs[0].Source)
}

func TestMapping(t *testing.T) {
	doc, item := newTestItem(t)
	d := addResponse(t, item, "R", value.Single, value.StringType)
	n, err := d.MappingGroup().Append(ClassMapping)
	require.NoError(t, err)
	m := n.(*Mapping)
	_, err = m.AddEntry("paris", 2)
	require.NoError(t, err)
	e, err := m.AddEntry("Lyon", 1)
	require.NoError(t, err)
	e.SetCaseSensitive(false)
	require.True(t, doc.Validate().Valid())

	_, ok := m.Lookup(value.StringValue("Paris"))
	assert.False(t, ok)
	got, ok := m.Lookup(value.StringValue("LYON"))
	assert.True(t, ok)
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 0.0, m.DefaultValue())

	d.SetBaseType(value.IntegerType)
	assert.Len(t, doc.Validate().Errors(), 2)
}

func TestTemplateName(t *testing.T) {
	assert.Equal(t, "match_correct", TemplateName(TemplateMatchCorrect))
	assert.Equal(t, "map_response", TemplateName("rptemplates/map_response.xml"))
}
