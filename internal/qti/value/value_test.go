package value_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

func TestParseStringifyRoundTrip(t *testing.T) {
	cases := []struct {
		bt  value.BaseType
		lit string
	}{
		{value.IdentifierType, "RESPONSE_1"},
		{value.BooleanType, "true"},
		{value.BooleanType, "false"},
		{value.IntegerType, "-42"},
		{value.IntegerType, "0"},
		{value.FloatType, "3.25"},
		{value.FloatType, "-0.001"},
		{value.FloatType, "1e+300"},
		{value.FloatType, "NaN"},
		{value.FloatType, "INF"},
		{value.FloatType, "-INF"},
		{value.StringType, "hello world"},
		{value.PointType, "10 -3"},
		{value.PairType, "A B"},
		{value.DirectedPairType, "B A"},
		{value.DurationType, "PT90S"},
		{value.DurationType, "1.5"},
		{value.FileType, "upload.bin"},
		{value.URIType, "http://example.org/x"},
	}
	for _, tc := range cases {
		t.Run(string(tc.bt)+"/"+tc.lit, func(t *testing.T) {
			v, err := tc.bt.Parse(tc.lit)
			require.NoError(t, err)
			assert.Equal(t, tc.bt, v.BaseType())
			again, err := tc.bt.Parse(v.String())
			require.NoError(t, err)
			assert.True(t, v.Equal(again), "%s != %s", v, again)
		})
	}
}

func TestFloatRendering(t *testing.T) {
	assert.Equal(t, "0.5", value.FloatValue(0.5).String())
	assert.Equal(t, "1234567", value.FloatValue(1234567).String())
	assert.Equal(t, "INF", value.FloatValue(math.Inf(1)).String())
	assert.Equal(t, "1e-09", value.FloatValue(1e-9).String())
}

func TestDurationISO(t *testing.T) {
	v, err := value.DurationType.Parse("PT1M30S")
	require.NoError(t, err)
	assert.Equal(t, value.DurationValue(90*time.Second), v)
	assert.Equal(t, "PT90S", v.String())
}

func TestParseFailures(t *testing.T) {
	bad := map[value.BaseType]string{
		value.IntegerType:      "abc",
		value.FloatType:        "1,5",
		value.BooleanType:      "yes",
		value.IdentifierType:   "1abc",
		value.PointType:        "1",
		value.PairType:         "A",
		value.DirectedPairType: "A 2B",
		value.DurationType:     "-3",
	}
	for bt, lit := range bad {
		_, err := bt.Parse(lit)
		var perr *value.ParseError
		require.True(t, errors.As(err, &perr), "%s %q", bt, lit)
		assert.Equal(t, bt, perr.BaseType)
		assert.Equal(t, lit, perr.Text)
	}
}

func TestIdentifierSyntax(t *testing.T) {
	for _, ok := range []string{"A", "_x", "RESPONSE-1", "a.b", "é1"} {
		assert.True(t, value.Identifier(ok).Valid(), ok)
	}
	for _, bad := range []string{"", "1A", "a b", "a:b", "-x"} {
		assert.False(t, value.Identifier(bad).Valid(), bad)
	}
}

func TestListTypeMismatch(t *testing.T) {
	_, err := value.NewMultiple(value.IntegerType, value.IntegerValue(1), value.FloatValue(2))
	var tm *value.TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, 1, tm.Position)
	assert.Equal(t, value.FloatType, tm.Actual)

	_, err = value.NewOrdered(value.StringType, nil)
	require.True(t, errors.As(err, &tm))
}

func TestListEquality(t *testing.T) {
	a, _ := value.NewMultiple(value.IdentifierType, value.IdentifierValue("A"), value.IdentifierValue("B"), value.IdentifierValue("A"))
	b, _ := value.NewMultiple(value.IdentifierType, value.IdentifierValue("A"), value.IdentifierValue("A"), value.IdentifierValue("B"))
	c, _ := value.NewMultiple(value.IdentifierType, value.IdentifierValue("A"), value.IdentifierValue("B"), value.IdentifierValue("B"))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	o1, _ := value.NewOrdered(value.IdentifierType, value.IdentifierValue("A"), value.IdentifierValue("B"))
	o2, _ := value.NewOrdered(value.IdentifierType, value.IdentifierValue("B"), value.IdentifierValue("A"))
	assert.False(t, o1.Equal(o2))
	assert.False(t, o1.Equal(a))

	empty, _ := value.NewMultiple(value.StringType)
	assert.True(t, empty.Empty())
	assert.False(t, empty.IsNull())
}

func TestPairEquality(t *testing.T) {
	assert.True(t, value.PairValue{First: "A", Second: "B"}.Equal(value.PairValue{First: "B", Second: "A"}))
	assert.False(t, value.DirectedPairValue{Source: "A", Destination: "B"}.Equal(value.DirectedPairValue{Source: "B", Destination: "A"}))
}

func TestRecordEquality(t *testing.T) {
	r1, err := value.NewRecord(
		value.Field{Name: "a", Value: value.IntegerValue(1)},
		value.Field{Name: "b", Value: value.Null},
	)
	require.NoError(t, err)
	r2, err := value.NewRecord(
		value.Field{Name: "b", Value: nil},
		value.Field{Name: "a", Value: value.IntegerValue(1)},
	)
	require.NoError(t, err)
	r3, err := value.NewRecord(value.Field{Name: "a", Value: value.IntegerValue(1)})
	require.NoError(t, err)

	assert.True(t, r1.Equal(r2))
	assert.False(t, r1.Equal(r3), "NULL field and absent field differ")
	assert.Equal(t, "(a: 1, b: NULL)", r1.String())

	_, ok := r3.Get("b")
	assert.False(t, ok)
	v, ok := r1.Get("b")
	assert.True(t, ok)
	assert.True(t, value.IsNull(v))
}

func TestRecordRejectsContainers(t *testing.T) {
	l, _ := value.NewMultiple(value.IntegerType, value.IntegerValue(1))
	_, err := value.NewRecord(value.Field{Name: "x", Value: l})
	var ce *value.CardinalityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, value.Identifier("x"), ce.Field)
}

func TestFromLiterals(t *testing.T) {
	v, err := value.FromLiterals(value.Single, value.IntegerType, nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = value.FromLiterals(value.Single, value.IntegerType, []string{"1", "2"})
	require.Error(t, err)

	v, err = value.FromLiterals(value.Ordered, value.IntegerType, []string{"3", "1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, value.Literals(v))
}

func TestJSONRoundTrip(t *testing.T) {
	list, _ := value.NewOrdered(value.PointType, value.PointValue{X: 1, Y: 2}, value.PointValue{X: 3, Y: 4})
	rec, _ := value.NewRecord(
		value.Field{Name: "stringValue", Value: value.StringValue("1.5")},
		value.Field{Name: "integerValue", Value: value.Null},
	)
	m := value.Map{
		"A": value.IntegerValue(7),
		"B": list,
		"C": rec,
		"D": value.Null,
	}
	data, err := m.MarshalJSON()
	require.NoError(t, err)

	var back value.Map
	require.NoError(t, back.UnmarshalJSON(data))
	require.Len(t, back, len(m))
	for k, v := range m {
		assert.True(t, value.Equal(v, back[k]), "%s: %v vs %v", k, v, back[k])
	}
}
