package binding

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

type decl struct {
	id   value.Identifier
	card value.Cardinality
	bt   value.BaseType
}

func (d decl) Identifier() value.Identifier   { return d.id }
func (d decl) Cardinality() value.Cardinality { return d.card }
func (d decl) BaseType() value.BaseType       { return d.bt }

func TestBindSingleInteger(t *testing.T) {
	d := decl{"RESPONSE", value.Single, value.IntegerType}

	v, err := Bind(d, []string{"42"})
	require.NoError(t, err)
	assert.Equal(t, value.IntegerValue(42), v)

	_, err = Bind(d, []string{"abc"})
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, value.Identifier("RESPONSE"), be.Identifier)
	assert.Equal(t, []string{"abc"}, be.Tokens)
}

func TestBindSingleRejectsManyTokens(t *testing.T) {
	_, err := Bind(decl{"R", value.Single, value.StringType}, []string{"a", "b"})
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Error(), "expected one value")
}

func TestBindBlankIsNull(t *testing.T) {
	d := decl{"R", value.Single, value.FloatType}
	for _, toks := range [][]string{nil, {""}, {"   "}} {
		v, err := Bind(d, toks)
		require.NoError(t, err)
		assert.True(t, value.IsNull(v))
	}
}

func TestBindLists(t *testing.T) {
	v, err := Bind(decl{"R", value.Multiple, value.IdentifierType}, []string{"A", "", "B"})
	require.NoError(t, err)
	l := v.(value.ListValue)
	assert.Equal(t, value.Multiple, l.Cardinality())
	assert.Equal(t, 2, l.Len())

	v, err = Bind(decl{"R", value.Ordered, value.IntegerType}, nil)
	require.NoError(t, err)
	assert.True(t, v.(value.ListValue).Empty())

	_, err = Bind(decl{"R", value.Ordered, value.IntegerType}, []string{"1", "x"})
	assert.Error(t, err)
}

func TestBindRecordNeedsStringInteraction(t *testing.T) {
	_, err := Bind(decl{"R", value.Record, ""}, []string{"1"})
	assert.Error(t, err)
}

func TestBindStringRadix(t *testing.T) {
	v, err := BindString(decl{"R", value.Single, value.IntegerType}, []string{"ff"}, 16)
	require.NoError(t, err)
	assert.Equal(t, value.IntegerValue(255), v)

	_, err = BindString(decl{"R", value.Single, value.IntegerType}, []string{"12"}, 2)
	assert.Error(t, err)
}

func TestBindStringRecord(t *testing.T) {
	d := decl{"R", value.Record, ""}

	v, err := BindString(d, []string{"12.340E-2"}, 10)
	require.NoError(t, err)
	r := v.(value.RecordValue)
	ndp, _ := r.Get(numstring.FieldNDP)
	assert.Equal(t, value.IntegerValue(5), ndp)

	v, err = BindString(d, []string{"101"}, 2)
	require.NoError(t, err)
	r = v.(value.RecordValue)
	assert.Equal(t, 2, r.Len())
	iv, _ := r.Get(numstring.FieldIntegerValue)
	assert.Equal(t, value.IntegerValue(5), iv)

	v, err = BindString(d, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, v.(value.RecordValue).Len())

	_, err = BindString(d, []string{"1.2.3"}, 10)
	assert.Error(t, err)
}

func TestPatternIndependentOfBinding(t *testing.T) {
	d := decl{"R", value.Single, value.StringType}
	v, err := BindString(d, []string{"12a"}, 10)
	require.NoError(t, err)

	ok, err := MatchesPattern("[0-9]+", v)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = MatchesPattern("[0-9]+", value.StringValue("123"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPatternShapes(t *testing.T) {
	ok, err := MatchesPattern("[a-z]*", value.Null)
	require.NoError(t, err)
	assert.True(t, ok)

	l, err := value.NewOrdered(value.StringType, value.StringValue("ab"), value.StringValue("C"))
	require.NoError(t, err)
	ok, err = MatchesPattern("[a-z]+", l)
	require.NoError(t, err)
	assert.False(t, ok)

	r, err := value.NewRecord(value.Field{Name: numstring.FieldStringValue, Value: value.StringValue("3.5")})
	require.NoError(t, err)
	ok, err = MatchesPattern(`\d+\.\d`, r)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = MatchesPattern("(", value.StringValue("x"))
	assert.Error(t, err)
}

func TestPatternMatchTimesOut(t *testing.T) {
	input := value.StringValue(strings.Repeat("a", 40) + "!")
	start := time.Now()
	ok, err := MatchesPattern("(a+)+", input)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 20*MaskTimeout)

	ok, err = MatchesPattern("(a+)+", value.StringValue("aaaa"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMaskCacheIsBounded(t *testing.T) {
	for i := 0; i < maxMasks+10; i++ {
		_, err := MatchesPattern(fmt.Sprintf("x{%d}", i), value.StringValue("x"))
		require.NoError(t, err)
	}
	masksMu.Lock()
	n := len(masks)
	masksMu.Unlock()
	assert.LessOrEqual(t, n, maxMasks)
	assert.Positive(t, n)
}
