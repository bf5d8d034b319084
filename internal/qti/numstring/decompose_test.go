package numstring_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

func ptr[T any](v T) *T { return &v }

func TestDecompose(t *testing.T) {
	cases := []struct {
		in   string
		want numstring.Decomposition
	}{
		{"12.340E-2", numstring.Decomposition{
			String: "12.340E-2", Float: ptr(0.1234),
			LeftDigits: 2, RightDigits: 3, NDP: 5, NSF: 5, Exponent: ptr(-2),
		}},
		{"42", numstring.Decomposition{
			String: "42", Float: ptr(42.0), Integer: ptr(42),
			LeftDigits: 2, NSF: 2,
		}},
		{"-007", numstring.Decomposition{
			String: "-007", Float: ptr(-7.0), Integer: ptr(-7),
			LeftDigits: 3, NSF: 1,
		}},
		{"1.5e2", numstring.Decomposition{
			String: "1.5e2", Float: ptr(150.0),
			LeftDigits: 1, RightDigits: 1, NDP: -1, NSF: 2, Exponent: ptr(2),
		}},
		{"0.05", numstring.Decomposition{
			String: "0.05", Float: ptr(0.05),
			LeftDigits: 1, RightDigits: 2, NDP: 2, NSF: 3,
		}},
		{".5", numstring.Decomposition{
			String: ".5", Float: ptr(0.5),
			RightDigits: 1, NDP: 1, NSF: 1,
		}},
		{"3E", numstring.Decomposition{
			String: "3E", LeftDigits: 1, NSF: 1, Exponent: ptr(0),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := numstring.Decompose(tc.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Decompose(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestDecomposeIntegersHaveNoFraction(t *testing.T) {
	for _, s := range []string{"0", "7", "12345", "-3", "+18"} {
		d, err := numstring.Decompose(s)
		require.NoError(t, err, s)
		assert.Equal(t, 0, d.RightDigits, s)
		assert.Equal(t, 0, d.NDP, s)
		require.NotNil(t, d.Integer, s)
		n, _ := value.ParseInteger(s, 10)
		assert.Equal(t, n, *d.Integer, s)
	}
}

func TestDecomposeExponentMeansNoInteger(t *testing.T) {
	for s, exp := range map[string]int{"1e3": 3, "2E-4": -4, "5.0e+1": 1} {
		d, err := numstring.Decompose(s)
		require.NoError(t, err, s)
		require.NotNil(t, d.Exponent, s)
		assert.Equal(t, exp, *d.Exponent, s)
		assert.Nil(t, d.Integer, s)
	}
}

func TestDecomposeRejects(t *testing.T) {
	for _, s := range []string{"", "abc", "1e2E3", "1.2.3", "1ex", "-", "."} {
		_, err := numstring.Decompose(s)
		var de *numstring.Error
		assert.True(t, errors.As(err, &de), "%q", s)
	}
}

func TestRecord(t *testing.T) {
	d, err := numstring.Decompose("12.340E-2")
	require.NoError(t, err)
	r := d.Record()

	v, ok := r.Get(numstring.FieldStringValue)
	require.True(t, ok)
	assert.Equal(t, value.StringValue("12.340E-2"), v)

	v, ok = r.Get(numstring.FieldIntegerValue)
	require.True(t, ok)
	assert.True(t, value.IsNull(v))

	v, _ = r.Get(numstring.FieldNDP)
	assert.Equal(t, value.IntegerValue(5), v)
	v, _ = r.Get(numstring.FieldExponent)
	assert.Equal(t, value.IntegerValue(-2), v)
	v, _ = r.Get(numstring.FieldLeftDigits)
	assert.Equal(t, value.IntegerValue(2), v)
	assert.Equal(t, 8, r.Len())
}
