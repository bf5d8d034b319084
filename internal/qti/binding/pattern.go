package binding

import (
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

// MaskTimeout bounds a single pattern mask match. Masks are backtracking
// expressions evaluated against candidate input.
const MaskTimeout = 100 * time.Millisecond

// maxMasks bounds the compiled mask cache; a full cache is dropped.
const maxMasks = 256

var (
	masksMu sync.Mutex
	masks   = map[string]*regexp2.Regexp{}
)

func compileMask(mask string) (*regexp2.Regexp, error) {
	masksMu.Lock()
	defer masksMu.Unlock()
	if re, ok := masks[mask]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(`\A(?:`+mask+`)\z`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = MaskTimeout
	if len(masks) >= maxMasks {
		masks = make(map[string]*regexp2.Regexp, maxMasks)
	}
	masks[mask] = re
	return re, nil
}

// MatchesPattern reports whether the rendered form of v matches mask as a
// whole. NULL renders as the empty string, list values must match element
// by element and records are matched on their stringValue field. A match
// that exceeds MaskTimeout returns false with the timeout error.
func MatchesPattern(mask string, v value.Value) (bool, error) {
	re, err := compileMask(mask)
	if err != nil {
		return false, err
	}
	for _, s := range rendered(v) {
		ok, err := re.MatchString(s)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func rendered(v value.Value) []string {
	switch x := v.(type) {
	case nil, value.NullValue:
		return []string{""}
	case value.ListValue:
		return value.Literals(x)
	case value.RecordValue:
		f, ok := x.Get(numstring.FieldStringValue)
		if !ok || f.IsNull() {
			return []string{""}
		}
		return []string{f.String()}
	}
	return []string{v.String()}
}
