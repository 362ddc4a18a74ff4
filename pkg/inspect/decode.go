package inspect

import (
	"encoding/json"
	"errors"
	"io"
	"math"

	"github.com/vango-dev/storekit/pkg/state"
)

var errNotObject = errors.New("body must be a JSON object")

// decodePatch reads a JSON object. Integral numbers decode as int (int64
// when they overflow int) and the rest as float64, so selectors written
// against int state keep working.
func decodePatch(r io.Reader) (state.State, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return normalize(obj).(map[string]any), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			if i < math.MinInt || i > math.MaxInt {
				return i
			}
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}
