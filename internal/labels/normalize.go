package labels

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// Normalize converts a raw container into a LabelSet.
func Normalize(raw RawLabels) (*LabelSet, error) {
	switch r := raw.(type) {
	case PositionalLabels:
		return normalizePositional(r)
	case *PositionalLabels:
		if r == nil {
			return nil, formatErr("empty tuple container")
		}
		return normalizePositional(*r)
	case NamedLabels:
		return normalizeNamed(r)
	case nil:
		return nil, formatErr("no label container")
	default:
		return nil, formatErr("unsupported container %T", raw)
	}
}

func normalizePositional(r PositionalLabels) (*LabelSet, error) {
	n := len(r.SampleName)
	if len(r.Label) != n || len(r.Frame) != n || len(r.VideoPath) != n {
		return nil, formatErr("tuple fields have unequal lengths (sample_name=%d, label=%d, frame=%d, video_path=%d)",
			len(r.SampleName), len(r.Label), len(r.Frame), len(r.VideoPath))
	}
	label, err := ints(r.Label, FieldLabel)
	if err != nil {
		return nil, err
	}
	frame, err := ints(r.Frame, FieldFrame)
	if err != nil {
		return nil, err
	}
	return &LabelSet{
		SampleName: strs(r.SampleName),
		Label:      label,
		Frame:      frame,
		VideoPath:  strs(r.VideoPath),
		ClassIDs:   append([]int(nil), frame...),
		Source:     SourcePositional,
		ClassField: FieldFrame,
		Keys:       r.Keys(),
	}, nil
}

func normalizeNamed(m NamedLabels) (*LabelSet, error) {
	field := FieldIDAction
	seq, ok := m[FieldIDAction]
	if !ok {
		field = FieldLabel
		seq, ok = m[FieldLabel]
	}
	if !ok {
		return nil, formatErr("mapping has neither %q nor %q (keys: %s)", FieldIDAction, FieldLabel, strings.Join(m.Keys(), ", "))
	}
	classes, err := ints(seq, field)
	if err != nil {
		return nil, err
	}
	n := len(classes)
	set := &LabelSet{
		Label:      classes,
		ClassIDs:   append([]int(nil), classes...),
		Source:     SourceNamed,
		ClassField: field,
		Keys:       m.Keys(),
	}

	if f, ok := m[FieldFrame]; ok {
		if len(f) != n {
			return nil, formatErr("%s has %d entries, %s has %d", FieldFrame, len(f), field, n)
		}
		if set.Frame, err = ints(f, FieldFrame); err != nil {
			return nil, err
		}
	} else {
		set.Frame = append([]int(nil), classes...)
	}
	for _, t := range []struct {
		name string
		dst  *[]string
	}{
		{FieldSampleName, &set.SampleName},
		{FieldVideoPath, &set.VideoPath},
	} {
		v, ok := m[t.name]
		if !ok {
			*t.dst = make([]string, n)
			continue
		}
		if len(v) != n {
			return nil, formatErr("%s has %d entries, %s has %d", t.name, len(v), field, n)
		}
		*t.dst = strs(v)
	}
	return set, nil
}

// Unwrap degrades a length-1 sequence of T to T. Any other value, including
// an already-unwrapped scalar, is returned unchanged.
func Unwrap(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case string, []byte:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 1 {
			return rv.Index(0).Interface()
		}
	}
	return v
}

// ToInt coerces a label entry to an integer class id. Singleton sequences
// are unwrapped first; floats are truncated toward zero.
func ToInt(v any) (int, error) {
	switch x := Unwrap(v).(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int", x)
		}
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case *big.Int:
		if x == nil || !x.IsInt64() {
			return 0, fmt.Errorf("value %v overflows int", x)
		}
		return int(x.Int64()), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	default:
		return 0, fmt.Errorf("cannot use %T as a class id", x)
	}
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return int(f), nil
}

func ints(seq []any, field string) ([]int, error) {
	out := make([]int, len(seq))
	for i, v := range seq {
		x, err := ToInt(v)
		if err != nil {
			return nil, &LabelFormatError{Reason: fmt.Sprintf("%s[%d]", field, i), Err: err}
		}
		out[i] = x
	}
	return out, nil
}

func strs(seq []any) []string {
	out := make([]string, len(seq))
	for i, v := range seq {
		switch x := Unwrap(v).(type) {
		case nil:
		case string:
			out[i] = x
		case []byte:
			out[i] = string(x)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}
