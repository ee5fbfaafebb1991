package labels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a label container from disk, choosing the decoder by
// extension: .pkl (Python pickle), .json, .yaml/.yml.
func LoadFile(path string) (RawLabels, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pkl", ".pickle":
		return loadPickle(path)
	case ".json":
		return loadJSON(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported label file extension %q", ext)
	}
}

// Load reads and normalizes in one step.
func Load(path string) (*LabelSet, error) {
	raw, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

func loadPickle(path string) (RawLabels, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()
	u := pickle.NewUnpickler(f)
	u.FindClass = findNumpyClass
	v, err := u.Load()
	if err != nil {
		return nil, &LabelFormatError{Reason: "unpickle " + filepath.Base(path), Err: err}
	}
	g, err := fromPickle(v)
	if err != nil {
		return nil, &LabelFormatError{Reason: filepath.Base(path), Err: err}
	}
	return FromContainer(g)
}

func loadJSON(path string) (RawLabels, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return FromContainer(v)
}

func loadYAML(path string) (RawLabels, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return FromContainer(v)
}

// tuple marks a decoded pickle tuple so FromContainer can tell it apart
// from a list.
type tuple []any

// FromContainer maps a decoded generic value onto a RawLabels variant: a
// 4-element sequence becomes PositionalLabels, a string-keyed mapping
// becomes NamedLabels.
func FromContainer(v any) (RawLabels, error) {
	switch x := v.(type) {
	case tuple:
		return positional([]any(x))
	case []any:
		return positional(x)
	case map[string]any:
		out := make(NamedLabels, len(x))
		for k, val := range x {
			seq, ok := asSeq(val)
			if !ok {
				return nil, formatErr("field %q is %T, want a sequence", k, val)
			}
			out[k] = seq
		}
		return out, nil
	case nil:
		return nil, formatErr("empty label file")
	default:
		return nil, formatErr("container is %T, want a 4-tuple or a mapping", v)
	}
}

func positional(x []any) (RawLabels, error) {
	if len(x) != 4 {
		return nil, formatErr("sequence of %d elements, want 4", len(x))
	}
	var fields [4][]any
	for i, e := range x {
		seq, ok := asSeq(e)
		if !ok {
			return nil, formatErr("tuple element %d is %T, want a sequence", i, e)
		}
		fields[i] = seq
	}
	return PositionalLabels{SampleName: fields[0], Label: fields[1], Frame: fields[2], VideoPath: fields[3]}, nil
}

func asSeq(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case tuple:
		return []any(x), true
	}
	return nil, false
}

// fromPickle converts gopickle containers into plain Go values: lists and
// tuples become []any (tuples tagged), dicts become map[string]any, numpy
// arrays become flat []any and 0-d arrays their single value.
func fromPickle(v any) (any, error) {
	switch x := v.(type) {
	case *types.Tuple:
		out := make(tuple, x.Len())
		for i := range out {
			e, err := fromPickle(x.Get(i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case *types.List:
		out := make([]any, x.Len())
		for i := range out {
			e, err := fromPickle(x.Get(i))
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	case *types.Dict:
		out := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is %T, want string", k, k)
			}
			val, _ := x.Get(k)
			e, err := fromPickle(val)
			if err != nil {
				return nil, err
			}
			out[ks] = e
		}
		return out, nil
	case *ndarray:
		if len(x.shape) == 0 && len(x.values) == 1 {
			return fromPickle(x.values[0])
		}
		out := make([]any, len(x.values))
		for i, e := range x.values {
			c, err := fromPickle(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case nil, bool, int, int64, float64, string, []byte, *big.Int:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported pickled value of type %T", v)
	}
}
