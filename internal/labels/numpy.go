package labels

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/nlpodyssey/gopickle/types"
)

// Label pickles written by numpy pipelines carry np.int64 scalars and small
// ndarrays. findNumpyClass resolves just enough of numpy to rebuild those;
// any other class stays generic and is rejected by fromPickle.
func findNumpyClass(module, name string) (interface{}, error) {
	switch module {
	case "numpy.core.multiarray", "numpy._core.multiarray":
		switch name {
		case "scalar":
			return numpyScalar{}, nil
		case "_reconstruct":
			return numpyReconstruct{}, nil
		}
	case "numpy":
		if name == "dtype" {
			return dtypeClass{}, nil
		}
	case "_codecs":
		if name == "encode" {
			return codecsEncode{}, nil
		}
	}
	return types.NewGenericClass(module, name), nil
}

// dtype is a decoded numpy dtype: kind ('i', 'u', 'f', 'b'), item size and
// byte order.
type dtype struct {
	kind  byte
	size  int
	order binary.ByteOrder
}

type dtypeClass struct{}

// Call handles numpy.dtype("i8", False, True).
func (dtypeClass) Call(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("numpy.dtype: missing type code")
	}
	code, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("numpy.dtype: type code is %T", args[0])
	}
	return parseDtype(code)
}

func parseDtype(code string) (*dtype, error) {
	d := &dtype{order: binary.LittleEndian}
	if code != "" {
		switch code[0] {
		case '<', '|', '=':
			code = code[1:]
		case '>':
			d.order = binary.BigEndian
			code = code[1:]
		}
	}
	if len(code) < 2 {
		return nil, fmt.Errorf("numpy.dtype: unsupported type code %q", code)
	}
	size, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, fmt.Errorf("numpy.dtype: unsupported type code %q", code)
	}
	d.kind, d.size = code[0], size
	return d, nil
}

// PySetState reads the byte order from the dtype state tuple
// (version, endian, subdescr, names, fields, elsize, alignment, flags).
func (d *dtype) PySetState(state interface{}) error {
	t, ok := state.(*types.Tuple)
	if !ok || t.Len() < 2 {
		return fmt.Errorf("numpy.dtype: unexpected state %T", state)
	}
	if endian, _ := t.Get(1).(string); endian == ">" {
		d.order = binary.BigEndian
	} else {
		d.order = binary.LittleEndian
	}
	return nil
}

// decode converts one item to int, float64 or bool.
func (d *dtype) decode(b []byte) (interface{}, error) {
	if len(b) != d.size {
		return nil, fmt.Errorf("numpy scalar: %d bytes for a %d-byte %c", len(b), d.size, d.kind)
	}
	switch d.kind {
	case 'i', 'u':
		var u uint64
		switch d.size {
		case 1:
			u = uint64(b[0])
		case 2:
			u = uint64(d.order.Uint16(b))
		case 4:
			u = uint64(d.order.Uint32(b))
		case 8:
			u = d.order.Uint64(b)
		default:
			return nil, fmt.Errorf("numpy scalar: unsupported integer size %d", d.size)
		}
		if d.kind == 'u' {
			if u > math.MaxInt64 {
				return nil, fmt.Errorf("numpy scalar: %d overflows int", u)
			}
			return int(u), nil
		}
		shift := 64 - 8*uint(d.size)
		return int(int64(u<<shift) >> shift), nil
	case 'f':
		switch d.size {
		case 4:
			return float64(math.Float32frombits(d.order.Uint32(b))), nil
		case 8:
			return math.Float64frombits(d.order.Uint64(b)), nil
		}
		return nil, fmt.Errorf("numpy scalar: unsupported float size %d", d.size)
	case 'b':
		return b[0] != 0, nil
	}
	return nil, fmt.Errorf("numpy scalar: unsupported dtype kind %q", d.kind)
}

func (d *dtype) decodeAll(b []byte) ([]interface{}, error) {
	if d.size <= 0 || len(b)%d.size != 0 {
		return nil, fmt.Errorf("numpy array: %d bytes is not a multiple of item size %d", len(b), d.size)
	}
	out := make([]interface{}, 0, len(b)/d.size)
	for off := 0; off < len(b); off += d.size {
		v, err := d.decode(b[off : off+d.size])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type numpyScalar struct{}

// Call handles numpy.core.multiarray.scalar(dtype, raw).
func (numpyScalar) Call(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("numpy scalar: want 2 arguments, got %d", len(args))
	}
	d, ok := args[0].(*dtype)
	if !ok {
		return nil, fmt.Errorf("numpy scalar: dtype is %T", args[0])
	}
	raw, err := rawBytes(args[1])
	if err != nil {
		return nil, err
	}
	return d.decode(raw)
}

type numpyReconstruct struct{}

// Call handles numpy.core.multiarray._reconstruct(ndarray, (0,), b"b"); the
// contents arrive afterwards through PySetState.
func (numpyReconstruct) Call(args ...interface{}) (interface{}, error) {
	return &ndarray{}, nil
}

// ndarray is a flattened numpy array.
type ndarray struct {
	shape  []int
	values []interface{}
}

// PySetState reads (version, shape, dtype, fortran, data).
func (a *ndarray) PySetState(state interface{}) error {
	t, ok := state.(*types.Tuple)
	if !ok || t.Len() != 5 {
		return fmt.Errorf("numpy array: unexpected state %T", state)
	}
	shape, ok := t.Get(1).(*types.Tuple)
	if !ok {
		return fmt.Errorf("numpy array: shape is %T", t.Get(1))
	}
	for i := 0; i < shape.Len(); i++ {
		n, ok := shape.Get(i).(int)
		if !ok {
			return fmt.Errorf("numpy array: dimension %d is %T", i, shape.Get(i))
		}
		a.shape = append(a.shape, n)
	}
	switch data := t.Get(4).(type) {
	case *types.List:
		// object dtype: items are already Python values
		for i := 0; i < data.Len(); i++ {
			a.values = append(a.values, data.Get(i))
		}
	default:
		d, ok := t.Get(2).(*dtype)
		if !ok {
			return fmt.Errorf("numpy array: dtype is %T", t.Get(2))
		}
		raw, err := rawBytes(data)
		if err != nil {
			return err
		}
		if a.values, err = d.decodeAll(raw); err != nil {
			return err
		}
	}
	want := 1
	for _, n := range a.shape {
		want *= n
	}
	if want != len(a.values) {
		return fmt.Errorf("numpy array: shape %v holds %d items, got %d", a.shape, want, len(a.values))
	}
	return nil
}

type codecsEncode struct{}

// Call handles _codecs.encode(text, "latin1"), which protocol 2 uses for bytes.
func (codecsEncode) Call(args ...interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("_codecs.encode: missing argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("_codecs.encode: argument is %T", args[0])
	}
	return latin1(s)
}

func rawBytes(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return latin1(x)
	}
	return nil, fmt.Errorf("numpy: raw data is %T", v)
}

func latin1(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, fmt.Errorf("rune %U is outside latin-1", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}
