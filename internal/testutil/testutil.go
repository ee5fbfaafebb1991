// Package testutil writes small npy and pickle fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteNPY writes a little-endian float64 .npy (format 1.0) to path.
func WriteNPY(t *testing.T, path string, shape []int, data []float64) {
	t.Helper()
	if err := os.WriteFile(path, EncodeNPY(shape, data), 0o644); err != nil {
		t.Fatalf("write npy: %v", err)
	}
}

// EncodeNPY returns the bytes of a float64 .npy file.
func EncodeNPY(shape []int, data []float64) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	shp := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shp += ","
	}
	hdr := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", shp)
	// magic(6) + version(2) + len(2) + header must be a multiple of 64, ending in '\n'.
	total := 10 + len(hdr) + 1
	if pad := total % 64; pad != 0 {
		hdr += strings.Repeat(" ", 64-pad)
	}
	hdr += "\n"

	var b bytes.Buffer
	b.WriteString("\x93NUMPY")
	b.Write([]byte{1, 0})
	_ = binary.Write(&b, binary.LittleEndian, uint16(len(hdr)))
	b.WriteString(hdr)
	for _, v := range data {
		_ = binary.Write(&b, binary.LittleEndian, math.Float64bits(v))
	}
	return b.Bytes()
}

// Tuple marks a slice to be pickled as a Python tuple instead of a list.
type Tuple []any

// Dict is pickled as a Python dict with insertion-ordered string keys.
type Dict struct {
	Keys   []string
	Values []any
}

// Global is pickled as a GLOBAL reference to module.name.
type Global struct {
	Module, Name string
}

// Reduce is pickled as Func(*Args).
type Reduce struct {
	Func any
	Args Tuple
}

// Build is pickled as Obj followed by a BUILD with State.
type Build struct {
	Obj   any
	State any
}

// Bytes is pickled as a bytes object.
type Bytes []byte

// NumpyDtype returns the pickled form of numpy.dtype(code), little-endian.
func NumpyDtype(code string) any {
	return Build{
		Obj:   Reduce{Func: Global{"numpy", "dtype"}, Args: Tuple{code, false, true}},
		State: Tuple{3, "<", nil, nil, nil, -1, -1, 0},
	}
}

// NumpyInt64 returns the pickled form of numpy.int64(v).
func NumpyInt64(v int64) any {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, uint64(v))
	return Reduce{
		Func: Global{"numpy.core.multiarray", "scalar"},
		Args: Tuple{NumpyDtype("i8"), Bytes(raw)},
	}
}

// NumpyInt64Array returns the pickled form of numpy.array(vs, dtype=int64).
func NumpyInt64Array(vs ...int64) any {
	raw := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(v))
	}
	return Build{
		Obj: Reduce{
			Func: Global{"numpy.core.multiarray", "_reconstruct"},
			Args: Tuple{Global{"numpy", "ndarray"}, Tuple{0}, Bytes("b")},
		},
		State: Tuple{1, Tuple{len(vs)}, NumpyDtype("i8"), false, Bytes(raw)},
	}
}

// WritePickle pickles v (protocol 3) into dir/name and returns the path.
func WritePickle(t *testing.T, dir, name string, v any) string {
	t.Helper()
	b, err := EncodePickle(v)
	if err != nil {
		t.Fatalf("encode pickle: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("write pickle: %v", err)
	}
	return p
}

// EncodePickle supports nil, bool, int, float64, string, Bytes, []any, Tuple,
// Dict, Global, Reduce and Build.
func EncodePickle(v any) ([]byte, error) {
	var b bytes.Buffer
	b.Write([]byte{0x80, 3})
	if err := encodeValue(&b, v); err != nil {
		return nil, err
	}
	b.WriteByte('.')
	return b.Bytes(), nil
}

func encodeValue(b *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteByte('N')
	case bool:
		if x {
			b.WriteByte(0x88)
		} else {
			b.WriteByte(0x89)
		}
	case int:
		b.WriteByte('J')
		_ = binary.Write(b, binary.LittleEndian, int32(x))
	case float64:
		b.WriteByte('G')
		_ = binary.Write(b, binary.BigEndian, math.Float64bits(x))
	case string:
		b.WriteByte('X')
		_ = binary.Write(b, binary.LittleEndian, uint32(len(x)))
		b.WriteString(x)
	case Bytes:
		b.WriteByte('B')
		_ = binary.Write(b, binary.LittleEndian, uint32(len(x)))
		b.Write(x)
	case Global:
		b.WriteString("c" + x.Module + "\n" + x.Name + "\n")
	case Reduce:
		if err := encodeValue(b, x.Func); err != nil {
			return err
		}
		if err := encodeValue(b, x.Args); err != nil {
			return err
		}
		b.WriteByte('R')
	case Build:
		if err := encodeValue(b, x.Obj); err != nil {
			return err
		}
		if err := encodeValue(b, x.State); err != nil {
			return err
		}
		b.WriteByte('b')
	case []any:
		b.WriteByte(']')
		if len(x) == 0 {
			return nil
		}
		b.WriteByte('(')
		for _, e := range x {
			if err := encodeValue(b, e); err != nil {
				return err
			}
		}
		b.WriteByte('e')
	case Tuple:
		b.WriteByte('(')
		for _, e := range x {
			if err := encodeValue(b, e); err != nil {
				return err
			}
		}
		b.WriteByte('t')
	case Dict:
		b.WriteByte('}')
		if len(x.Keys) == 0 {
			return nil
		}
		b.WriteByte('(')
		for i, k := range x.Keys {
			if err := encodeValue(b, k); err != nil {
				return err
			}
			if err := encodeValue(b, x.Values[i]); err != nil {
				return err
			}
		}
		b.WriteByte('u')
	default:
		return fmt.Errorf("cannot pickle %T", v)
	}
	return nil
}
