package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/sbinet/npyio/npy"
)

// LoadArray reads a .npy file into memory. Files ending in .gz or .zst are
// decompressed on the fly.
func LoadArray(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open array: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", filepath.Base(path), err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", filepath.Base(path), err)
		}
		defer zr.Close()
		r = zr
	}
	a, err := ReadArray(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	a.Name = arrayName(path)
	return a, nil
}

// ReadArray decodes a single npy stream. Only C-ordered float and integer
// dtypes are accepted; every value is widened to float64.
func ReadArray(r io.Reader) (*Array, error) {
	nr, err := npy.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npy header: %w", err)
	}
	if nr.Header.Descr.Fortran {
		return nil, fmt.Errorf("fortran-ordered arrays are not supported")
	}
	shape := append([]int(nil), nr.Header.Descr.Shape...)
	a := &Array{Shape: shape}

	switch dt := nr.Header.Descr.Type; dt {
	case "<f8":
		var v []float64
		if err := nr.Read(&v); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}
		a.Data = v
	case "<f4":
		var v []float32
		if err := nr.Read(&v); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}
		a.Data = widen(v)
	case "<i8":
		var v []int64
		if err := nr.Read(&v); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}
		a.Data = widen(v)
	case "<i4":
		var v []int32
		if err := nr.Read(&v); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}
		a.Data = widen(v)
	case "|u1":
		var v []uint8
		if err := nr.Read(&v); err != nil {
			return nil, fmt.Errorf("npy data: %w", err)
		}
		a.Data = widen(v)
	default:
		return nil, fmt.Errorf("unsupported dtype %q", dt)
	}
	if len(a.Data) != a.Size() {
		return nil, fmt.Errorf("shape %s implies %d values, got %d", a.ShapeString(), a.Size(), len(a.Data))
	}
	return a, nil
}

func widen[T float32 | int64 | int32 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// arrayName strips directory and every extension: train_bbox.npy.gz → train_bbox.
func arrayName(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
