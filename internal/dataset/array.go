package dataset

import (
	"fmt"
	"strings"
)

// Array is a dense, row-major numeric tensor loaded whole into memory.
type Array struct {
	Name  string
	Shape []int
	Data  []float64
}

// NewArray allocates a zero-filled array with the given shape.
func NewArray(name string, shape ...int) *Array {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Array{Name: name, Shape: s, Data: make([]float64, product(s))}
}

// Len returns the leading-axis length (the sample count).
func (a *Array) Len() int {
	if a == nil || len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// Rank returns the number of axes.
func (a *Array) Rank() int { return len(a.Shape) }

// Size returns the total element count implied by Shape.
func (a *Array) Size() int { return product(a.Shape) }

// Dim returns the length of axis i, or 0 when the axis does not exist.
func (a *Array) Dim(i int) int {
	if i < 0 || i >= len(a.Shape) {
		return 0
	}
	return a.Shape[i]
}

// ShapeString formats the shape the way numpy prints it, e.g. (10, 3, 300).
func (a *Array) ShapeString() string {
	parts := make([]string, len(a.Shape))
	for i, d := range a.Shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
