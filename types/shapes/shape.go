// Package shapes defines Shape, the static description of a tensor resolved
// from a module: its element DType and ordered dimensions.
//
// Dimensions use int64 because that is how shape constants are encoded in the
// module; a dimension may be DynamicDim when the module defers it to dispatch
// time. DType comes from github.com/gomlx/gopjrt/dtypes, and float16 values
// are backed by github.com/x448/float16.
package shapes

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// DynamicDim marks a dimension whose size is not known until dispatch.
const DynamicDim int64 = -1

// Shape describes a tensor: element type and ordered dimensions.
//
// Use Make to create one. The zero value is invalid (Ok() == false).
type Shape struct {
	DType      dtypes.DType
	Dimensions []int64
}

// Make returns a Shape with the given element type and dimensions.
// Dimensions must be positive or DynamicDim.
func Make(dtype dtypes.DType, dimensions ...int64) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 && dim != DynamicDim {
			exceptions.Panicf("shapes.Make(%s): dimension must be positive or DynamicDim, got %v", dtype, dimensions)
		}
	}
	return s
}

// Scalar returns a rank-0 Shape of the given element type.
func Scalar(dtype dtypes.DType) Shape {
	return Shape{DType: dtype}
}

// Invalid returns an invalid shape. Invalid().Ok() == false.
func Invalid() Shape { return Shape{DType: dtypes.InvalidDType} }

// Ok returns whether this is a valid Shape. The zero value Shape{} is invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape has no dimensions (rank 0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// IsDynamic returns whether any dimension is DynamicDim.
func (s Shape) IsDynamic() bool {
	return slices.Contains(s.Dimensions, DynamicDim)
}

// Dim returns the dimension of the given axis. Negative axes count from the
// end, so axis=-1 is the last axis. Panics on an out-of-bounds axis.
func (s Shape) Dim(axis int) int64 {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Size returns the number of elements held by the shape, the product of all
// dimensions. It returns DynamicDim if any dimension is dynamic.
func (s Shape) Size() int64 {
	size := int64(1)
	for _, d := range s.Dimensions {
		if d == DynamicDim {
			return DynamicDim
		}
		size *= d
	}
	return size
}

// Memory returns the bytes needed to store a dense array of this shape, or
// DynamicDim if the size is not static.
func (s Shape) Memory() int64 {
	size := s.Size()
	if size == DynamicDim {
		return DynamicDim
	}
	return size * int64(s.DType.Size())
}

// Equal compares dtype and dimensions.
func (s Shape) Equal(s2 Shape) bool {
	return s.DType == s2.DType && slices.Equal(s.Dimensions, s2.Dimensions)
}

// EqualDimensions compares dimensions only; dtypes can differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	return Shape{DType: s.DType, Dimensions: slices.Clone(s.Dimensions)}
}

// HasShape is implemented by anything that can report its Shape.
type HasShape interface {
	Shape() Shape
}
