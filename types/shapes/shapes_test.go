package shapes

import (
	"testing"

	. "github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	invalidShape := Invalid()
	require.False(t, invalidShape.Ok())

	shape0 := Make(Float64)
	require.True(t, shape0.Ok())
	require.True(t, shape0.IsScalar())
	require.Equal(t, 0, shape0.Rank())
	require.Len(t, shape0.Dimensions, 0)
	require.Equal(t, int64(1), shape0.Size())
	require.Equal(t, int64(8), shape0.Memory())

	shape1 := Make(Float32, 4, 3, 2)
	require.True(t, shape1.Ok())
	require.False(t, shape1.IsScalar())
	require.Equal(t, 3, shape1.Rank())
	require.Equal(t, int64(4*3*2), shape1.Size())
	require.Equal(t, int64(4*4*3*2), shape1.Memory())
	require.Equal(t, int64(2), shape1.Dim(-1))
	require.Equal(t, int64(4), shape1.Dim(0))
	require.Equal(t, "(Float32)[4 3 2]", shape1.String())

	require.True(t, shape1.Equal(Make(Float32, 4, 3, 2)))
	require.False(t, shape1.Equal(Make(Float64, 4, 3, 2)))
	require.True(t, shape1.EqualDimensions(Make(Float64, 4, 3, 2)))

	clone := shape1.Clone()
	clone.Dimensions[0] = 7
	require.Equal(t, int64(4), shape1.Dimensions[0])
}

func TestShape_Dynamic(t *testing.T) {
	shape := Make(Int8, 2, DynamicDim, 3)
	require.True(t, shape.Ok())
	require.True(t, shape.IsDynamic())
	require.Equal(t, DynamicDim, shape.Size())
	require.Equal(t, DynamicDim, shape.Memory())

	require.False(t, Make(Int8, 2, 3).IsDynamic())

	require.Panics(t, func() { Make(Int8, 0) })
	require.Panics(t, func() { Make(Int8, -2) })
	require.Panics(t, func() { shape.Dim(3) })
}
