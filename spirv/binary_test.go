package spirv

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeInst(op Opcode, body ...uint32) []uint32 {
	return append([]uint32{uint32(len(body)+1)<<16 | uint32(op)}, body...)
}

func encodeStr(s string) []uint32 {
	data := append([]byte(s), 0)
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	words := make([]uint32, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		words = append(words, uint32(data[i])|uint32(data[i+1])<<8|uint32(data[i+2])<<16|uint32(data[i+3])<<24)
	}
	return words
}

func encodeModule(bound uint32, instructions ...[]uint32) []uint32 {
	words := []uint32{MagicNumber, 0x00010600, 0, bound, 0}
	for _, inst := range instructions {
		words = append(words, inst...)
	}
	return words
}

func TestDecode(t *testing.T) {
	// ids: 1=i32, 2=rank const, 3=shape tensor type, 4=shape const,
	// 5=tensor type, 6=graph type, 7=graph, 8=variable pointer, 9=variable.
	words := encodeModule(10,
		encodeInst(OpTypeInt, 1, 32, 1),
		encodeInst(OpConstant, 1, 2, 2),
		encodeInst(OpTypeTensorARM, 3, 1),
		encodeInst(OpConstantComposite, 3, 4, 2, 2),
		encodeInst(OpTypeTensorARM, 5, 1, 2, 4),
		encodeInst(OpTypeGraphARM, 6, 1, 5, 5),
		encodeInst(OpGraphARM, 7, 6),
		encodeInst(OpTypePointer, 8, uint32(StorageClassUniformConstant), 5),
		encodeInst(OpVariable, 8, 9, uint32(StorageClassUniformConstant)),
		encodeInst(OpGraphEntryPointARM, append(append([]uint32{7}, encodeStr("main")...), 9, 9)...),
		encodeInst(OpDecorate, 9, uint32(DecorationBinding), 3),
		encodeInst(OpName, append([]uint32{9}, encodeStr("act")...)...),
	)

	m, err := Decode(words)
	require.NoError(t, err)

	intType, ok := m.Type(1).(*IntType)
	require.True(t, ok)
	require.Equal(t, uint32(32), intType.Width)
	require.True(t, intType.Signed)

	c, ok := m.Constant(2).(*IntConstant)
	require.True(t, ok)
	require.Equal(t, uint64(2), c.ZeroExtended())

	shape, ok := m.Constant(4).(*CompositeConstant)
	require.True(t, ok)
	require.Len(t, shape.Components, 2)

	tensor, ok := m.Type(5).(*TensorType)
	require.True(t, ok)
	require.Equal(t, uint32(1), tensor.ElementID)
	require.Equal(t, uint32(4), tensor.ShapeID)

	graph, ok := m.Type(6).(*GraphType)
	require.True(t, ok)
	require.Equal(t, uint32(1), graph.NumInputs)
	require.Equal(t, []uint32{5, 5}, graph.IOTypeIDs)

	entryPoints := m.GraphEntryPoints()
	require.Len(t, entryPoints, 1)
	require.Equal(t, uint32(7), entryPoints[0].Operand(0).AsID())
	require.Equal(t, "main", entryPoints[0].Operand(1).AsString())
	require.Equal(t, 4, entryPoints[0].NumOperands())

	args, ok := m.Decoration(9, DecorationBinding)
	require.True(t, ok)
	require.Equal(t, []uint32{3}, args)

	name, ok := m.Name(9)
	require.True(t, ok)
	require.Equal(t, "act", name)
}

func TestDecode_DebugNames(t *testing.T) {
	words := encodeModule(20,
		encodeInst(OpExtInstImport, append([]uint32{10}, encodeStr(DebugInfoExtName)...)...),
		encodeInst(OpTypeInt, 1, 32, 0),
		encodeInst(OpConstant, 1, 2, 99),
		encodeInst(OpExtInst, append([]uint32{0, 11, 10, DebugInfoNameInst, 2}, encodeStr("bias")...)...),
	)

	m, err := Decode(words)
	require.NoError(t, err)

	inst := m.DebugNameInst(2)
	require.NotNil(t, inst)
	require.Equal(t, "bias", inst.Operand(3).AsString())
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]uint32{MagicNumber, 0, 0})
	require.ErrorIs(t, err, ErrInvalidBinary)

	_, err = Decode(encodeModule(5, []uint32{99 << 16}))
	require.ErrorIs(t, err, ErrInvalidBinary)

	words := encodeModule(5, encodeInst(OpTypeInt, 1, 32))
	_, err = Decode(words)
	require.ErrorIs(t, err, ErrInvalidBinary)
}

func TestDecodeBytes_Endianness(t *testing.T) {
	words := encodeModule(3, encodeInst(OpTypeBool, 1))

	le := make([]byte, 0, len(words)*4)
	be := make([]byte, 0, len(words)*4)
	for _, w := range words {
		le = append(le, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
		s := bits.ReverseBytes32(w)
		be = append(be, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
	}

	for _, data := range [][]byte{le, be} {
		m, err := DecodeBytes(data)
		require.NoError(t, err)
		_, ok := m.Type(1).(*BoolType)
		require.True(t, ok)
	}

	_, err := DecodeBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidBinary)
}
