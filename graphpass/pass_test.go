package graphpass

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tensorvk/tensorvk/compute"
	"github.com/tensorvk/tensorvk/spirv"
)

// buildConvModule assembles a module with one graph constant (the kernel)
// and one graph with two inputs and one output, fully decorated.
func buildConvModule() (*spirv.Module, []uint32) {
	m := spirv.NewModule()
	f32 := m.AddTypeFloat(32)

	kernelType := m.AddTypeTensor(f32, addShapeConstant(m, 3, 3))
	kernel := m.AddGraphConstant(kernelType, 7)

	inType := m.AddTypeTensor(f32, addShapeConstant(m, 1, 16, 16))
	outType := m.AddTypeTensor(f32, addShapeConstant(m, 1, 14, 14))
	graphType := m.AddTypeGraph(2, inType, inType, outType)
	graph := m.AddGraph(graphType)

	ptrIn := m.AddTypePointer(spirv.StorageClassUniformConstant, inType)
	ptrOut := m.AddTypePointer(spirv.StorageClassUniformConstant, outType)
	in0 := m.AddVariable(ptrIn)
	in1 := m.AddVariable(ptrIn)
	out0 := m.AddVariable(ptrOut)
	for i, v := range []uint32{in0, in1, out0} {
		m.Decorate(v, spirv.DecorationDescriptorSet, 0)
		m.Decorate(v, spirv.DecorationBinding, uint32(i))
	}
	m.AddDebugName(out0, "logits")
	m.AddGraphEntryPoint(graph, "conv2d", in0, in1, out0)
	return m, []uint32{kernel, in0, in1, out0}
}

func TestPass_Process(t *testing.T) {
	m, ids := buildConvModule()
	pipeline := compute.NewGraphPipeline(&compute.Device{})

	var handled []*Graph
	handler := HandlerFunc(func(g *Graph) error {
		handled = append(handled, g)
		return nil
	})
	p := New(m, pipeline, handler, DoubleRound)
	require.Equal(t, DoubleRound, p.Rounding())
	require.NoError(t, p.Process())

	// The graph constant was primed before any graph was lowered.
	kernel := pipeline.Constant(7)
	require.NotNil(t, kernel)
	require.Equal(t, []int64{3, 3}, kernel.Shape.Dimensions)

	require.Len(t, handled, 1)
	graph := handled[0]
	require.Equal(t, "conv2d", graph.Name)
	require.Len(t, graph.Inputs, 2)
	require.Len(t, graph.Outputs, 1)

	require.Equal(t, uint64(0), graph.Inputs[0].Binding)
	require.Equal(t, uint64(1), graph.Inputs[1].Binding)
	require.Equal(t, uint64(2), graph.Outputs[0].Binding)
	require.Equal(t, "logits", graph.Outputs[0].Name)
	require.Equal(t, "conv2d_input_0", graph.Inputs[0].Name)

	// The pipeline saw the same shared descriptors the handler saw.
	require.Len(t, pipeline.Graphs(), 1)
	require.Same(t, graph.Inputs[0], pipeline.Graphs()[0].Inputs[0])

	// Re-resolving an interface tensor yields the cached descriptor.
	again, err := p.TensorOperand(spirv.IDOperand(ids[1]), 0)
	require.NoError(t, err)
	require.Same(t, graph.Inputs[0], again)
}

func TestPass_HandlerErrorAborts(t *testing.T) {
	m, _ := buildConvModule()
	pipeline := compute.NewGraphPipeline(&compute.Device{})
	boom := errors.New("unsupported op family")
	p := New(m, pipeline, HandlerFunc(func(*Graph) error { return boom }), SingleRound)

	err := p.Process()
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "conv2d")
}

func TestPass_MissingDecorationIsFatal(t *testing.T) {
	m := spirv.NewModule()
	f32 := m.AddTypeFloat(32)
	tensorType := m.AddTypeTensor(f32, addShapeConstant(m, 4))
	graphType := m.AddTypeGraph(1, tensorType, tensorType)
	graph := m.AddGraph(graphType)
	ptr := m.AddTypePointer(spirv.StorageClassUniformConstant, tensorType)
	in := m.AddVariable(ptr)
	out := m.AddVariable(ptr)
	m.Decorate(in, spirv.DecorationDescriptorSet, 0)
	m.Decorate(in, spirv.DecorationBinding, 0)
	// out is left undecorated.
	m.AddGraphEntryPoint(graph, "identity", in, out)

	pipeline := compute.NewGraphPipeline(&compute.Device{})
	var handled int
	p := New(m, pipeline, HandlerFunc(func(*Graph) error { handled++; return nil }), SingleRound)

	err := p.Process()
	require.ErrorIs(t, err, ErrMalformedModule)
	require.Zero(t, handled, "the handler never runs for a malformed module")
}

func TestPass_InterfaceArityMismatch(t *testing.T) {
	m := spirv.NewModule()
	f32 := m.AddTypeFloat(32)
	tensorType := m.AddTypeTensor(f32, addShapeConstant(m, 4))
	graphType := m.AddTypeGraph(1, tensorType, tensorType)
	graph := m.AddGraph(graphType)
	ptr := m.AddTypePointer(spirv.StorageClassUniformConstant, tensorType)
	in := m.AddVariable(ptr)
	m.Decorate(in, spirv.DecorationDescriptorSet, 0)
	m.Decorate(in, spirv.DecorationBinding, 0)
	m.AddGraphEntryPoint(graph, "broken", in) // graph type wants 2 interface vars

	p := New(m, compute.NewGraphPipeline(&compute.Device{}),
		HandlerFunc(func(*Graph) error { return nil }), SingleRound)
	err := p.Process()
	require.ErrorIs(t, err, ErrMalformedModule)
	require.ErrorContains(t, err, "broken")
}
