// Package graphpass lowers the tensor-graph entry points of a SPIR-V module
// into descriptors a graph pipeline can dispatch: it decodes the module's
// constants (including splat and null tensor encodings), resolves tensor
// types to shapes and native formats, and hands each graph to a pluggable
// Handler for operation-specific lowering.
//
// A Pass runs synchronously and single-threaded over one module. Any decode
// or resolve failure aborts the whole run: a module is either fully lowered
// or rejected, never partially lowered.
package graphpass

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/tensorvk/tensorvk/compute"
	"github.com/tensorvk/tensorvk/spirv"
)

// Handler lowers one graph after the pass has resolved its interface. This
// is the only behavior that varies across concrete passes; each supported
// graph operation family implements it once.
type Handler interface {
	HandleGraph(graph *Graph) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(graph *Graph) error

// HandleGraph calls f.
func (f HandlerFunc) HandleGraph(graph *Graph) error { return f(graph) }

// Graph is one resolved graph entry point: identity, debug name, and the
// interface tensors in declaration order. It lives for the duration of the
// handler call; handlers that need it longer copy what they keep.
type Graph struct {
	ID         uint32
	Name       string
	EntryPoint *spirv.Instruction
	Inputs     []*compute.TensorDescriptor
	Outputs    []*compute.TensorDescriptor
}

// Pass drives one lowering run over a module. Each Pass owns its descriptor
// cache; concurrent passes over different modules need separate instances.
type Pass struct {
	module   *spirv.Module
	pipeline *compute.GraphPipeline
	handler  Handler
	rounding RoundingMode
	tensors  map[uint32]*[tensorVariantSlots]*compute.TensorDescriptor
}

// New returns a Pass lowering module into pipeline, delegating per-graph
// lowering to handler. The rounding mode is the module's narrowing policy;
// there is no default.
func New(module *spirv.Module, pipeline *compute.GraphPipeline, handler Handler, rounding RoundingMode) *Pass {
	return &Pass{
		module:   module,
		pipeline: pipeline,
		handler:  handler,
		rounding: rounding,
		tensors:  make(map[uint32]*[tensorVariantSlots]*compute.TensorDescriptor),
	}
}

// Module returns the module under lowering.
func (p *Pass) Module() *spirv.Module { return p.module }

// Pipeline returns the pipeline being populated.
func (p *Pass) Pipeline() *compute.GraphPipeline { return p.pipeline }

// Rounding returns the narrowing policy the module was compiled under.
// Callers performing additional narrowing apply it; the pass itself never
// narrows.
func (p *Pass) Rounding() RoundingMode { return p.rounding }

// Process runs the pass: graph constants are resolved once for the whole
// module, then every graph entry point is lowered in declaration order. The
// first failure aborts the run.
func (p *Pass) Process() error {
	if err := p.resolveGraphConstants(); err != nil {
		return errors.WithMessage(err, "resolving graph constants")
	}
	if err := p.resolveGraphs(); err != nil {
		return err
	}
	return nil
}

// resolveGraphConstants primes a composite tensor for every graph constant
// and registers it with the pipeline under the constant's runtime id.
func (p *Pass) resolveGraphConstants() error {
	for _, inst := range p.module.GraphConstants() {
		descriptor, err := p.GetOrMakeCompositeTensor(inst.ResultID)
		if err != nil {
			return err
		}
		graphConstantID := inst.Operand(0).AsLiteral()
		p.pipeline.SetConstant(graphConstantID, descriptor)
		klog.V(2).Infof("graphpass: graph constant %d -> %s", graphConstantID, descriptor)
	}
	return nil
}

func (p *Pass) resolveGraphs() error {
	for _, entryPoint := range p.module.GraphEntryPoints() {
		graph, err := p.resolveInterface(entryPoint)
		if err != nil {
			return err
		}
		klog.V(2).Infof("graphpass: lowering graph %q (%d inputs, %d outputs)",
			graph.Name, len(graph.Inputs), len(graph.Outputs))
		p.pipeline.AddGraph(&compute.GraphInfo{
			ID:      graph.ID,
			Name:    graph.Name,
			Inputs:  graph.Inputs,
			Outputs: graph.Outputs,
		})
		if err := p.handler.HandleGraph(graph); err != nil {
			return errors.WithMessagef(err, "lowering graph %q", graph.Name)
		}
	}
	return nil
}

// resolveInterface reads a graph entry point: the graph's type declares how
// many of the interface variables are inputs; the rest are outputs, both in
// declaration order. Every interface tensor resolves with its descriptor
// set/binding and debug name.
func (p *Pass) resolveInterface(entryPoint *spirv.Instruction) (*Graph, error) {
	graphID := entryPoint.Operand(0).AsID()
	name := entryPoint.Operand(1).AsString()

	graphDef := p.module.Def(graphID)
	if graphDef == nil {
		return nil, errors.Wrapf(ErrMalformedModule, "entry point %q references undeclared graph %d", name, graphID)
	}
	graphType, ok := p.module.Type(graphDef.TypeID).(*spirv.GraphType)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedModule, "graph %d of entry point %q has no graph type", graphID, name)
	}

	interfaceCount := entryPoint.NumOperands() - 2
	if interfaceCount != len(graphType.IOTypeIDs) {
		return nil, errors.Wrapf(ErrMalformedModule,
			"entry point %q declares %d interface variables, graph type has %d", name, interfaceCount, len(graphType.IOTypeIDs))
	}

	graph := &Graph{ID: graphID, Name: name, EntryPoint: entryPoint}
	numInputs := int(graphType.NumInputs)
	for i := 0; i < interfaceCount; i++ {
		operand := entryPoint.Operand(2 + i)
		isInput := i < numInputs
		slot := 1
		defaultName := fmt.Sprintf("%s_output_%d", name, i-numInputs)
		if isInput {
			slot = 0
			defaultName = fmt.Sprintf("%s_input_%d", name, i)
		}
		_, _, descriptor, err := p.TensorByDecoration(operand, slot)
		if err != nil {
			return nil, errors.WithMessagef(err, "resolving interface tensor %d of graph %q", i, name)
		}
		if descriptor.Name == defaultTensorName(operand.AsID()) {
			descriptor.Name = p.debugName(operand.AsID(), defaultName)
		}
		if isInput {
			graph.Inputs = append(graph.Inputs, descriptor)
		} else {
			graph.Outputs = append(graph.Outputs, descriptor)
		}
	}
	return graph, nil
}
