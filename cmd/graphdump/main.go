// graphdump prints the tensor-graph interfaces of a SPIR-V module: per graph
// entry point, its input and output tensors with shapes, native formats and
// descriptor bindings, plus the module's graph constants.
//
// Usage: graphdump [-rounding=single|inexact|double] [-constants] module.spv
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/tensorvk/tensorvk/compute"
	"github.com/tensorvk/tensorvk/graphpass"
	"github.com/tensorvk/tensorvk/spirv"
	"github.com/tensorvk/tensorvk/types/shapes"
)

var (
	flagRounding = flag.String("rounding", "single", "Narrowing policy the module was compiled under: "+
		"one of \"single\", \"inexact\" or \"double\". Reported as-is; graphdump performs no narrowing.")
	flagConstants = flag.Bool("constants", false, "Also list the module's graph constants.")
)

var roundingModes = map[string]graphpass.RoundingMode{
	"single":  graphpass.SingleRound,
	"inexact": graphpass.InexactRound,
	"double":  graphpass.DoubleRound,
}

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		klog.Errorf("graphdump takes exactly one SPIR-V module file. See 'graphdump -help'.")
		os.Exit(1)
	}
	rounding, ok := roundingModes[*flagRounding]
	if !ok {
		klog.Errorf("Unknown -rounding=%q, want \"single\", \"inexact\" or \"double\".", *flagRounding)
		os.Exit(1)
	}

	module := must.M1(spirv.DecodeBytes(must.M1(os.ReadFile(args[0]))))
	pipeline := compute.NewGraphPipeline(&compute.Device{})
	pass := graphpass.New(module, pipeline, graphpass.HandlerFunc(func(*graphpass.Graph) error {
		return nil
	}), rounding)
	if err := pass.Process(); err != nil {
		klog.Errorf("Failed to lower %q: %+v", args[0], err)
		os.Exit(1)
	}

	for _, graph := range pipeline.Graphs() {
		reportGraph(graph)
	}
	if *flagConstants {
		reportConstants(module, pipeline)
	}
}

func reportGraph(graph *compute.GraphInfo) {
	fmt.Printf("Graph %q (id=%d):\n", graph.Name, graph.ID)
	table := newPlainTable(true)
	table.Headers("Tensor", "Direction", "Shape", "Format", "Set", "Binding", "Memory")
	for _, tensor := range graph.Inputs {
		table.Row(tensorRow(tensor, "input")...)
	}
	for _, tensor := range graph.Outputs {
		table.Row(tensorRow(tensor, "output")...)
	}
	fmt.Println(table.Render())
}

func reportConstants(module *spirv.Module, pipeline *compute.GraphPipeline) {
	insts := module.GraphConstants()
	if len(insts) == 0 {
		fmt.Println("No graph constants.")
		return
	}
	fmt.Println("Graph constants:")
	table := newPlainTable(true)
	table.Headers("Constant Id", "Tensor", "Shape", "Format", "Memory")
	for _, inst := range insts {
		constantID := inst.Operand(0).AsLiteral()
		tensor := pipeline.Constant(constantID)
		table.Row(strconv.FormatUint(uint64(constantID), 10), tensor.Name,
			tensor.Shape.String(), tensor.Format.String(), memoryString(tensor.Shape))
	}
	fmt.Println(table.Render())
}

func tensorRow(tensor *compute.TensorDescriptor, direction string) []string {
	return []string{
		tensor.Name,
		direction,
		tensor.Shape.String(),
		tensor.Format.String(),
		strconv.FormatUint(tensor.Set, 10),
		strconv.FormatUint(tensor.Binding, 10),
		memoryString(tensor.Shape),
	}
}

func memoryString(shape shapes.Shape) string {
	memory := shape.Memory()
	if memory == shapes.DynamicDim {
		return "dynamic"
	}
	return humanize.Bytes(uint64(memory))
}
