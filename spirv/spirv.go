// Package spirv holds the in-memory representation of a SPIR-V module that
// the graph lowering pass introspects: instructions with typed operands, a
// constant pool, a type registry, and decoration/debug-name lookup.
//
// Only the surface the lowering pass consumes is modeled. Modules are either
// decoded from a SPIR-V binary word stream with Decode, or assembled through
// the builder methods on Module, which is also how tests construct fixtures.
package spirv

// Opcode is a SPIR-V opcode.
type Opcode uint16

// Core opcodes used by the pass.
const (
	OpNop           Opcode = 0
	OpName          Opcode = 5
	OpExtInstImport Opcode = 11
	OpExtInst       Opcode = 12
	OpEntryPoint    Opcode = 15
	OpCapability    Opcode = 17
	OpTypeVoid      Opcode = 19
	OpTypeBool      Opcode = 20
	OpTypeInt       Opcode = 21
	OpTypeFloat     Opcode = 22
	OpTypeVector    Opcode = 23
	OpTypeArray     Opcode = 28
	OpTypePointer   Opcode = 32
	OpConstantTrue  Opcode = 41
	OpConstantFalse Opcode = 42
	OpConstant      Opcode = 43
	OpConstantComposite Opcode = 44
	OpConstantNull  Opcode = 46
	OpSpecConstantTrue      Opcode = 48
	OpSpecConstantFalse     Opcode = 49
	OpSpecConstant          Opcode = 50
	OpSpecConstantComposite Opcode = 51
	OpVariable      Opcode = 59
	OpDecorate      Opcode = 71
)

// SPV_ARM_tensors.
const (
	OpTypeTensorARM Opcode = 4163
)

// SPV_ARM_graph.
const (
	OpTypeGraphARM       Opcode = 4180
	OpGraphConstantARM   Opcode = 4181
	OpGraphEntryPointARM Opcode = 4182
	OpGraphARM           Opcode = 4183
	OpGraphInputARM      Opcode = 4184
	OpGraphSetOutputARM  Opcode = 4185
	OpGraphEndARM        Opcode = 4186
)

// SPV_EXT_replicated_composites.
const (
	OpConstantCompositeReplicateEXT     Opcode = 4441
	OpSpecConstantCompositeReplicateEXT Opcode = 4442
	OpCompositeConstructReplicateEXT    Opcode = 4443
)

// IsReplicate reports whether the opcode is a broadcast ("splat") composite
// construction, encoding one logical component replicated across the result.
func (op Opcode) IsReplicate() bool {
	return op == OpConstantCompositeReplicateEXT || op == OpSpecConstantCompositeReplicateEXT
}

// Decoration is a SPIR-V decoration kind.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
)

// StorageClass is a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassStorageBuffer   StorageClass = 12
)

// DebugInfoExtName is the extended instruction set the pass checks for
// per-id debug names.
const DebugInfoExtName = "NonSemantic.Shader.DebugInfo.100"

// DebugInfoNameInst is the instruction number, within the debug-info set,
// that attaches a name literal to an id.
const DebugInfoNameInst = 17
