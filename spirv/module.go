package spirv

import (
	"github.com/gomlx/exceptions"
)

// OperandKind discriminates the payload of an Operand.
type OperandKind uint8

const (
	// OperandID references another result id.
	OperandID OperandKind = iota
	// OperandLiteral is a literal word.
	OperandLiteral
	// OperandString is a literal string.
	OperandString
)

// Operand is one instruction operand.
type Operand struct {
	Kind OperandKind
	Word uint32
	Str  string
}

// IDOperand returns an operand referencing the given id.
func IDOperand(id uint32) Operand { return Operand{Kind: OperandID, Word: id} }

// LiteralOperand returns a literal word operand.
func LiteralOperand(word uint32) Operand { return Operand{Kind: OperandLiteral, Word: word} }

// StringOperand returns a literal string operand.
func StringOperand(s string) Operand { return Operand{Kind: OperandString, Str: s} }

// AsID returns the referenced id. Panics if the operand is not an id.
func (o Operand) AsID() uint32 {
	if o.Kind != OperandID {
		exceptions.Panicf("spirv: operand is not an id reference (kind=%d)", o.Kind)
	}
	return o.Word
}

// AsLiteral returns the literal word. Panics if the operand is not a literal.
func (o Operand) AsLiteral() uint32 {
	if o.Kind != OperandLiteral {
		exceptions.Panicf("spirv: operand is not a literal (kind=%d)", o.Kind)
	}
	return o.Word
}

// AsString returns the literal string. Panics if the operand is not a string.
func (o Operand) AsString() string {
	if o.Kind != OperandString {
		exceptions.Panicf("spirv: operand is not a string literal (kind=%d)", o.Kind)
	}
	return o.Str
}

// Instruction is one instruction of the module.
type Instruction struct {
	Op       Opcode
	TypeID   uint32 // 0 if the instruction has no result type
	ResultID uint32 // 0 if the instruction has no result
	Operands []Operand
}

// Operand returns the i-th operand.
func (inst *Instruction) Operand(i int) Operand { return inst.Operands[i] }

// NumOperands returns the operand count.
func (inst *Instruction) NumOperands() int { return len(inst.Operands) }

// Module is an in-memory SPIR-V module: the instruction stream in declaration
// order plus the derived indices the lowering pass consumes (definitions,
// types, constant pool, decorations, names). Modules are assembled with the
// Add* builder methods, which keep the indices current.
//
// A Module is not safe for concurrent mutation; the pass reads it exclusively.
type Module struct {
	instructions []*Instruction
	defs         map[uint32]*Instruction
	types        map[uint32]Type
	constants    map[uint32]Constant
	decorations  map[uint32]map[Decoration][]uint32
	names        map[uint32]string
	debugNames   map[uint32]*Instruction
	debugSetID   uint32
	nextID       uint32
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{
		defs:        make(map[uint32]*Instruction),
		types:       make(map[uint32]Type),
		constants:   make(map[uint32]Constant),
		decorations: make(map[uint32]map[Decoration][]uint32),
		names:       make(map[uint32]string),
		debugNames:  make(map[uint32]*Instruction),
		nextID:      1,
	}
}

// Instructions returns the instruction stream in declaration order.
func (m *Module) Instructions() []*Instruction { return m.instructions }

// Def returns the defining instruction of an id, or nil.
func (m *Module) Def(id uint32) *Instruction { return m.defs[id] }

// Type returns the type declared by id, or nil.
func (m *Module) Type(id uint32) Type { return m.types[id] }

// TypeOf returns the declared type of a result id, or nil.
func (m *Module) TypeOf(id uint32) Type {
	inst := m.defs[id]
	if inst == nil || inst.TypeID == 0 {
		return nil
	}
	return m.types[inst.TypeID]
}

// Constant returns the constant-pool entry for id, or nil.
func (m *Module) Constant(id uint32) Constant { return m.constants[id] }

// Decoration returns the operands of the given decoration on id.
func (m *Module) Decoration(id uint32, d Decoration) ([]uint32, bool) {
	args, ok := m.decorations[id][d]
	return args, ok
}

// Name returns the OpName debug name of id, if any.
func (m *Module) Name(id uint32) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// DebugNameInst returns the non-semantic debug-info instruction naming id,
// or nil if the module carries none for it.
func (m *Module) DebugNameInst(id uint32) *Instruction { return m.debugNames[id] }

// GraphEntryPoints returns every OpGraphEntryPointARM in declaration order.
func (m *Module) GraphEntryPoints() []*Instruction {
	return m.collect(OpGraphEntryPointARM)
}

// GraphConstants returns every OpGraphConstantARM in declaration order.
func (m *Module) GraphConstants() []*Instruction {
	return m.collect(OpGraphConstantARM)
}

func (m *Module) collect(op Opcode) []*Instruction {
	var out []*Instruction
	for _, inst := range m.instructions {
		if inst.Op == op {
			out = append(out, inst)
		}
	}
	return out
}

func (m *Module) allocID() uint32 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *Module) append(inst *Instruction) *Instruction {
	m.instructions = append(m.instructions, inst)
	if inst.ResultID != 0 {
		m.defs[inst.ResultID] = inst
	}
	return inst
}

func (m *Module) registerType(inst *Instruction, t Type) uint32 {
	m.append(inst)
	m.types[inst.ResultID] = t
	return inst.ResultID
}

func (m *Module) registerConstant(inst *Instruction, c Constant) uint32 {
	m.append(inst)
	m.constants[inst.ResultID] = c
	return inst.ResultID
}

// AddTypeBool declares OpTypeBool.
func (m *Module) AddTypeBool() uint32 {
	inst := &Instruction{Op: OpTypeBool, ResultID: m.allocID()}
	return m.registerType(inst, &BoolType{})
}

// AddTypeInt declares OpTypeInt with the given width and signedness.
func (m *Module) AddTypeInt(width uint32, signed bool) uint32 {
	signedness := uint32(0)
	if signed {
		signedness = 1
	}
	inst := &Instruction{
		Op:       OpTypeInt,
		ResultID: m.allocID(),
		Operands: []Operand{LiteralOperand(width), LiteralOperand(signedness)},
	}
	return m.registerType(inst, &IntType{Width: width, Signed: signed})
}

// AddTypeFloat declares OpTypeFloat with the given width.
func (m *Module) AddTypeFloat(width uint32) uint32 {
	inst := &Instruction{
		Op:       OpTypeFloat,
		ResultID: m.allocID(),
		Operands: []Operand{LiteralOperand(width)},
	}
	return m.registerType(inst, &FloatType{Width: width})
}

// AddTypeTensor declares OpTypeTensorARM. shapeConst is the id of the shape
// constant, or 0 when the type declares no static shape (as the type of a
// shape constant itself does).
func (m *Module) AddTypeTensor(elementType, shapeConst uint32) uint32 {
	element := m.types[elementType]
	if element == nil {
		exceptions.Panicf("spirv: AddTypeTensor: element type %d not declared", elementType)
	}
	operands := []Operand{IDOperand(elementType)}
	if shapeConst != 0 {
		operands = append(operands, IDOperand(shapeConst))
	}
	inst := &Instruction{Op: OpTypeTensorARM, ResultID: m.allocID(), Operands: operands}
	return m.registerType(inst, &TensorType{ElementID: elementType, Element: element, ShapeID: shapeConst})
}

// AddTypeGraph declares OpTypeGraphARM: numInputs input types followed by the
// output types, in declaration order.
func (m *Module) AddTypeGraph(numInputs uint32, ioTypes ...uint32) uint32 {
	if int(numInputs) > len(ioTypes) {
		exceptions.Panicf("spirv: AddTypeGraph: %d inputs declared but only %d io types given", numInputs, len(ioTypes))
	}
	operands := []Operand{LiteralOperand(numInputs)}
	for _, t := range ioTypes {
		operands = append(operands, IDOperand(t))
	}
	inst := &Instruction{Op: OpTypeGraphARM, ResultID: m.allocID(), Operands: operands}
	return m.registerType(inst, &GraphType{NumInputs: numInputs, IOTypeIDs: append([]uint32(nil), ioTypes...)})
}

// AddTypePointer declares OpTypePointer.
func (m *Module) AddTypePointer(storageClass StorageClass, pointee uint32) uint32 {
	inst := &Instruction{
		Op:       OpTypePointer,
		ResultID: m.allocID(),
		Operands: []Operand{LiteralOperand(uint32(storageClass)), IDOperand(pointee)},
	}
	return m.registerType(inst, &PointerType{StorageClass: storageClass, PointeeID: pointee})
}

// AddIntConstant declares OpConstant of an integer type. value holds the
// literal bits; widths above 32 take two words.
func (m *Module) AddIntConstant(typeID uint32, value uint64) uint32 {
	intType, ok := m.types[typeID].(*IntType)
	if !ok {
		exceptions.Panicf("spirv: AddIntConstant: type %d is not an integer type", typeID)
	}
	words := encodeWords(value, intType.Width)
	inst := &Instruction{Op: OpConstant, TypeID: typeID, ResultID: m.allocID(), Operands: literalOperands(words)}
	return m.registerConstant(inst, &IntConstant{Type: intType, Words: words})
}

// AddFloatConstant declares OpConstant of a float type. bits holds the raw
// IEEE-754 encoding at the type's width.
func (m *Module) AddFloatConstant(typeID uint32, bits uint64) uint32 {
	floatType, ok := m.types[typeID].(*FloatType)
	if !ok {
		exceptions.Panicf("spirv: AddFloatConstant: type %d is not a float type", typeID)
	}
	words := encodeWords(bits, floatType.Width)
	inst := &Instruction{Op: OpConstant, TypeID: typeID, ResultID: m.allocID(), Operands: literalOperands(words)}
	return m.registerConstant(inst, &FloatConstant{Type: floatType, Words: words})
}

// AddBoolConstant declares OpConstantTrue or OpConstantFalse.
func (m *Module) AddBoolConstant(typeID uint32, value bool) uint32 {
	boolType, ok := m.types[typeID].(*BoolType)
	if !ok {
		exceptions.Panicf("spirv: AddBoolConstant: type %d is not the bool type", typeID)
	}
	op := OpConstantFalse
	if value {
		op = OpConstantTrue
	}
	inst := &Instruction{Op: op, TypeID: typeID, ResultID: m.allocID()}
	return m.registerConstant(inst, &BoolConstant{Type: boolType, Value: value})
}

// AddCompositeConstant declares OpConstantComposite from component constants.
func (m *Module) AddCompositeConstant(typeID uint32, components ...uint32) uint32 {
	return m.addComposite(OpConstantComposite, typeID, components...)
}

// AddReplicateConstant declares OpConstantCompositeReplicateEXT: a single
// component broadcast across the whole composite.
func (m *Module) AddReplicateConstant(typeID, component uint32) uint32 {
	return m.addComposite(OpConstantCompositeReplicateEXT, typeID, component)
}

func (m *Module) addComposite(op Opcode, typeID uint32, components ...uint32) uint32 {
	t := m.types[typeID]
	if t == nil {
		exceptions.Panicf("spirv: composite constant: type %d not declared", typeID)
	}
	resolved := make([]Constant, len(components))
	operands := make([]Operand, len(components))
	for i, id := range components {
		c := m.constants[id]
		if c == nil {
			exceptions.Panicf("spirv: composite constant: component %d is not a constant", id)
		}
		resolved[i] = c
		operands[i] = IDOperand(id)
	}
	inst := &Instruction{Op: op, TypeID: typeID, ResultID: m.allocID(), Operands: operands}
	return m.registerConstant(inst, &CompositeConstant{Type: t, Components: resolved})
}

// AddNullConstant declares OpConstantNull.
func (m *Module) AddNullConstant(typeID uint32) uint32 {
	t := m.types[typeID]
	if t == nil {
		exceptions.Panicf("spirv: AddNullConstant: type %d not declared", typeID)
	}
	inst := &Instruction{Op: OpConstantNull, TypeID: typeID, ResultID: m.allocID()}
	return m.registerConstant(inst, &NullConstant{Type: t})
}

// AddVariable declares OpVariable of a pointer type.
func (m *Module) AddVariable(ptrType uint32) uint32 {
	pointer, ok := m.types[ptrType].(*PointerType)
	if !ok {
		exceptions.Panicf("spirv: AddVariable: type %d is not a pointer type", ptrType)
	}
	inst := &Instruction{
		Op:       OpVariable,
		TypeID:   ptrType,
		ResultID: m.allocID(),
		Operands: []Operand{LiteralOperand(uint32(pointer.StorageClass))},
	}
	m.append(inst)
	return inst.ResultID
}

// AddGraph declares OpGraphARM of a graph type.
func (m *Module) AddGraph(graphType uint32) uint32 {
	if _, ok := m.types[graphType].(*GraphType); !ok {
		exceptions.Panicf("spirv: AddGraph: type %d is not a graph type", graphType)
	}
	inst := &Instruction{Op: OpGraphARM, TypeID: graphType, ResultID: m.allocID()}
	m.append(inst)
	return inst.ResultID
}

// AddGraphEntryPoint declares OpGraphEntryPointARM: the graph, its name and
// the interface variables in declaration order.
func (m *Module) AddGraphEntryPoint(graphID uint32, name string, interfaceIDs ...uint32) *Instruction {
	operands := []Operand{IDOperand(graphID), StringOperand(name)}
	for _, id := range interfaceIDs {
		operands = append(operands, IDOperand(id))
	}
	return m.append(&Instruction{Op: OpGraphEntryPointARM, Operands: operands})
}

// AddGraphConstant declares OpGraphConstantARM: a tensor-typed result bound
// at runtime through the literal graph-constant id.
func (m *Module) AddGraphConstant(typeID uint32, graphConstantID uint32) uint32 {
	if _, ok := m.types[typeID].(*TensorType); !ok {
		exceptions.Panicf("spirv: AddGraphConstant: type %d is not a tensor type", typeID)
	}
	inst := &Instruction{
		Op:       OpGraphConstantARM,
		TypeID:   typeID,
		ResultID: m.allocID(),
		Operands: []Operand{LiteralOperand(graphConstantID)},
	}
	m.append(inst)
	return inst.ResultID
}

// Decorate attaches a decoration to an id.
func (m *Module) Decorate(id uint32, d Decoration, args ...uint32) {
	operands := []Operand{IDOperand(id), LiteralOperand(uint32(d))}
	for _, arg := range args {
		operands = append(operands, LiteralOperand(arg))
	}
	m.append(&Instruction{Op: OpDecorate, Operands: operands})
	decs := m.decorations[id]
	if decs == nil {
		decs = make(map[Decoration][]uint32)
		m.decorations[id] = decs
	}
	decs[d] = append([]uint32(nil), args...)
}

// SetName attaches an OpName debug name to an id.
func (m *Module) SetName(id uint32, name string) {
	m.append(&Instruction{Op: OpName, Operands: []Operand{IDOperand(id), StringOperand(name)}})
	m.names[id] = name
}

// AddDebugName attaches a non-semantic debug-info name to an id, importing
// the extended instruction set on first use.
func (m *Module) AddDebugName(target uint32, name string) *Instruction {
	if m.debugSetID == 0 {
		setInst := &Instruction{
			Op:       OpExtInstImport,
			ResultID: m.allocID(),
			Operands: []Operand{StringOperand(DebugInfoExtName)},
		}
		m.append(setInst)
		m.debugSetID = setInst.ResultID
	}
	inst := &Instruction{
		Op:       OpExtInst,
		ResultID: m.allocID(),
		Operands: []Operand{
			IDOperand(m.debugSetID),
			LiteralOperand(DebugInfoNameInst),
			IDOperand(target),
			StringOperand(name),
		},
	}
	m.append(inst)
	m.debugNames[target] = inst
	return inst
}

func encodeWords(value uint64, width uint32) []uint32 {
	if width > 32 {
		return []uint32{uint32(value), uint32(value >> 32)}
	}
	mask := uint64(1)<<width - 1
	return []uint32{uint32(value & mask)}
}

func literalOperands(words []uint32) []Operand {
	out := make([]Operand, len(words))
	for i, w := range words {
		out[i] = LiteralOperand(w)
	}
	return out
}
