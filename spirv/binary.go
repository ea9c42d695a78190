package spirv

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"
)

// MagicNumber is the first word of every SPIR-V binary.
const MagicNumber uint32 = 0x07230203

const headerWords = 5

// ErrInvalidBinary reports a malformed or truncated SPIR-V binary.
var ErrInvalidBinary = errors.New("invalid SPIR-V binary")

// DecodeBytes decodes a SPIR-V binary. Byte order is detected from the magic
// number; the stream length must be word aligned.
func DecodeBytes(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidBinary, "length %d is not word aligned", len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	if len(words) > 0 && words[0] == bits.ReverseBytes32(MagicNumber) {
		for i, w := range words {
			words[i] = bits.ReverseBytes32(w)
		}
	}
	return Decode(words)
}

// Decode decodes a SPIR-V word stream into a Module, indexing the
// declarations the lowering pass consumes (types, constants, decorations,
// names, graphs). Instructions outside that surface are retained verbatim
// with literal operands.
func Decode(words []uint32) (*Module, error) {
	if len(words) < headerWords {
		return nil, errors.Wrapf(ErrInvalidBinary, "header truncated at %d words", len(words))
	}
	if words[0] != MagicNumber {
		return nil, errors.Wrapf(ErrInvalidBinary, "bad magic number %#x", words[0])
	}

	m := NewModule()
	if bound := words[3]; bound > m.nextID {
		m.nextID = bound
	}

	rest := words[headerWords:]
	for offset := headerWords; len(rest) > 0; {
		head := rest[0]
		op := Opcode(head & 0xFFFF)
		count := int(head >> 16)
		if count == 0 || count > len(rest) {
			return nil, errors.Wrapf(ErrInvalidBinary, "instruction at word %d: word count %d overruns the stream", offset, count)
		}
		if err := m.decodeInstruction(op, rest[1:count]); err != nil {
			return nil, errors.WithMessagef(err, "instruction at word %d", offset)
		}
		rest = rest[count:]
		offset += count
	}
	return m, nil
}

func (m *Module) decodeInstruction(op Opcode, body []uint32) error {
	switch op {
	case OpTypeVoid:
		if len(body) != 1 {
			return badOperandCount(op, len(body))
		}
		m.registerType(&Instruction{Op: op, ResultID: body[0]}, &VoidType{})

	case OpTypeBool:
		if len(body) != 1 {
			return badOperandCount(op, len(body))
		}
		m.registerType(&Instruction{Op: op, ResultID: body[0]}, &BoolType{})

	case OpTypeInt:
		if len(body) != 3 {
			return badOperandCount(op, len(body))
		}
		m.registerType(&Instruction{
			Op:       op,
			ResultID: body[0],
			Operands: []Operand{LiteralOperand(body[1]), LiteralOperand(body[2])},
		}, &IntType{Width: body[1], Signed: body[2] != 0})

	case OpTypeFloat:
		// An optional trailing operand selects an alternate FP encoding.
		if len(body) != 2 && len(body) != 3 {
			return badOperandCount(op, len(body))
		}
		m.registerType(&Instruction{
			Op:       op,
			ResultID: body[0],
			Operands: literalOperands(body[1:]),
		}, &FloatType{Width: body[1]})

	case OpTypePointer:
		if len(body) != 3 {
			return badOperandCount(op, len(body))
		}
		m.registerType(&Instruction{
			Op:       op,
			ResultID: body[0],
			Operands: []Operand{LiteralOperand(body[1]), IDOperand(body[2])},
		}, &PointerType{StorageClass: StorageClass(body[1]), PointeeID: body[2]})

	case OpTypeTensorARM:
		// Element type, then optionally a rank constant, then optionally a
		// shape constant.
		if len(body) < 2 || len(body) > 4 {
			return badOperandCount(op, len(body))
		}
		element := m.types[body[1]]
		if element == nil {
			return errors.Wrapf(ErrInvalidBinary, "tensor type %d: element type %d not declared", body[0], body[1])
		}
		var shapeID uint32
		if len(body) == 4 {
			shapeID = body[3]
		}
		operands := make([]Operand, 0, 3)
		for _, w := range body[1:] {
			operands = append(operands, IDOperand(w))
		}
		m.registerType(&Instruction{Op: op, ResultID: body[0], Operands: operands},
			&TensorType{ElementID: body[1], Element: element, ShapeID: shapeID})

	case OpTypeGraphARM:
		if len(body) < 2 {
			return badOperandCount(op, len(body))
		}
		numInputs := body[1]
		ioTypes := body[2:]
		if int(numInputs) > len(ioTypes) {
			return errors.Wrapf(ErrInvalidBinary, "graph type %d declares %d inputs but only %d io types", body[0], numInputs, len(ioTypes))
		}
		operands := []Operand{LiteralOperand(numInputs)}
		for _, t := range ioTypes {
			operands = append(operands, IDOperand(t))
		}
		m.registerType(&Instruction{Op: op, ResultID: body[0], Operands: operands},
			&GraphType{NumInputs: numInputs, IOTypeIDs: append([]uint32(nil), ioTypes...)})

	case OpConstant, OpSpecConstant:
		if len(body) < 3 {
			return badOperandCount(op, len(body))
		}
		literal := body[2:]
		inst := &Instruction{Op: op, TypeID: body[0], ResultID: body[1], Operands: literalOperands(literal)}
		switch t := m.types[body[0]].(type) {
		case *IntType:
			m.registerConstant(inst, &IntConstant{Type: t, Words: literal})
		case *FloatType:
			m.registerConstant(inst, &FloatConstant{Type: t, Words: literal})
		default:
			return errors.Wrapf(ErrInvalidBinary, "constant %d: result type %d is not a scalar numeric type", body[1], body[0])
		}

	case OpConstantTrue, OpConstantFalse, OpSpecConstantTrue, OpSpecConstantFalse:
		if len(body) != 2 {
			return badOperandCount(op, len(body))
		}
		boolType, ok := m.types[body[0]].(*BoolType)
		if !ok {
			return errors.Wrapf(ErrInvalidBinary, "constant %d: result type %d is not the bool type", body[1], body[0])
		}
		value := op == OpConstantTrue || op == OpSpecConstantTrue
		m.registerConstant(&Instruction{Op: op, TypeID: body[0], ResultID: body[1]},
			&BoolConstant{Type: boolType, Value: value})

	case OpConstantComposite, OpSpecConstantComposite,
		OpConstantCompositeReplicateEXT, OpSpecConstantCompositeReplicateEXT:
		if len(body) < 2 {
			return badOperandCount(op, len(body))
		}
		t := m.types[body[0]]
		if t == nil {
			return errors.Wrapf(ErrInvalidBinary, "composite %d: result type %d not declared", body[1], body[0])
		}
		components := make([]Constant, len(body)-2)
		operands := make([]Operand, len(body)-2)
		for i, id := range body[2:] {
			c := m.constants[id]
			if c == nil {
				return errors.Wrapf(ErrInvalidBinary, "composite %d: component %d is not a constant", body[1], id)
			}
			components[i] = c
			operands[i] = IDOperand(id)
		}
		m.registerConstant(&Instruction{Op: op, TypeID: body[0], ResultID: body[1], Operands: operands},
			&CompositeConstant{Type: t, Components: components})

	case OpConstantNull:
		if len(body) != 2 {
			return badOperandCount(op, len(body))
		}
		t := m.types[body[0]]
		if t == nil {
			return errors.Wrapf(ErrInvalidBinary, "null constant %d: type %d not declared", body[1], body[0])
		}
		m.registerConstant(&Instruction{Op: op, TypeID: body[0], ResultID: body[1]}, &NullConstant{Type: t})

	case OpVariable:
		if len(body) != 3 && len(body) != 4 {
			return badOperandCount(op, len(body))
		}
		operands := []Operand{LiteralOperand(body[2])}
		if len(body) == 4 {
			operands = append(operands, IDOperand(body[3]))
		}
		m.append(&Instruction{Op: op, TypeID: body[0], ResultID: body[1], Operands: operands})

	case OpGraphARM:
		if len(body) != 2 {
			return badOperandCount(op, len(body))
		}
		m.append(&Instruction{Op: op, TypeID: body[0], ResultID: body[1]})

	case OpGraphConstantARM:
		if len(body) != 3 {
			return badOperandCount(op, len(body))
		}
		m.append(&Instruction{Op: op, TypeID: body[0], ResultID: body[1], Operands: []Operand{LiteralOperand(body[2])}})

	case OpGraphEntryPointARM:
		if len(body) < 2 {
			return badOperandCount(op, len(body))
		}
		name, consumed, err := decodeString(body[1:])
		if err != nil {
			return errors.WithMessage(err, "graph entry point name")
		}
		operands := []Operand{IDOperand(body[0]), StringOperand(name)}
		for _, id := range body[1+consumed:] {
			operands = append(operands, IDOperand(id))
		}
		m.append(&Instruction{Op: op, Operands: operands})

	case OpDecorate:
		if len(body) < 2 {
			return badOperandCount(op, len(body))
		}
		m.Decorate(body[0], Decoration(body[1]), body[2:]...)

	case OpName:
		if len(body) < 2 {
			return badOperandCount(op, len(body))
		}
		name, _, err := decodeString(body[1:])
		if err != nil {
			return errors.WithMessage(err, "debug name")
		}
		m.SetName(body[0], name)

	case OpExtInstImport:
		if len(body) < 2 {
			return badOperandCount(op, len(body))
		}
		name, _, err := decodeString(body[1:])
		if err != nil {
			return errors.WithMessage(err, "extended instruction set name")
		}
		m.append(&Instruction{Op: op, ResultID: body[0], Operands: []Operand{StringOperand(name)}})
		if name == DebugInfoExtName {
			m.debugSetID = body[0]
		}

	case OpExtInst:
		if len(body) < 4 {
			return badOperandCount(op, len(body))
		}
		set, instNumber := body[2], body[3]
		if set == m.debugSetID && m.debugSetID != 0 && instNumber == DebugInfoNameInst {
			if len(body) < 6 {
				return badOperandCount(op, len(body))
			}
			target := body[4]
			name, _, err := decodeString(body[5:])
			if err != nil {
				return errors.WithMessage(err, "debug info name")
			}
			inst := &Instruction{
				Op:       op,
				TypeID:   body[0],
				ResultID: body[1],
				Operands: []Operand{IDOperand(set), LiteralOperand(instNumber), IDOperand(target), StringOperand(name)},
			}
			m.append(inst)
			m.debugNames[target] = inst
			return nil
		}
		operands := []Operand{IDOperand(set), LiteralOperand(instNumber)}
		for _, w := range body[4:] {
			operands = append(operands, LiteralOperand(w))
		}
		m.append(&Instruction{Op: op, TypeID: body[0], ResultID: body[1], Operands: operands})

	default:
		// Outside the introspected surface; keep the raw words.
		m.append(&Instruction{Op: op, Operands: literalOperands(body)})
	}
	return nil
}

func badOperandCount(op Opcode, n int) error {
	return errors.Wrapf(ErrInvalidBinary, "opcode %d: unexpected operand count %d", op, n)
}

// decodeString reads a NUL-terminated UTF-8 literal packed little-endian into
// words, returning the string and the number of words it occupies.
func decodeString(words []uint32) (string, int, error) {
	var buf []byte
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return string(buf), i + 1, nil
			}
			buf = append(buf, b)
		}
	}
	return "", 0, errors.Wrap(ErrInvalidBinary, "unterminated string literal")
}
