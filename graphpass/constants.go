package graphpass

import (
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/tensorvk/tensorvk/spirv"
)

// Number constrains the scalar types a constant can be decoded into.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Composite constants are trees in a valid module; the cap only guards
// against a corrupted pool that loops back on itself.
const maxCompositeDepth = 64

// ConstScalar decodes a single constant-pool entry into T.
//
// Integer constants: signed values are sign-extended; unsigned values are
// zero-extended and then reinterpreted through the fixed-width signed type
// matching the declared width, unless unsigned is set, in which case the
// zero-extended value is used directly. The two intents differ: a caller
// reading raw bits wants the reinterpretation, a caller reading a count wants
// the unsigned value.
//
// Float constants use the stored bits exactly: width 16 reinterprets the low
// half-word as an IEEE-754 half, widths 32 and 64 use the stored value.
// Bool constants decode to 0 or 1.
//
// Any other width or constant kind fails with ErrUnsupportedEncoding.
func ConstScalar[T Number](constant spirv.Constant, unsigned bool) (T, error) {
	switch c := constant.(type) {
	case *spirv.IntConstant:
		switch c.Type.Width {
		case 8, 16, 32, 64:
		default:
			return 0, errors.Wrapf(ErrUnsupportedEncoding, "integer constant width %d", c.Type.Width)
		}
		if c.Type.Signed {
			return T(c.SignExtended()), nil
		}
		value := c.ZeroExtended()
		if unsigned {
			return T(value), nil
		}
		switch c.Type.Width {
		case 8:
			return T(int8(value)), nil
		case 16:
			return T(int16(value)), nil
		case 32:
			return T(int32(value)), nil
		default:
			return T(int64(value)), nil
		}

	case *spirv.FloatConstant:
		switch c.Type.Width {
		case 16:
			return T(float16.Float16(uint16(c.Word(0))).Float32()), nil
		case 32:
			return T(c.Float32()), nil
		case 64:
			return T(c.Float64()), nil
		default:
			return 0, errors.Wrapf(ErrUnsupportedEncoding, "float constant width %d", c.Type.Width)
		}

	case *spirv.BoolConstant:
		if c.Value {
			return 1, nil
		}
		return 0, nil

	default:
		return 0, errors.Wrapf(ErrUnsupportedEncoding, "constant kind %T", constant)
	}
}

// ConstScalarID decodes the constant declared by id. See ConstScalar.
func ConstScalarID[T Number](p *Pass, id uint32, unsigned bool) (T, error) {
	constant := p.module.Constant(id)
	if constant == nil {
		return 0, errors.Wrapf(ErrUnsupportedEncoding, "id %d is not a declared constant", id)
	}
	value, err := ConstScalar[T](constant, unsigned)
	if err != nil {
		return 0, errors.WithMessagef(err, "decoding constant %d", id)
	}
	return value, nil
}

// ConstVector decodes the constant declared by id into a flattened sequence.
//
// Composite constants flatten depth-first, left to right. If the defining
// instruction is a replicate ("splat") composite, the single component is
// broadcast to the product of the tensor's shape dimensions; the shape is
// itself a constant vector decoded recursively. Null constants of a rank-1
// tensor type yield zeros of length shape[0]; any other rank is a contract
// violation. Every other constant kind fails.
func ConstVector[T Number](p *Pass, id uint32) ([]T, error) {
	constant := p.module.Constant(id)
	if constant == nil {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "id %d is not a declared constant", id)
	}

	switch c := constant.(type) {
	case *spirv.CompositeConstant:
		flat, err := flattenComposite[T](c, 0)
		if err != nil {
			return nil, errors.WithMessagef(err, "flattening composite constant %d", id)
		}
		inst := p.module.Def(id)
		if inst == nil || !inst.Op.IsReplicate() {
			return flat, nil
		}
		if len(flat) != 1 {
			return nil, errors.Wrapf(ErrMalformedModule,
				"replicate composite %d has %d components, want exactly 1", id, len(flat))
		}
		tensorType, err := p.tensorType(id, 0)
		if err != nil {
			return nil, errors.WithMessagef(err, "resolving tensor type of splat constant %d", id)
		}
		dims, err := ConstVector[int64](p, tensorType.ShapeID)
		if err != nil {
			return nil, errors.WithMessagef(err, "decoding shape of splat constant %d", id)
		}
		count := int64(1)
		for _, dim := range dims {
			if dim <= 0 {
				return nil, errors.Wrapf(ErrMalformedModule, "splat constant %d has non-static dimension %d", id, dim)
			}
			count *= dim
		}
		out := make([]T, count)
		for i := range out {
			out[i] = flat[0]
		}
		return out, nil

	case *spirv.NullConstant:
		tensorType, ok := c.Type.(*spirv.TensorType)
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedEncoding, "null constant %d of non-tensor type %s", id, c.Type)
		}
		// A null tensor must be rank 1; the single shape element is the
		// number of zeros to produce.
		shape, err := ConstVector[int64](p, tensorType.ShapeID)
		if err != nil {
			return nil, errors.WithMessagef(err, "decoding shape of null constant %d", id)
		}
		if len(shape) != 1 {
			return nil, errors.Wrapf(ErrMalformedModule, "null tensor constant %d has rank %d, want 1", id, len(shape))
		}
		if shape[0] < 0 {
			return nil, errors.Wrapf(ErrMalformedModule, "null tensor constant %d has non-static length %d", id, shape[0])
		}
		return make([]T, shape[0]), nil

	default:
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "constant %d of kind %T is not a vector", id, constant)
	}
}

// ConstVectorOperand decodes the constant referenced by the operand.
func ConstVectorOperand[T Number](p *Pass, operand spirv.Operand) ([]T, error) {
	return ConstVector[T](p, operand.AsID())
}

func flattenComposite[T Number](composite *spirv.CompositeConstant, depth int) ([]T, error) {
	if depth > maxCompositeDepth {
		return nil, errors.Wrapf(ErrMalformedModule, "composite constant nesting exceeds %d levels", maxCompositeDepth)
	}
	var out []T
	for _, component := range composite.Components {
		if inner, ok := component.(*spirv.CompositeConstant); ok {
			flat, err := flattenComposite[T](inner, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)
			continue
		}
		value, err := ConstScalar[T](component, false)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

// BoolConstant resolves the operand to a boolean constant.
func (p *Pass) BoolConstant(operand spirv.Operand) (bool, error) {
	id := operand.AsID()
	constant, ok := p.module.Constant(id).(*spirv.BoolConstant)
	if !ok {
		return false, errors.Wrapf(ErrUnsupportedEncoding, "id %d is not a boolean constant", id)
	}
	return constant.Value, nil
}
