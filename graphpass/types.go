package graphpass

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/tensorvk/tensorvk/spirv"
	"github.com/tensorvk/tensorvk/types/shapes"
	"github.com/tensorvk/tensorvk/vkapi"
)

// tensorType resolves the declared type of a result id to a tensor type,
// looking through pointers and, for graph-typed results, selecting the
// ioIndex-th interface type.
func (p *Pass) tensorType(id uint32, ioIndex int) (*spirv.TensorType, error) {
	inst := p.module.Def(id)
	if inst == nil {
		return nil, errors.Wrapf(ErrMalformedModule, "id %d has no defining instruction", id)
	}
	declared := p.module.Type(inst.TypeID)
	if declared == nil {
		return nil, errors.Wrapf(ErrMalformedModule, "id %d has no declared type", id)
	}

	switch t := declared.(type) {
	case *spirv.TensorType:
		return t, nil
	case *spirv.PointerType:
		pointee, ok := p.module.Type(t.PointeeID).(*spirv.TensorType)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedModule, "id %d points to a non-tensor type", id)
		}
		return pointee, nil
	case *spirv.GraphType:
		if ioIndex < 0 || ioIndex >= len(t.IOTypeIDs) {
			return nil, errors.Wrapf(ErrMalformedModule,
				"graph-typed id %d has %d interface types, index %d out of range", id, len(t.IOTypeIDs), ioIndex)
		}
		io, ok := p.module.Type(t.IOTypeIDs[ioIndex]).(*spirv.TensorType)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedModule, "graph-typed id %d interface type %d is not a tensor", id, ioIndex)
		}
		return io, nil
	default:
		return nil, errors.Wrapf(ErrMalformedModule, "id %d has type %s, want a tensor type", id, declared)
	}
}

// shapeOf resolves a tensor type to a Shape: element dtype plus the decoded
// shape constant. Non-positive dimensions in the module mean dynamic.
func (p *Pass) shapeOf(t *spirv.TensorType) (shapes.Shape, error) {
	dtype, err := elementDType(t.Element)
	if err != nil {
		return shapes.Invalid(), err
	}
	if t.ShapeID == 0 {
		return shapes.Invalid(), errors.Wrapf(ErrMalformedModule, "tensor type %s declares no shape", t)
	}
	dims, err := ConstVector[int64](p, t.ShapeID)
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "decoding shape constant %d", t.ShapeID)
	}
	for i, dim := range dims {
		if dim <= 0 {
			dims[i] = shapes.DynamicDim
		}
	}
	return shapes.Make(dtype, dims...), nil
}

// elementDType maps a scalar module type to its element dtype.
func elementDType(t spirv.Type) (dtypes.DType, error) {
	switch t := t.(type) {
	case *spirv.IntType:
		if t.Signed {
			switch t.Width {
			case 8:
				return dtypes.Int8, nil
			case 16:
				return dtypes.Int16, nil
			case 32:
				return dtypes.Int32, nil
			case 64:
				return dtypes.Int64, nil
			}
		} else {
			switch t.Width {
			case 8:
				return dtypes.Uint8, nil
			case 16:
				return dtypes.Uint16, nil
			case 32:
				return dtypes.Uint32, nil
			case 64:
				return dtypes.Uint64, nil
			}
		}
		return dtypes.InvalidDType, errors.Wrapf(ErrUnsupportedTarget, "%d-bit integer element", t.Width)
	case *spirv.FloatType:
		switch t.Width {
		case 16:
			return dtypes.Float16, nil
		case 32:
			return dtypes.Float32, nil
		case 64:
			return dtypes.Float64, nil
		}
		return dtypes.InvalidDType, errors.Wrapf(ErrUnsupportedTarget, "%d-bit float element", t.Width)
	case *spirv.BoolType:
		return dtypes.Bool, nil
	default:
		return dtypes.InvalidDType, errors.Wrapf(ErrUnsupportedTarget, "element type %s", t)
	}
}

// formatFor maps an element dtype to the native format the backend binds the
// tensor's data through. The mapping is total over the supported dtypes;
// anything else is reported, never substituted.
func formatFor(dtype dtypes.DType) (vkapi.Format, error) {
	switch dtype {
	case dtypes.Int8:
		return vkapi.FormatR8Sint, nil
	case dtypes.Int16:
		return vkapi.FormatR16Sint, nil
	case dtypes.Int32:
		return vkapi.FormatR32Sint, nil
	case dtypes.Int64:
		return vkapi.FormatR64Sint, nil
	case dtypes.Uint8, dtypes.Bool:
		return vkapi.FormatR8Uint, nil
	case dtypes.Uint16:
		return vkapi.FormatR16Uint, nil
	case dtypes.Uint32:
		return vkapi.FormatR32Uint, nil
	case dtypes.Uint64:
		return vkapi.FormatR64Uint, nil
	case dtypes.Float16:
		return vkapi.FormatR16Sfloat, nil
	case dtypes.Float32:
		return vkapi.FormatR32Sfloat, nil
	case dtypes.Float64:
		return vkapi.FormatR64Sfloat, nil
	default:
		return vkapi.FormatUndefined, errors.Wrapf(ErrUnsupportedTarget, "dtype %s", dtype)
	}
}

// descriptorSetAndBinding reads the two mandatory resource decorations of a
// variable. Both must be present.
func (p *Pass) descriptorSetAndBinding(id uint32) (set, binding uint64, err error) {
	setArgs, ok := p.module.Decoration(id, spirv.DecorationDescriptorSet)
	if !ok || len(setArgs) == 0 {
		return 0, 0, errors.Wrapf(ErrMalformedModule, "id %d is missing the DescriptorSet decoration", id)
	}
	bindingArgs, ok := p.module.Decoration(id, spirv.DecorationBinding)
	if !ok || len(bindingArgs) == 0 {
		return 0, 0, errors.Wrapf(ErrMalformedModule, "id %d is missing the Binding decoration", id)
	}
	return uint64(setArgs[0]), uint64(bindingArgs[0]), nil
}

// debugName returns the debug name attached to id: the non-semantic
// debug-info name if the module carries one, else the OpName, else the
// supplied default. It never fails.
func (p *Pass) debugName(id uint32, defaultName string) string {
	if inst := p.module.DebugNameInst(id); inst != nil && inst.NumOperands() >= 4 {
		if op := inst.Operand(3); op.Kind == spirv.OperandString {
			return op.Str
		}
	}
	if name, ok := p.module.Name(id); ok {
		return name
	}
	return defaultName
}

func defaultTensorName(id uint32) string { return fmt.Sprintf("tensor_%d", id) }
