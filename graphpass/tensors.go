package graphpass

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/tensorvk/tensorvk/compute"
	"github.com/tensorvk/tensorvk/spirv"
)

// Each result id can materialize at most two descriptor variants: slot 0 and
// slot 1 are independent descriptors for the same id used in different roles.
// They are never aliased to each other.
const tensorVariantSlots = 2

func checkSlot(slot int) {
	if slot < 0 || slot >= tensorVariantSlots {
		exceptions.Panicf("graphpass: tensor variant slot %d outside [0,%d)", slot, tensorVariantSlots)
	}
}

// Tensor returns the cached descriptor for (id, slot), constructing it from
// the id's declared tensor type on first use. Within one pass run, repeated
// lookups with the same key return the identical shared descriptor.
func (p *Pass) Tensor(id uint32, slot int) (*compute.TensorDescriptor, error) {
	checkSlot(slot)
	if cached := p.cached(id, slot); cached != nil {
		return cached, nil
	}
	tensorType, err := p.tensorType(id, 0)
	if err != nil {
		return nil, err
	}
	descriptor, err := p.makeTensor(id, tensorType)
	if err != nil {
		return nil, err
	}
	p.store(id, slot, descriptor)
	return descriptor, nil
}

// TensorOperand is Tensor for an id-referencing operand.
func (p *Pass) TensorOperand(operand spirv.Operand, slot int) (*compute.TensorDescriptor, error) {
	return p.Tensor(operand.AsID(), slot)
}

// TensorByDecoration resolves the operand's variable to a descriptor carrying
// its set/binding decorations, caching it under the variable's own id.
func (p *Pass) TensorByDecoration(operand spirv.Operand, slot int) (set, binding uint64, _ *compute.TensorDescriptor, err error) {
	varID := operand.AsID()
	return p.mapTensorByDecoration(varID, varID, slot)
}

// MapTensorByDecoration resolves the operand's variable like
// TensorByDecoration but caches the descriptor under resultID, so later body
// references to resultID find the interface tensor.
func (p *Pass) MapTensorByDecoration(resultID uint32, operand spirv.Operand, slot int) error {
	_, _, _, err := p.mapTensorByDecoration(resultID, operand.AsID(), slot)
	return err
}

func (p *Pass) mapTensorByDecoration(resultID, varID uint32, slot int) (set, binding uint64, _ *compute.TensorDescriptor, err error) {
	checkSlot(slot)
	set, binding, err = p.descriptorSetAndBinding(varID)
	if err != nil {
		return 0, 0, nil, err
	}
	if cached := p.cached(resultID, slot); cached != nil {
		return set, binding, cached, nil
	}
	tensorType, err := p.tensorType(varID, 0)
	if err != nil {
		return 0, 0, nil, err
	}
	descriptor, err := p.makeTensor(varID, tensorType)
	if err != nil {
		return 0, 0, nil, err
	}
	descriptor.Set = set
	descriptor.Binding = binding
	p.store(resultID, slot, descriptor)
	return set, binding, descriptor, nil
}

// makeTensor constructs a descriptor from a resolved tensor type: shape,
// element format and debug name. It does not touch the cache.
func (p *Pass) makeTensor(id uint32, tensorType *spirv.TensorType) (*compute.TensorDescriptor, error) {
	shape, err := p.shapeOf(tensorType)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolving shape of tensor %d", id)
	}
	format, err := formatFor(shape.DType)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolving format of tensor %d", id)
	}
	return &compute.TensorDescriptor{
		ID:     id,
		Name:   p.debugName(id, defaultTensorName(id)),
		Shape:  shape,
		Format: format,
	}, nil
}

// GetOrMakeCompositeTensor returns the descriptor for a tensor assembled
// from a constant (a graph constant's weights, say). Construction is
// idempotent per id: repeated calls return the same shared descriptor.
func (p *Pass) GetOrMakeCompositeTensor(id uint32) (*compute.TensorDescriptor, error) {
	if cached := p.cached(id, 0); cached != nil {
		return cached, nil
	}
	return p.makeCompositeTensor(id)
}

func (p *Pass) makeCompositeTensor(id uint32) (*compute.TensorDescriptor, error) {
	tensorType, err := p.tensorType(id, 0)
	if err != nil {
		return nil, errors.WithMessagef(err, "composite tensor %d", id)
	}
	descriptor, err := p.makeTensor(id, tensorType)
	if err != nil {
		return nil, errors.WithMessagef(err, "composite tensor %d", id)
	}
	p.store(id, 0, descriptor)
	return descriptor, nil
}

func (p *Pass) cached(id uint32, slot int) *compute.TensorDescriptor {
	if slots := p.tensors[id]; slots != nil {
		return slots[slot]
	}
	return nil
}

func (p *Pass) store(id uint32, slot int, descriptor *compute.TensorDescriptor) {
	slots := p.tensors[id]
	if slots == nil {
		slots = new([tensorVariantSlots]*compute.TensorDescriptor)
		p.tensors[id] = slots
	}
	slots[slot] = descriptor
}
