package spirv

import "fmt"

// Type is a declared type in the module. Concrete types are IntType,
// FloatType, BoolType, TensorType, GraphType, PointerType and VoidType.
type Type interface {
	fmt.Stringer
	typeNode()
}

// IntType is an integer type of a given bit width and signedness.
type IntType struct {
	Width  uint32
	Signed bool
}

func (t *IntType) typeNode() {}

func (t *IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("int%d", t.Width)
	}
	return fmt.Sprintf("uint%d", t.Width)
}

// FloatType is a floating-point type of a given bit width.
type FloatType struct {
	Width uint32
}

func (t *FloatType) typeNode()      {}
func (t *FloatType) String() string { return fmt.Sprintf("float%d", t.Width) }

// BoolType is the boolean type.
type BoolType struct{}

func (t *BoolType) typeNode()      {}
func (t *BoolType) String() string { return "bool" }

// VoidType is the void type.
type VoidType struct{}

func (t *VoidType) typeNode()      {}
func (t *VoidType) String() string { return "void" }

// TensorType is a tensor type from SPV_ARM_tensors: an element type and a
// reference to the constant holding the shape vector.
type TensorType struct {
	ElementID uint32 // id of the element type
	Element   Type
	ShapeID   uint32 // id of the shape constant (a rank-1 integer tensor)
}

func (t *TensorType) typeNode()      {}
func (t *TensorType) String() string { return fmt.Sprintf("tensor<%s>", t.Element) }

// GraphType is a graph function type from SPV_ARM_graph. The first NumInputs
// entries of IOTypeIDs are the graph's input tensor types, the rest its
// outputs, in declaration order.
type GraphType struct {
	NumInputs uint32
	IOTypeIDs []uint32
}

func (t *GraphType) typeNode() {}

func (t *GraphType) String() string {
	return fmt.Sprintf("graph(%d in, %d out)", t.NumInputs, len(t.IOTypeIDs)-int(t.NumInputs))
}

// PointerType is a pointer type with a storage class.
type PointerType struct {
	StorageClass StorageClass
	PointeeID    uint32
}

func (t *PointerType) typeNode()      {}
func (t *PointerType) String() string { return fmt.Sprintf("ptr(%d)", t.PointeeID) }
