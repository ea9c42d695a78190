package spirv

import (
	"math"
)

// Constant is a resolved entry of the module's constant pool. Concrete
// constants are IntConstant, FloatConstant, BoolConstant, CompositeConstant
// and NullConstant; callers type-switch on them.
type Constant interface {
	// ConstType returns the declared type of the constant.
	ConstType() Type
}

// IntConstant is an integer constant. Words holds the literal exactly as
// encoded in the module: low word first, one word for widths up to 32 bits,
// two words for 64 bits.
type IntConstant struct {
	Type  *IntType
	Words []uint32
}

func (c *IntConstant) ConstType() Type { return c.Type }

// ZeroExtended returns the literal zero-extended to 64 bits.
func (c *IntConstant) ZeroExtended() uint64 {
	value := uint64(c.Words[0])
	if len(c.Words) > 1 {
		value |= uint64(c.Words[1]) << 32
	}
	if c.Type.Width >= 64 {
		return value
	}
	return value & (uint64(1)<<c.Type.Width - 1)
}

// SignExtended returns the literal sign-extended to 64 bits.
func (c *IntConstant) SignExtended() int64 {
	value := c.ZeroExtended()
	if c.Type.Width < 64 && value&(uint64(1)<<(c.Type.Width-1)) != 0 {
		value |= ^uint64(0) << c.Type.Width
	}
	return int64(value)
}

// FloatConstant is a floating-point constant. Words holds the raw IEEE-754
// bits: one word for 16 and 32 bit widths (16-bit in the low half-word), two
// words for 64 bits.
type FloatConstant struct {
	Type  *FloatType
	Words []uint32
}

func (c *FloatConstant) ConstType() Type { return c.Type }

// Word returns the i-th literal word.
func (c *FloatConstant) Word(i int) uint32 { return c.Words[i] }

// Float32 returns the value of a 32-bit float constant.
func (c *FloatConstant) Float32() float32 { return math.Float32frombits(c.Words[0]) }

// Float64 returns the value of a 64-bit float constant.
func (c *FloatConstant) Float64() float64 {
	return math.Float64frombits(uint64(c.Words[0]) | uint64(c.Words[1])<<32)
}

// BoolConstant is a boolean constant.
type BoolConstant struct {
	Type  *BoolType
	Value bool
}

func (c *BoolConstant) ConstType() Type { return c.Type }

// CompositeConstant is a constant assembled from other constants. For
// replicate ("splat") composites the single logical component appears once;
// the defining instruction's opcode tells the two encodings apart.
type CompositeConstant struct {
	Type       Type
	Components []Constant
}

func (c *CompositeConstant) ConstType() Type { return c.Type }

// NullConstant is a zero-initialized constant of its declared type.
type NullConstant struct {
	Type Type
}

func (c *NullConstant) ConstType() Type { return c.Type }
