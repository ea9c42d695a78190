package graphpass

import "fmt"

// RoundingMode is the graph-wide conversion policy for narrowing float
// conversions. The decoder itself never narrows; it only carries the mode so
// callers that do narrow apply the policy the module was compiled under.
// There is no default: every Pass is constructed with an explicit mode.
type RoundingMode int

const (
	// SingleRound narrows in one rounding step.
	SingleRound RoundingMode = iota + 1
	// InexactRound allows the implementation to round inexactly.
	InexactRound
	// DoubleRound narrows through an intermediate width, rounding twice.
	DoubleRound
)

func (m RoundingMode) String() string {
	switch m {
	case SingleRound:
		return "SingleRound"
	case InexactRound:
		return "InexactRound"
	case DoubleRound:
		return "DoubleRound"
	default:
		return fmt.Sprintf("RoundingMode(%d)", int(m))
	}
}
