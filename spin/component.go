package spin

import (
	"strings"

	"github.com/pkg/errors"
)

// Component is a Cartesian component of a vector operator.
type Component int

const (
	X Component = iota
	Y
	Z
)

// Components lists X, Y, Z in order, for ranging over vector operators.
var Components = [3]Component{X, Y, Z}

func (c Component) String() string {
	switch c {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return "unknown"
	}
}

func (c Component) valid() bool {
	return c == X || c == Y || c == Z
}

func ParseComponent(s string) (Component, error) {
	switch strings.ToLower(s) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return 0, errors.Wrapf(ErrUnknownComponent, "%q", s)
}

// Kind tells electronic spins from nuclear ones.
type Kind int

const (
	Electronic Kind = iota
	Nuclear
)

func (k Kind) String() string {
	switch k {
	case Electronic:
		return "electronic"
	case Nuclear:
		return "nuclear"
	default:
		return "unknown"
	}
}

// ParseKind accepts the full names and the shortcuts el and nuc.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "electronic", "el":
		return Electronic, nil
	case "nuclear", "nuc":
		return Nuclear, nil
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}
