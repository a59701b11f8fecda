package spin

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidSpin      = errors.New("invalid spin")
	ErrUnknownComponent = errors.New("unknown spin component")
	ErrUnknownKind      = errors.New("unknown spin kind")
	ErrInvalidAxes      = errors.New("invalid axes")
	ErrMissingNuclearG  = errors.New("missing nuclear g factor")
)
