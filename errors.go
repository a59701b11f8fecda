package spinham

import (
	"github.com/pkg/errors"
)

var (
	ErrDuplicateLabel    = errors.New("duplicate label")
	ErrUnknownLabel      = errors.New("unknown label")
	ErrIncompleteOrder   = errors.New("incomplete order")
	ErrSelfInteraction   = errors.New("self interaction")
	ErrDimensionTooLarge = errors.New("dimension too large")
	ErrEmptySystem       = errors.New("empty system")
	ErrNilCenter         = errors.New("nil center")
)
