package nn

import (
	"errors"
	"fmt"
)

// Error kinds reported by units, layers and networks. Match them with
// errors.Is; a failure raised by a lower level is wrapped in ErrDependency
// and keeps its original cause in the chain.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrTopologyMismatch = errors.New("topology mismatch")
	ErrDependency       = errors.New("dependency failure")
	ErrNilRandom        = fmt.Errorf("%w: random source is required", ErrInvalidArgument)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func mismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTopologyMismatch, fmt.Sprintf(format, args...))
}

func dependency(context string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependency, context, err)
}
