package state

import (
	"errors"

	"cusdScope/internal/clvalue"
	"cusdScope/internal/events"
)

// errAbsent marks values that decoded fine but mean "no record", such as an
// empty vault.
var errAbsent = errors.New("absent")

func isDecodeError(err error) bool {
	return errors.Is(err, clvalue.ErrTruncatedInput) ||
		errors.Is(err, clvalue.ErrUnsupportedLength) ||
		errors.Is(err, clvalue.ErrUnsupportedTag) ||
		errors.Is(err, events.ErrCorruptEvent)
}
