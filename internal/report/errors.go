package report

import (
	"errors"
	"fmt"
)

// ErrValidation marks request input the service refuses to run
// with. Transport layers map it to a 400; anything else is a
// server-side failure.
var ErrValidation = errors.New("invalid request")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsValidation reports whether err originated from request
// validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
