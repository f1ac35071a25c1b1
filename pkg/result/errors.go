package result

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks a caller bug such as an empty required id
var ErrInvalidArgument = errors.New("invalid argument")

// RequireIDs returns ErrInvalidArgument naming the first empty value.
// Arguments are name/value pairs.
func RequireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidArgument, pairs[i])
		}
	}
	return nil
}
