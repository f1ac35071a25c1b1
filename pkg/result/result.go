// Package result carries the outcome of a domain operation that may be
// rejected for ordinary gameplay reasons. Rejections are shown to players, so
// they are values rather than errors.
package result

import "fmt"

// Outcome is either Ok or Rejected(reason).
type Outcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	// Forbidden marks rejections caused by the acting player lacking authority.
	Forbidden bool `json:"-"`
}

// Ok returns a successful outcome.
func Ok(message string) Outcome {
	return Outcome{OK: true, Message: message}
}

// Okf returns a successful outcome with a formatted message.
func Okf(format string, args ...any) Outcome {
	return Outcome{OK: true, Message: fmt.Sprintf(format, args...)}
}

// Rejected returns a failed outcome.
func Rejected(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// Denied returns a failed outcome caused by missing authority.
func Denied(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...), Forbidden: true}
}

func (o Outcome) String() string {
	if o.OK {
		return "ok: " + o.Message
	}
	return "rejected: " + o.Message
}
