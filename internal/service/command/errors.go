package command

import (
	"errors"
	"fmt"

	"github.com/sandevgo/tusk/internal/core"
)

const msgUnavailable = "Error: storage is temporarily unavailable"

// ErrorReply renders err as a user-visible reply.
func ErrorReply(err error) string {
	if errors.Is(err, core.ErrUnavailable) {
		return msgUnavailable
	}
	return fmt.Sprintf("Error: %v", err)
}
