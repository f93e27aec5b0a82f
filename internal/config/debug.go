package config

import (
	"os"
	"strconv"
)

const debugEnv = "TUSK_DEBUG"

// IsDebug reports whether TUSK_DEBUG holds a true boolean ("1", "true", ...).
func IsDebug() bool {
	on, err := strconv.ParseBool(os.Getenv(debugEnv))
	return err == nil && on
}
