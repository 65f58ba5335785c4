package config

import (
	"os"
	"strconv"
)

// IsDebug accepts any strconv.ParseBool spelling of COEUS_DEBUG ("1", "true", ...).
func IsDebug() bool {
	on, _ := strconv.ParseBool(os.Getenv("COEUS_DEBUG"))
	return on
}
