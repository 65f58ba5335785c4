package test

import (
	"path/filepath"
	"runtime"
)

// Dir is the directory holding this package, used to find fixtures.
func Dir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filename)
}
