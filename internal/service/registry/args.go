package registry

import (
	"encoding/json"
	"fmt"

	"github.com/sandevgo/coeus/internal/core"
)

// DecodeArguments is core.DecodeArguments with failures tagged ErrInvalidArguments.
func DecodeArguments(raw json.RawMessage) (json.RawMessage, error) {
	args, err := core.DecodeArguments(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return args, nil
}
