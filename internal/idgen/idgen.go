package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier. Override in tests.
var NewFunc = func() string { return strings.ReplaceAll(uuid.New().String(), "-", "")[:12] }

// New returns a new identifier.
func New() string { return NewFunc() }
