package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewReference returns a short human-facing id such as "ORD-3F9A1C2B"
func NewReference(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}
