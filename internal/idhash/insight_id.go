package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeInsightID computes a deterministic insight id.
// Formula: SHA256(detector|week_index)
// Returns the first 16 hex characters, enough to key chart markers.
func ComputeInsightID(detector string, weekIndex int) string {
	data := fmt.Sprintf("%s|%d", detector, weekIndex)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
