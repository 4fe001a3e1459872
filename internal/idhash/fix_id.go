package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeFixID computes a deterministic fix recommendation id.
// Formula: SHA256(risk_id|kind|source|position)
// kind is "control", "scenario" or "custom"; source is the control id or
// scenario type. Returns hex-encoded hash (64 characters).
func ComputeFixID(riskID, kind, source string, position int) string {
	data := fmt.Sprintf("%s|%s|%s|%d", riskID, kind, source, position)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
