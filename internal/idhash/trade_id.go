// Package idhash derives deterministic record ids from identity tuples.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// hashParts joins parts with "|" and returns the hex-encoded SHA256 (64 characters).
func hashParts(format string, args ...any) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf(format, args...)))
	return hex.EncodeToString(hash[:])
}

// ComputeTradeID computes a deterministic trade id.
// Formula: SHA256(run_id|symbol|entry_index)
func ComputeTradeID(runID, symbol string, entryIndex int) string {
	return hashParts("%s|%s|%d", runID, symbol, entryIndex)
}
