package hash

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Any serializes v as JSON and returns its FNV-1a 64-bit hash as a hex string.
// Map keys are sorted by encoding/json, so equal maps hash equally.
func Any(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}
	return Bytes(data), nil
}

// Bytes returns the FNV-1a 64-bit hash of b as a 16 character hex string.
func Bytes(b []byte) string {
	h := fnv.New64a()
	h.Write(b) // nolint:errcheck
	return fmt.Sprintf("%016x", h.Sum64())
}
