package utils

// MaskKey shortens a public key for safe logging.
// Example: "ed25519:0123456789abcdef" -> "ed25519:0123…cdef"
func MaskKey(key string) string {
	const keep = 4
	prefix := ""
	if len(key) > 8 && key[:8] == "ed25519:" {
		prefix, key = key[:8], key[8:]
	}
	if len(key) <= 2*keep {
		return prefix + key
	}
	return prefix + key[:keep] + "…" + key[len(key)-keep:]
}
