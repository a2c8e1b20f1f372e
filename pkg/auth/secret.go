package auth

// Secret holds the token signing key. Printing, formatting or serializing
// it yields a placeholder; only [Secret.Value] returns the key.
type Secret string

const secretRedacted = "[REDACTED]"

// String returns the placeholder.
func (s Secret) String() string { return secretRedacted }

// GoString returns the placeholder for %#v.
func (s Secret) GoString() string { return secretRedacted }

// MarshalText keeps the key out of JSON and YAML output.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }

// Value returns the raw key. Call it only where the key bytes are needed.
func (s Secret) Value() string { return string(s) }
