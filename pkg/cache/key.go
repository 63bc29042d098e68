package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// KeyVersion is bumped whenever key derivation changes, so stale blobs
// from an older scheme simply miss instead of colliding.
const KeyVersion = 1

// KeyParams identifies one synthesis result. Text is normalized so that
// whitespace and casing differences share a single entry.
type KeyParams struct {
	Version  int               `json:"v"`
	Text     string            `json:"text"`
	Provider string            `json:"provider"`
	Voice    string            `json:"voice"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func NewKeyParams(text, provider, voice string, extra map[string]string) KeyParams {
	return KeyParams{
		Version:  KeyVersion,
		Text:     strings.ToLower(strings.TrimSpace(text)),
		Provider: provider,
		Voice:    voice,
		Extra:    extra,
	}
}

// Hash returns the content address for these parameters. Struct fields
// marshal in declaration order and map keys sort, so the encoding is
// canonical.
func (k KeyParams) Hash() string {
	b, err := json.Marshal(k)
	if err != nil {
		// Only unmarshalable values can fail here; KeyParams has none.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
