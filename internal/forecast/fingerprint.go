package forecast

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint hashes the structure of raw forecast documents: key names and
// value types, not values. The CWA reshapes its payloads without notice;
// comparing fingerprints between fetches surfaces that before lookups start
// silently returning missing.
func Fingerprint(documents [][]byte) (string, error) {
	parts := make([]string, 0, len(documents))
	for _, data := range documents {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return "", err
		}
		parts = append(parts, describeShape(v))
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:]), nil
}

// describeShape renders a value's structure canonically: object keys sorted,
// lists represented by their first element only.
func describeShape(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k)
			b.WriteString(":")
			b.WriteString(describeShape(t[k]))
		}
		b.WriteString("}")
		return b.String()
	case []any:
		if len(t) == 0 {
			return "[]"
		}
		return "[" + describeShape(t[0]) + "]"
	default:
		return fmt.Sprintf("%T", v)
	}
}
