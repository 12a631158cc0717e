package schema

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// EditorIDField is the JSON key carrying editor-only node identity.
// Keys with the EditorPrefix are stripped before persistence.
const (
	EditorIDField = "__id"
	EditorPrefix  = "__"
)

// NewEditorID returns a process-locally unique token for editor-side node
// addressing. Values never leave the editor, so no global uniqueness is
// needed.
func NewEditorID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure is effectively impossible; fall back to the
		// clock alone rather than panicking inside editor state handling.
		return "ed_" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "ed_" + strconv.FormatInt(time.Now().UnixNano(), 36) + "_" + hex.EncodeToString(b[:])
}

// NormalizeCode converts human input into a machine-safe section or
// department code: uppercase, trimmed, whitespace collapsed to underscores,
// everything outside [A-Z0-9_] removed. Idempotent.
func NormalizeCode(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			inSpace = false
		default:
			// dropped
		}
	}
	return b.String()
}

// NormalizeKey converts human input into a machine-safe field or column
// key: lowercase, trimmed, whitespace and invalid characters collapsed to
// underscores, runs of underscores collapsed. Idempotent.
func NormalizeKey(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// UniqueKey normalizes base and, if taken, appends _2, _3, ... until the
// result is absent from taken. The returned key is guaranteed unused.
func UniqueKey(base string, taken map[string]bool) string {
	key := NormalizeKey(base)
	if key == "" {
		key = "field"
	}
	if !taken[key] {
		return key
	}
	for n := 2; ; n++ {
		candidate := key + "_" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}
