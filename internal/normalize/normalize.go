// Package normalize canonicalizes company names into comparison keys.
//
// The same function runs on the ingestion path (building the store's
// comparison key) and on the query path (preparing a lookup); any drift
// between the two silently degrades matching, so both must call Name.
package normalize

import (
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // Static patterns compiled once
var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace = regexp.MustCompile(`\s+`)

	// Legal-entity suffixes and noise tokens stripped on whole-word
	// boundaries. The input is already lowercased when this runs.
	noiseTokens = regexp.MustCompile(`\b(limited|ltd|plc|llp|inc|co|corp|company|group|holdings|the)\b`)
)

// Name canonicalizes a raw company name into a comparison key.
// Pure and deterministic: lowercase, strip everything outside [a-z0-9 ],
// collapse whitespace, drop legal-entity noise tokens, collapse again.
// An empty result means the name is unusable and the row or query
// should be discarded by the caller.
func Name(raw string) string {
	cleaned := strings.ToLower(raw)
	cleaned = nonAlnum.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	cleaned = noiseTokens.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	return cleaned
}
