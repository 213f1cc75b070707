package properties

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DedupMode selects how merged listings are considered duplicates.
type DedupMode string

const (
	// DedupByID drops listings whose id was already seen. Synthesized ids are
	// fresh per fetch, so repeats of the same property can survive.
	DedupByID DedupMode = "id"
	// DedupByContent keys listings on a hash of source, title, location and price.
	DedupByContent DedupMode = "content"
)

// ParseDedupMode maps a config value to a mode, defaulting to id.
func ParseDedupMode(s string) DedupMode {
	if DedupMode(strings.ToLower(strings.TrimSpace(s))) == DedupByContent {
		return DedupByContent
	}
	return DedupByID
}

// Dedup keeps the first occurrence of each listing, preserving order.
func Dedup(listings []Listing, mode DedupMode) []Listing {
	seen := make(map[string]struct{}, len(listings))
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		key := l.ID
		if mode == DedupByContent {
			key = ContentKey(l)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}

// ContentKey is a stable identity for a listing across fetches.
func ContentKey(l Listing) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		strings.ToLower(l.Source),
		strings.ToLower(strings.TrimSpace(l.Title)),
		strings.ToLower(strings.TrimSpace(l.Location)),
		strings.TrimSpace(l.Price),
	}, "\x1f")))
	return hex.EncodeToString(sum[:])
}
