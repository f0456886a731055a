package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeLoopID computes a deterministic loop id using SHA256.
// Formula: SHA256("loop|" + slugA + "|" + slugB) with slugs in
// lexical order, so both orientations of the pair hash identically.
// Returns hex-encoded hash (64 characters).
func ComputeLoopID(slugA, slugB string) string {
	if slugB < slugA {
		slugA, slugB = slugB, slugA
	}
	hash := sha256.Sum256([]byte("loop|" + slugA + "|" + slugB))
	return hex.EncodeToString(hash[:])
}

// ComputeCycleID computes a deterministic cycle id using SHA256 over
// the canonical slug rotation. Callers must pass the sequence already
// rotated to start at its lexicographically smallest slug.
// Returns hex-encoded hash (64 characters).
func ComputeCycleID(canonicalSlugs []string) string {
	hash := sha256.Sum256([]byte("cycle|" + strings.Join(canonicalSlugs, "|")))
	return hex.EncodeToString(hash[:])
}
