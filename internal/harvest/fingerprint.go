package harvest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the dedup key: a fixed-length digest of a record's source
// item id. Equal ids always produce equal fingerprints; collisions across
// distinct ids are a probabilistic risk the digest space makes negligible
// for this workload.
type Fingerprint string

// fingerprintLen keeps the key compact; 16 hex chars of SHA-256 leave 64
// bits of digest, far beyond what a run of this size can collide.
const fingerprintLen = 16

// FingerprintOf derives the dedup fingerprint for a source item id.
func FingerprintOf(sourceItemID string) Fingerprint {
	sum := sha256.Sum256([]byte(sourceItemID))
	return Fingerprint(hex.EncodeToString(sum[:])[:fingerprintLen])
}

func (f Fingerprint) String() string { return string(f) }
