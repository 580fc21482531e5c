package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Roand-7/Lokaah-sub001/internal/sampler"
)

// Session scopes one caller's generation run: its RNG and the set of
// fingerprints already handed out. Sessions are not shared across
// callers, so no locking is needed.
type Session struct {
	ID   string
	rng  *rand.Rand
	seen map[string]bool
}

// NewSession creates a session with a deterministic RNG for the seed.
func NewSession(seed uint64) *Session {
	return &Session{
		ID:   uuid.NewString(),
		rng:  rand.New(rand.NewPCG(seed, seed)),
		seen: make(map[string]bool),
	}
}

// RNG returns the session's random source.
func (s *Session) RNG() *rand.Rand { return s.rng }

// Seen reports whether the fingerprint was already registered.
func (s *Session) Seen(fp string) bool { return s.seen[fp] }

// CheckAndRegister registers the fingerprint and reports whether it was
// new. Deduplication is best-effort within the session, never absolute.
func (s *Session) CheckAndRegister(fp string) bool {
	if s.seen[fp] {
		return false
	}
	s.seen[fp] = true
	return true
}

// Fingerprint hashes the pattern id with the sorted assignment so two
// draws of the same values collide regardless of sampling order.
func Fingerprint(patternID string, assignment sampler.Assignment) string {
	parts := make([]string, 0, len(assignment))
	for name, v := range assignment {
		parts = append(parts, name+"="+v.String())
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(patternID))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(h.Sum(nil))
}
