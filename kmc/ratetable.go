package kmc

import (
	"crypto/md5"
	"encoding/binary"
	"strconv"
	"strings"
)

// Fingerprint folds a 128-bit MD5 digest into a 64-bit value by XOR-ing
// its two halves, grounded on KMCLib's hash64MD5xor. It is used to key a
// memo cache for expensive external rate-callback results, trading an
// accepted (negligible) collision probability for avoiding recomputation
// of the same local configuration.
func Fingerprint(message string) uint64 {
	sum := md5.Sum([]byte(message))
	hi := binary.BigEndian.Uint64(sum[:8])
	lo := binary.BigEndian.Uint64(sum[8:])
	return hi ^ lo
}

// CustomRateInputFingerprint builds the message hashed to key a custom
// rate cache entry: the process number, the site index, and the live
// occupancy of every entry in the site's config match list, in order —
// anything the external rate callback is allowed to read, so that two
// calls with identical input always hash identically. Grounded on
// KMCLib's hashCustomRateInput.
func CustomRateInputFingerprint(processNumber, siteIndex int, siteMatchList MatchList) uint64 {
	var b strings.Builder
	b.WriteString(strconv.Itoa(processNumber))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(siteIndex))
	for _, e := range siteMatchList {
		b.WriteByte(':')
		for _, t := range e.MatchTypes {
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(t))
		}
	}
	return Fingerprint(b.String())
}

// RateCache memoizes rate values by fingerprint, so a custom rate
// callback is invoked at most once for a given local configuration.
type RateCache struct {
	entries map[uint64]float64
}

// NewRateCache returns an empty RateCache.
func NewRateCache() *RateCache {
	return &RateCache{entries: make(map[uint64]float64)}
}

// Lookup returns the cached rate for fingerprint, if present.
func (c *RateCache) Lookup(fingerprint uint64) (float64, bool) {
	v, ok := c.entries[fingerprint]
	return v, ok
}

// Store records rate under fingerprint, overwriting any previous value —
// a fingerprint collision between two distinct configurations is treated
// as acceptable given MD5's collision resistance and the narrow input
// domain, matching the original's lack of collision detection.
func (c *RateCache) Store(fingerprint uint64, rate float64) {
	c.entries[fingerprint] = rate
}

// Len returns the number of cached entries.
func (c *RateCache) Len() int { return len(c.entries) }
