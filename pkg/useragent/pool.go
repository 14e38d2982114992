// Package useragent rotates browser User-Agent strings, grouped by the
// browser family each string claims to be. A scraping transport that
// presents a Chrome TLS fingerprint with a Firefox User-Agent is an easy
// bot signal, so callers draw agents matched to their fingerprint profile.
package useragent

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync/atomic"
)

// Family identifies the browser a User-Agent string claims to be.
type Family string

const (
	FamilyChrome  Family = "chrome"
	FamilyFirefox Family = "firefox"
	FamilySafari  Family = "safari"
	// FamilyAny draws from the whole pool.
	FamilyAny Family = ""
)

// defaultAgents holds a realistic set of modern desktop User-Agents per
// family. Edge strings count as Chrome since they share its engine and
// TLS stack.
var defaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
}

// Classify derives the browser family from a User-Agent string. Unknown
// strings map to FamilyAny and only appear in unrestricted draws.
func Classify(ua string) Family {
	switch {
	case strings.Contains(ua, "Firefox/"):
		return FamilyFirefox
	case strings.Contains(ua, "Chrome/"):
		return FamilyChrome
	case strings.Contains(ua, "Safari/"):
		return FamilySafari
	default:
		return FamilyAny
	}
}

// Pool is a set of User-Agents indexed by browser family. It is safe for
// concurrent use.
type Pool struct {
	all      []string
	byFamily map[Family][]string
	counter  atomic.Uint64
}

// NewPool creates a pool from the given User-Agents, classifying each by
// family. An empty slice falls back to the default agent set.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = defaultAgents
	}
	p := &Pool{
		all:      make([]string, len(uas)),
		byFamily: make(map[Family][]string),
	}
	copy(p.all, uas)
	for _, ua := range p.all {
		if f := Classify(ua); f != FamilyAny {
			p.byFamily[f] = append(p.byFamily[f], ua)
		}
	}
	return p
}

// Next returns the next User-Agent in round-robin order over the whole pool.
func (p *Pool) Next() string {
	if len(p.all) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.all[idx%uint64(len(p.all))]
}

// Random returns a random User-Agent from the whole pool.
func (p *Pool) Random() string {
	return pick(p.all, p.Next)
}

// RandomFor returns a random User-Agent of the given family. When the pool
// holds no agent of that family it falls back to the whole pool, which keeps
// a custom single-browser agent list usable with any fingerprint profile.
func (p *Pool) RandomFor(f Family) string {
	if f == FamilyAny {
		return p.Random()
	}
	if uas := p.byFamily[f]; len(uas) > 0 {
		return pick(uas, p.Next)
	}
	return p.Random()
}

// All returns a copy of every User-Agent in the pool.
func (p *Pool) All() []string {
	copied := make([]string, len(p.all))
	copy(copied, p.all)
	return copied
}

// pick draws a uniform random element, falling back to the given rotation
// function if the system randomness source fails.
func pick(uas []string, fallback func() string) string {
	if len(uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(uas))))
	if err != nil {
		return fallback()
	}
	return uas[n.Int64()]
}
