// Package proxy rotates outbound requests over a set of HTTP proxies with
// per-proxy health tracking. Proxies that fail repeatedly are benched for a
// cooldown period and revived automatically.
package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknownProxy is returned when a success or failure is reported for a
// URL the pool does not manage.
var ErrUnknownProxy = errors.New("proxy not in pool")

// entry is one proxy endpoint with its health counters.
type entry struct {
	url           *url.URL
	failures      int
	successes     int
	lastUsed      time.Time
	disabled      bool
	disabledUntil time.Time
}

// Pool hands out proxy URLs round-robin, skipping endpoints that are
// cooling down after repeated failures.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	next        int
	maxFailures int
	cooldown    time.Duration
}

// Config defines pool behavior.
type Config struct {
	// MaxFailures is how many consecutive failures bench a proxy. Zero
	// means 3.
	MaxFailures int
	// Cooldown is how long a benched proxy stays out of rotation. Zero
	// means 5 minutes.
	Cooldown time.Duration
}

// NewPool creates an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
	}
}

// LoadFile adds proxies from a file with one URL per line. Blank lines and
// lines starting with '#' are skipped.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening proxy list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading proxy list: %w", err)
	}
	return p.Add(urls...)
}

// Add parses raw URLs and appends them to the rotation. URLs without a
// scheme default to http.
func (p *Pool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing proxy URL %q: %w", raw, err)
		}
		p.entries = append(p.entries, &entry{url: u})
	}
	return nil
}

// Len reports how many proxies the pool manages, healthy or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next healthy proxy URL, or nil when the pool is empty or
// every proxy is cooling down. Callers treat nil as "connect directly".
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return nil
	}

	now := time.Now()
	start := p.next
	for {
		e := p.entries[p.next]
		p.next = (p.next + 1) % len(p.entries)

		if e.disabled && now.After(e.disabledUntil) {
			e.disabled = false
			e.failures = 0
		}
		if !e.disabled {
			e.lastUsed = now
			return e.url
		}
		if p.next == start {
			return nil
		}
	}
}

// MarkSuccess records a successful request through the given proxy and
// decays one accumulated failure.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	if proxyURL == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(proxyURL)
	if e == nil {
		return ErrUnknownProxy
	}
	e.successes++
	if e.failures > 0 {
		e.failures--
	}
	return nil
}

// MarkFailure records a failed request through the given proxy. Reaching
// MaxFailures benches the proxy until the cooldown elapses.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	if proxyURL == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(proxyURL)
	if e == nil {
		return ErrUnknownProxy
	}
	e.failures++
	if e.failures >= p.maxFailures {
		e.disabled = true
		e.disabledUntil = time.Now().Add(p.cooldown)
	}
	return nil
}

// find locates an entry by URL string. Caller holds the lock.
func (p *Pool) find(u *url.URL) *entry {
	target := u.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			return e
		}
	}
	return nil
}
