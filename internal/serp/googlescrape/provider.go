// Package googlescrape fetches Google result pages directly, without an API
// intermediary. It is the fallback provider for runs without a SerpAPI key
// and leans on browser TLS fingerprinting plus User-Agent rotation to look
// like ordinary traffic.
package googlescrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/serplens/serplens/internal/blockcheck"
	"github.com/serplens/serplens/internal/fingerprint"
	"github.com/serplens/serplens/internal/metrics"
	"github.com/serplens/serplens/internal/serp"
	"github.com/serplens/serplens/pkg/httpclient"
	"github.com/serplens/serplens/pkg/proxy"
	"github.com/serplens/serplens/pkg/ratelimit"
	"github.com/serplens/serplens/pkg/useragent"
)

// ensure Provider implements serp.Provider
var _ serp.Provider = (*Provider)(nil)

const providerName = "googlescrape"

// localeConfig mirrors the domain/locale mapping the API provider uses so
// both providers return comparable records.
type localeConfig struct {
	host     string
	gl       string
	hl       string
	location string
}

var locales = map[string]localeConfig{
	"it": {host: "www.google.it", gl: "it", hl: "it", location: "Italy"},
	"fr": {host: "www.google.fr", gl: "fr", hl: "fr", location: "France"},
	"en": {host: "www.google.co.uk", gl: "uk", hl: "en", location: "United Kingdom"},
}

const defaultLocale = "it"

// Config holds the settings for the scraping provider.
type Config struct {
	NumResults  int
	Timeout     time.Duration
	Fingerprint fingerprint.Profile
	UserAgents  []string
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	// Proxies rotates requests over the given HTTP proxy URLs. Note that
	// proxied HTTPS requests tunnel through CONNECT with the standard TLS
	// stack, so the fingerprint profile only shapes direct connections.
	Proxies []string
	// ProxyFile loads additional proxies from a file, one URL per line.
	ProxyFile string
	Logger    *slog.Logger
	// BaseURL overrides the Google host, for tests.
	BaseURL string
}

// Provider scrapes Google result pages.
type Provider struct {
	numResults int
	baseURL    string
	client     *httpclient.Client
	uaPool     *useragent.Pool
	uaFamily   useragent.Family
	limiter    *ratelimit.Limiter
	detectors  []blockcheck.Detector
	proxies    *proxy.Pool
	logger     *slog.Logger
}

// proxyKey carries the proxy chosen for a request through its context so the
// transport's Proxy callback can find it.
type proxyKey struct{}

// New creates a scraping serp.Provider.
func New(cfg Config) (*Provider, error) {
	numResults := cfg.NumResults
	if numResults <= 0 {
		numResults = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	profile := cfg.Fingerprint
	if profile == "" {
		profile = fingerprint.ProfileChrome
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transport, err := fingerprint.Transport(profile)
	if err != nil {
		return nil, fmt.Errorf("setting up transport: %w", err)
	}

	var pool *proxy.Pool
	if len(cfg.Proxies) > 0 || cfg.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.Add(cfg.Proxies...); err != nil {
			return nil, fmt.Errorf("adding proxies: %w", err)
		}
		if cfg.ProxyFile != "" {
			if err := pool.LoadFile(cfg.ProxyFile); err != nil {
				return nil, fmt.Errorf("loading proxy file: %w", err)
			}
		}
		transport.Proxy = func(r *http.Request) (*url.URL, error) {
			u, _ := r.Context().Value(proxyKey{}).(*url.URL)
			return u, nil
		}
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      timeout,
		MaxRedirects: 3,
		UseCookieJar: true,
		Transport:    transport,
		DefaultHeaders: map[string]string{
			"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating http client: %w", err)
	}

	return &Provider{
		numResults: numResults,
		baseURL:    cfg.BaseURL,
		client:     client,
		uaPool:     useragent.NewPool(cfg.UserAgents),
		uaFamily:   uaFamilyFor(profile),
		limiter:    ratelimit.NewLimiter(cfg.RequestsPerSecond, 0.3),
		detectors:  blockcheck.DefaultDetectors(),
		proxies:    pool,
		logger:     logger,
	}, nil
}

// Close releases the provider's rate limiter.
func (p *Provider) Close() {
	p.limiter.Stop()
}

// uaFamilyFor keeps the presented User-Agent consistent with the TLS
// fingerprint profile; a Chrome handshake with a Firefox header is its own
// bot signal.
func uaFamilyFor(p fingerprint.Profile) useragent.Family {
	switch p {
	case fingerprint.ProfileChrome:
		return useragent.FamilyChrome
	case fingerprint.ProfileFirefox:
		return useragent.FamilyFirefox
	case fingerprint.ProfileSafari:
		return useragent.FamilySafari
	default:
		return useragent.FamilyAny
	}
}

// markProxy records request health for the proxy that carried it.
func (p *Provider) markProxy(u *url.URL, ok bool) {
	if p.proxies == nil || u == nil {
		return
	}
	if ok {
		_ = p.proxies.MarkSuccess(u)
	} else {
		_ = p.proxies.MarkFailure(u)
	}
}

// Fetch retrieves and parses one Google result page.
func (p *Provider) Fetch(ctx context.Context, q serp.QueryMetadata) (*serp.Record, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	locale, ok := locales[q.Language]
	if !ok {
		locale = locales[defaultLocale]
	}

	start := time.Now()
	record, err := p.fetch(ctx, q, locale)
	metrics.RecordFetch(providerName, q.Language, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Provider) fetch(ctx context.Context, q serp.QueryMetadata, locale localeConfig) (*serp.Record, error) {
	var proxyURL *url.URL
	if p.proxies != nil {
		proxyURL = p.proxies.Next()
		ctx = context.WithValue(ctx, proxyKey{}, proxyURL)
	}

	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("gl", locale.gl)
	params.Set("hl", locale.hl)
	params.Set("num", strconv.Itoa(p.numResults))

	base := p.baseURL
	if base == "" {
		base = "https://" + locale.host
	}

	req, err := http.NewRequest(http.MethodGet, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", p.uaPool.RandomFor(p.uaFamily))
	req.Header.Set("Accept-Language", locale.hl+";q=0.9")

	resp, err := p.client.Fetch(ctx, req)
	if err != nil {
		p.markProxy(proxyURL, false)
		return nil, err
	}

	if blocked, source := blockcheck.Analyze(&blockcheck.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       resp.Body,
	}, p.detectors); blocked {
		p.markProxy(proxyURL, false)
		p.logger.Warn("google blocked the request",
			slog.String("query", q.Query),
			slog.String("source", source),
		)
		return nil, fmt.Errorf("request blocked by %s", source)
	}

	if resp.StatusCode != http.StatusOK {
		p.markProxy(proxyURL, false)
		return nil, fmt.Errorf("google returned status %d", resp.StatusCode)
	}
	p.markProxy(proxyURL, true)

	record, err := parseResultPage(resp.Body, p.numResults)
	if err != nil {
		return nil, fmt.Errorf("parsing result page: %w", err)
	}

	record.Query = q.Query
	record.Language = q.Language
	record.Location = locale.location
	record.Timestamp = float64(time.Now().UnixNano()) / float64(time.Second)
	record.QueryMetadata = q
	return record, nil
}
