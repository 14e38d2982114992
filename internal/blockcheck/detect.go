// Package blockcheck recognizes the block and challenge pages Google serves
// when it decides a client is automated traffic.
package blockcheck

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the slice of an HTTP exchange the detectors inspect.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Detector examines a response to determine whether the request was blocked
// or challenged. It returns the name of the mechanism that triggered.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the standard list of block detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectGoogleSorry,
		detectRateLimit,
		detectCaptcha,
	}
}

// Analyze runs the response through all provided detectors and reports the
// first mechanism that triggered.
func Analyze(res *Response, detectors []Detector) (bool, string) {
	if res == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return true, source
		}
	}
	return false, ""
}

func getHeader(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	// Case-insensitive fallback
	lowerKey := strings.ToLower(key)
	for k, vals := range headers {
		if strings.ToLower(k) == lowerKey && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// detectGoogleSorry looks for the interstitial Google serves from
// google.com/sorry when it suspects automation.
func detectGoogleSorry(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusTooManyRequests ||
		res.StatusCode == http.StatusServiceUnavailable || res.StatusCode == http.StatusOK {
		if bytes.Contains(res.Body, []byte("/sorry/index")) ||
			bytes.Contains(res.Body, []byte("detected unusual traffic")) ||
			bytes.Contains(res.Body, []byte("Our systems have detected unusual traffic")) {
			return true, "GoogleSorry"
		}
	}
	return false, ""
}

// detectRateLimit flags plain 429 responses.
func detectRateLimit(res *Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimit"
	}
	if getHeader(res.Headers, "Retry-After") != "" && res.StatusCode >= 400 {
		return true, "RateLimit"
	}
	return false, ""
}

// detectCaptcha looks for generic captcha challenge markers.
func detectCaptcha(res *Response) (bool, string) {
	if res.StatusCode >= 200 && res.StatusCode < 500 {
		if bytes.Contains(res.Body, []byte("g-recaptcha")) ||
			bytes.Contains(res.Body, []byte("recaptcha/api")) ||
			bytes.Contains(res.Body, []byte("captcha-form")) {
			return true, "Captcha"
		}
	}
	return false, ""
}
