package proxy

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAddAndNextRoundRobin(t *testing.T) {
	p := NewPool(Config{})
	if err := p.Add("http://proxy1:8080", "http://proxy2:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first := p.Next()
	second := p.Next()
	third := p.Next()

	if first == nil || second == nil || third == nil {
		t.Fatal("expected non-nil proxies from a populated pool")
	}
	if first.Host == second.Host {
		t.Errorf("expected rotation, got %s twice", first.Host)
	}
	if third.Host != first.Host {
		t.Errorf("expected wrap-around to %s, got %s", first.Host, third.Host)
	}
}

func TestAddDefaultsScheme(t *testing.T) {
	p := NewPool(Config{})
	if err := p.Add("proxy1:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	u := p.Next()
	if u.Scheme != "http" {
		t.Errorf("expected http scheme default, got %q", u.Scheme)
	}
}

func TestNextEmptyPool(t *testing.T) {
	p := NewPool(Config{})
	if u := p.Next(); u != nil {
		t.Errorf("expected nil from empty pool, got %v", u)
	}
}

func TestMarkFailureBenchesProxy(t *testing.T) {
	p := NewPool(Config{MaxFailures: 2, Cooldown: time.Hour})
	if err := p.Add("http://bad:8080", "http://good:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	bad, _ := url.Parse("http://bad:8080")
	for i := 0; i < 2; i++ {
		if err := p.MarkFailure(bad); err != nil {
			t.Fatalf("MarkFailure: %v", err)
		}
	}

	// The benched proxy must be skipped on every subsequent draw.
	for i := 0; i < 4; i++ {
		u := p.Next()
		if u == nil {
			t.Fatal("expected the healthy proxy, got nil")
		}
		if u.Host == "bad:8080" {
			t.Fatal("benched proxy was handed out")
		}
	}
}

func TestMarkFailureAllBenched(t *testing.T) {
	p := NewPool(Config{MaxFailures: 1, Cooldown: time.Hour})
	if err := p.Add("http://only:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	only, _ := url.Parse("http://only:8080")
	if err := p.MarkFailure(only); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}
	if u := p.Next(); u != nil {
		t.Errorf("expected nil when every proxy is benched, got %v", u)
	}
}

func TestCooldownRevivesProxy(t *testing.T) {
	p := NewPool(Config{MaxFailures: 1, Cooldown: 10 * time.Millisecond})
	if err := p.Add("http://only:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	only, _ := url.Parse("http://only:8080")
	if err := p.MarkFailure(only); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}
	if u := p.Next(); u != nil {
		t.Fatalf("expected nil while cooling down, got %v", u)
	}

	time.Sleep(20 * time.Millisecond)
	if u := p.Next(); u == nil {
		t.Fatal("expected proxy back in rotation after cooldown")
	}
}

func TestMarkSuccessDecaysFailures(t *testing.T) {
	p := NewPool(Config{MaxFailures: 2, Cooldown: time.Hour})
	if err := p.Add("http://flaky:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	flaky, _ := url.Parse("http://flaky:8080")
	if err := p.MarkFailure(flaky); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}
	if err := p.MarkSuccess(flaky); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}
	// One failure was decayed, so one more should not bench it.
	if err := p.MarkFailure(flaky); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}
	if u := p.Next(); u == nil {
		t.Fatal("proxy was benched despite the decayed failure")
	}
}

func TestMarkUnknownProxy(t *testing.T) {
	p := NewPool(Config{})
	stranger, _ := url.Parse("http://stranger:8080")
	if err := p.MarkFailure(stranger); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy, got %v", err)
	}
	if err := p.MarkSuccess(stranger); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy, got %v", err)
	}
}

func TestMarkNilURL(t *testing.T) {
	p := NewPool(Config{})
	if err := p.MarkSuccess(nil); err != nil {
		t.Errorf("MarkSuccess(nil) = %v, want nil", err)
	}
	if err := p.MarkFailure(nil); err != nil {
		t.Errorf("MarkFailure(nil) = %v, want nil", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "# residential pool\nhttp://proxy1:8080\n\nproxy2:3128\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	p := NewPool(Config{})
	if err := p.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 proxies loaded, got %d", p.Len())
	}
}

func TestLoadFileMissing(t *testing.T) {
	p := NewPool(Config{})
	if err := p.LoadFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
