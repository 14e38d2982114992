package useragent

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want Family
	}{
		{
			name: "chrome windows",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			want: FamilyChrome,
		},
		{
			name: "edge counts as chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			want: FamilyChrome,
		},
		{
			name: "firefox",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
			want: FamilyFirefox,
		},
		{
			name: "safari without chrome token",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
			want: FamilySafari,
		},
		{
			name: "unrecognized",
			ua:   "curl/8.4.0",
			want: FamilyAny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ua); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.ua, got, tt.want)
			}
		})
	}
}

func TestNextRoundRobin(t *testing.T) {
	p := NewPool([]string{"ua-one Chrome/1", "ua-two Firefox/1"})

	first := p.Next()
	second := p.Next()
	third := p.Next()

	if first == second {
		t.Errorf("expected rotation, got %q twice", first)
	}
	if third != first {
		t.Errorf("expected wrap-around to %q, got %q", first, third)
	}
}

func TestRandomCoversPool(t *testing.T) {
	p := NewPool([]string{"alpha Chrome/1", "beta Chrome/2"})

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		seen[p.Random()] = true
	}
	if len(seen) != 2 {
		t.Errorf("expected both agents drawn over 50 tries, got %v", seen)
	}
}

func TestRandomForMatchesFamily(t *testing.T) {
	p := NewPool(nil) // default set spans all three families

	for _, f := range []Family{FamilyChrome, FamilyFirefox, FamilySafari} {
		for i := 0; i < 20; i++ {
			ua := p.RandomFor(f)
			if got := Classify(ua); got != f {
				t.Fatalf("RandomFor(%q) returned a %q agent: %s", f, got, ua)
			}
		}
	}
}

func TestRandomForAnyDrawsWholePool(t *testing.T) {
	p := NewPool([]string{"only Firefox/1"})
	if ua := p.RandomFor(FamilyAny); !strings.Contains(ua, "Firefox") {
		t.Errorf("RandomFor(any) = %q", ua)
	}
}

func TestRandomForFallsBackWhenFamilyAbsent(t *testing.T) {
	// A single-browser custom list must stay usable regardless of the
	// requested family.
	p := NewPool([]string{"custom Firefox/999"})
	if ua := p.RandomFor(FamilyChrome); ua != "custom Firefox/999" {
		t.Errorf("expected fallback to the whole pool, got %q", ua)
	}
}

func TestNewPoolDefaults(t *testing.T) {
	p := NewPool(nil)
	if len(p.All()) == 0 {
		t.Fatal("expected default agents")
	}
	for _, ua := range p.All() {
		if Classify(ua) == FamilyAny {
			t.Errorf("default agent has no family: %s", ua)
		}
	}
}

func TestNewPoolCopiesInput(t *testing.T) {
	in := []string{"first Chrome/1", "second Chrome/2"}
	p := NewPool(in)
	in[0] = "mutated"

	if p.All()[0] != "first Chrome/1" {
		t.Error("pool should not alias the caller's slice")
	}
}
