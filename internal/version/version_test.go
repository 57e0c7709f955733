package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	t.Parallel()

	first := Get()
	if first == "" {
		t.Fatal("Get() returned empty version")
	}
	if second := Get(); second != first {
		t.Errorf("Get() = %q on second call, want %q", second, first)
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	ua := UserAgent()
	if !strings.HasPrefix(ua, "storefront/") {
		t.Errorf("UserAgent() = %q, want storefront/ prefix", ua)
	}
	if !strings.HasSuffix(ua, Get()) {
		t.Errorf("UserAgent() = %q, want suffix %q", ua, Get())
	}
}
