package utils

import (
	"strings"
	"testing"
	"time"
)

func TestIsValidURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{"  https://example.com  ", true},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"example.com", false},
		{"https://", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsValidURL(tc.in); got != tc.want {
			t.Errorf("IsValidURL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("hello *world* <script>alert(1)</script>"))
	if !strings.Contains(out, "<em>world</em>") {
		t.Errorf("markdown not rendered: %q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script tag survived sanitization: %q", out)
	}
}

func TestRenderMarkdownLinkPolicy(t *testing.T) {
	out := string(RenderMarkdown("[site](https://example.com)"))
	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("external link missing target blank: %q", out)
	}
}

func TestCacheTTL(t *testing.T) {
	c := NewCache(4)
	c.Set("k", "v", 50*time.Millisecond)
	if got := c.Get("k"); got != "v" {
		t.Fatalf("Get before expiry = %v, want v", got)
	}
	time.Sleep(60 * time.Millisecond)
	if got := c.Get("k"); got != nil {
		t.Fatalf("Get after expiry = %v, want nil", got)
	}
}

func TestCachePurge(t *testing.T) {
	c := NewCache(4)
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Purge()
	if c.Get("a") != nil || c.Get("b") != nil {
		t.Fatal("entries survived Purge")
	}
}
