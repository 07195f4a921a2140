package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchDynamicSegments(t *testing.T) {
	paths := []string{"app/page.tsx", "app/users/[id]/page.tsx"}

	got, ok := Match("/users/42", paths)
	assert.True(t, ok)
	assert.Equal(t, "app/users/[id]/page.tsx", got)

	got, ok = Match("/users/42/extra", paths)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestMatchConventions(t *testing.T) {
	paths := []string{
		"src/app/page.js",
		"app/about/page.tsx",
		"app/blog/index.js",
		"src/app/shop/[slug]/page.tsx",
		"app/docs/[...rest]/page.tsx",
		"components/Widget.tsx",
	}
	cases := []struct {
		route, want string
		ok          bool
	}{
		{"/", "src/app/page.js", true},
		{"", "src/app/page.js", true},
		{"app", "src/app/page.js", true},
		{"/about", "app/about/page.tsx", true},
		{"about/", "app/about/page.tsx", true},
		{"https://example.com/about?tab=1#top", "app/about/page.tsx", true},
		{"/blog", "app/blog/index.js", true},
		{"app/about/page.tsx", "app/about/page.tsx", true},
		{"/shop/red-shoes", "src/app/shop/[slug]/page.tsx", true},
		{"/docs/intro", "app/docs/[...rest]/page.tsx", true},
		{"/missing", "", false},
		{"/components/Widget", "", false},
	}
	for _, tc := range cases {
		got, ok := Match(tc.route, paths)
		assert.Equal(t, tc.ok, ok, tc.route)
		assert.Equal(t, tc.want, got, tc.route)
	}
}

func TestNormalizeHostPort(t *testing.T) {
	cases := map[string]string{
		"localhost:3000/users/42":            "users/42",
		"localhost:3000":                     "",
		"127.0.0.1:8080/about?x=1":           "about",
		"http://localhost:3000/users/42#top": "users/42",
		"//cdn.example.com/docs/intro":       "docs/intro",
		"users:42":                           "users:42",
		"/users/42":                          "users/42",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestMatchHostPortRoute(t *testing.T) {
	paths := []string{"app/users/[id]/page.tsx", "app/page.tsx"}

	got, ok := Match("localhost:3000/users/42", paths)
	assert.True(t, ok)
	assert.Equal(t, "app/users/[id]/page.tsx", got)

	got, ok = Match("users:42", paths)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestMatchRootMiss(t *testing.T) {
	_, ok := Match("/", []string{"pages/index.tsx"})
	assert.False(t, ok)
}

func TestMatchPrefersLiteralSegments(t *testing.T) {
	paths := []string{"app/[section]/[action]/page.tsx", "app/users/[id]/page.tsx"}
	got, ok := Match("/users/new", paths)
	assert.True(t, ok)
	assert.Equal(t, "app/users/[id]/page.tsx", got)

	// equal scores fall back to snapshot order
	paths = []string{"app/[a]/x/page.tsx", "app/y/[b]/page.tsx"}
	got, _ = Match("/y/x", paths)
	assert.Equal(t, "app/[a]/x/page.tsx", got)
}

func TestIsDynamic(t *testing.T) {
	assert.True(t, IsDynamic("[id]"))
	assert.True(t, IsDynamic("[...slug]"))
	assert.False(t, IsDynamic("[]"))
	assert.False(t, IsDynamic("id"))
}
