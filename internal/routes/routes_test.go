package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		path       string
		public     bool
		auth       bool
		onboarding bool
	}{
		{path: "/home", public: true},
		{path: "/login", public: true, auth: true},
		{path: "/login/otp", public: true, auth: true},
		{path: "/signup", public: true, auth: true},
		{path: "/otp", public: true, auth: true},
		{path: "/forgot-password", public: true, auth: true},
		{path: "/reset-link-sent", public: true, auth: true},
		{path: "/vendor-login", public: true, auth: true},
		{path: "/loginx"},
		{path: "/homes"},
		{path: "/", public: false},
		{path: "/events/list"},
		{path: "/onboarding/name", onboarding: true},
		{path: "/onboarding/location", onboarding: true},
		{path: "/onboarding/photo", onboarding: true},
		{path: "/onboarding/other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.public, IsPublic(tt.path), "public")
			assert.Equal(t, tt.auth, IsAuth(tt.path), "auth")
			assert.Equal(t, tt.onboarding, IsOnboarding(tt.path), "onboarding")
		})
	}
}

func TestIsInternal(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{target: "/events/list", want: true},
		{target: "/plan?step=3", want: true},
		{target: "/vendors/v1#reviews", want: true},
		{target: "/search?q=a:b", want: true},
		{target: "/events/2025:summer", want: true},
		{target: "", want: false},
		{target: "events", want: false},
		{target: "//evil.example", want: false},
		{target: "/\\evil.example", want: false},
		{target: "https://evil.example/", want: false},
		{target: "/javascript:alert(1)", want: false},
		{target: "/javascript:alert(1)/x", want: false},
		{target: "/a\nb", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInternal(tt.target))
		})
	}
}

func TestIsStaticAsset(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/_next/static/chunks/main.js", true},
		{"/_next/image", true},
		{"/favicon.ico", true},
		{"/images/hero.PNG", true},
		{"/static/app.css", true},
		{"/events/list", false},
		{"/staticky", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStaticAsset(tt.path))
		})
	}
}
