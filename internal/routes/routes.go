// Package routes classifies application paths for admission and redirect
// validation.
package routes

import (
	"path"
	"strings"
)

const (
	Root           = "/"
	Home           = "/home"
	Login          = "/login"
	Signup         = "/signup"
	OTP            = "/otp"
	ForgotPassword = "/forgot-password"
	ResetLinkSent  = "/reset-link-sent"
	VendorLogin    = "/vendor-login"

	OnboardingName     = "/onboarding/name"
	OnboardingLocation = "/onboarding/location"
	OnboardingPhoto    = "/onboarding/photo"
)

var (
	authRoutes       = []string{Login, Signup, OTP, ForgotPassword, ResetLinkSent, VendorLogin}
	publicRoutes     = append([]string{Home}, authRoutes...)
	onboardingRoutes = []string{OnboardingName, OnboardingLocation, OnboardingPhoto}

	staticPrefixes   = []string{"/static", "/_next/static", "/_next/image", "/favicon.ico"}
	staticExtensions = map[string]bool{
		".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
	}
)

// IsPublic reports whether path is reachable without a session.
func IsPublic(path string) bool {
	return matchAny(path, publicRoutes)
}

// IsAuth reports whether path belongs to the sign-in, sign-up or recovery flow.
func IsAuth(path string) bool {
	return matchAny(path, authRoutes)
}

// IsOnboarding reports whether path is one of the onboarding steps.
func IsOnboarding(path string) bool {
	return matchAny(path, onboardingRoutes)
}

// IsStaticAsset reports whether path is a bundle, optimized image or image
// file. Such requests never go through admission.
func IsStaticAsset(p string) bool {
	if matchAny(p, staticPrefixes) {
		return true
	}
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

// IsInternal reports whether target is a same-origin absolute path. Query
// strings and fragments are allowed; schemes, hosts and backslashes are not.
// A colon is only refused in the first segment, where it could read as a
// scheme.
func IsInternal(target string) bool {
	if target == "" || target[0] != '/' {
		return false
	}
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return false
	}
	if strings.ContainsAny(target, "\\\r\n\t") {
		return false
	}
	first := PathOf(target)[1:]
	if i := strings.IndexByte(first, '/'); i >= 0 {
		first = first[:i]
	}
	return !strings.Contains(first, ":")
}

// PathOf strips the query string and fragment from target.
func PathOf(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		return target[:i]
	}
	return target
}

// matchAny is a segment-aware prefix match: "/login" matches "/login" and
// "/login/magic" but not "/loginx".
func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
