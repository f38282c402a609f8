// Package onboarding holds the profile completeness rule shared by route
// admission and the auth callback.
package onboarding

import "github.com/dtroode/eventhub-server/internal/model"

// IsComplete reports whether a profile has finished onboarding: both full
// name and city must be present and non-empty. A nil profile is incomplete.
func IsComplete(p *model.Profile) bool {
	if p == nil {
		return false
	}
	return present(p.FullName) && present(p.City)
}

func present(s *string) bool {
	return s != nil && *s != ""
}
