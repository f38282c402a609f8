package model

import "time"

// PendingRedirectTTL bounds how long a saved return path stays usable.
const PendingRedirectTTL = 30 * time.Minute

// PendingRedirect is where to send a user after authentication completes.
type PendingRedirect struct {
	Path       string    `json:"path"`
	SavedAt    time.Time `json:"savedAt"`
	WizardStep *int      `json:"wizardStep,omitempty"`
}

// Expired reports whether the record is past PendingRedirectTTL at now.
func (p PendingRedirect) Expired(now time.Time) bool {
	return now.Sub(p.SavedAt) > PendingRedirectTTL
}

// WizardReturn records the wizard page and step to resume after a detour.
type WizardReturn struct {
	Path string `json:"path"`
	Step *int   `json:"step,omitempty"`
}
