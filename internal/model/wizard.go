package model

import "time"

const (
	DefaultGuestCount = 50
	DefaultBudgetMin  = 10_000
	DefaultBudgetMax  = 500_000
	WizardFirstStep   = 1
)

// WizardDraft is the in-progress event planning form.
type WizardDraft struct {
	Occasion    string               `json:"occasion"`
	EventDate   *string              `json:"eventDate,omitempty"`
	GuestCount  int                  `json:"guestCount"`
	BudgetMin   int64                `json:"budgetMin"`
	BudgetMax   int64                `json:"budgetMax"`
	Items       []SelectedVendorItem `json:"items"`
	Step        int                  `json:"step"`
	LastUpdated time.Time            `json:"lastUpdated"`
}

// SelectedVendorItem is a vendor offer shortlisted in the wizard.
type SelectedVendorItem struct {
	VendorID    string  `json:"vendorId" validate:"required,max=128"`
	ServiceID   *string `json:"serviceId,omitempty" validate:"omitempty,max=128"`
	Price       int64   `json:"price" validate:"gte=0"`
	VendorName  string  `json:"vendorName" validate:"max=256"`
	ServiceName string  `json:"serviceName,omitempty" validate:"max=256"`
	Category    string  `json:"category,omitempty" validate:"max=64"`
	ImageURL    string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// NewWizardDraft returns a draft holding the initial defaults.
func NewWizardDraft() WizardDraft {
	return WizardDraft{
		GuestCount: DefaultGuestCount,
		BudgetMin:  DefaultBudgetMin,
		BudgetMax:  DefaultBudgetMax,
		Items:      []SelectedVendorItem{},
		Step:       WizardFirstStep,
	}
}

// HasVendor reports whether an item for vendorID is already selected.
func (d WizardDraft) HasVendor(vendorID string) bool {
	for _, item := range d.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}
