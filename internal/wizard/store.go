// Package wizard persists the event planning wizard draft of a client.
//
// Every mutation is written through to the underlying key-value store before
// it returns, so a client that leaves to authenticate finds the draft exactly
// as it left it.
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/routes"
)

const (
	draftKey  = "event_wizard"
	returnKey = "wizard_return"
)

type occasionInput struct {
	Occasion string `validate:"required,max=64"`
}

type dateInput struct {
	Date string `validate:"required,datetime=2006-01-02"`
}

type guestsInput struct {
	GuestCount int `validate:"min=1,max=100000"`
}

type budgetInput struct {
	Min int64 `validate:"gte=0"`
	Max int64 `validate:"gtefield=Min"`
}

type stepInput struct {
	Step int `validate:"min=1"`
}

// Store reads and writes one client's wizard draft.
type Store struct {
	kv       model.KeyValueStore
	logger   *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store over a client-scoped key-value store.
func NewStore(kv model.KeyValueStore, logger *logger.Logger, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draft returns the saved draft, or the defaults when nothing usable is saved.
func (s *Store) Draft(ctx context.Context) (model.WizardDraft, error) {
	raw, found, err := s.kv.Get(ctx, draftKey)
	if err != nil {
		return model.WizardDraft{}, fmt.Errorf("failed to load wizard draft: %w", err)
	}
	if !found {
		return model.NewWizardDraft(), nil
	}

	draft := model.NewWizardDraft()
	if err := json.Unmarshal(raw, &draft); err != nil {
		s.logger.Warn("Wizard store: discarding malformed draft",
			"error", err.Error())
		return model.NewWizardDraft(), nil
	}
	if draft.Items == nil {
		draft.Items = []model.SelectedVendorItem{}
	}

	return draft, nil
}

func (s *Store) SetOccasion(ctx context.Context, occasion string) (model.WizardDraft, error) {
	if err := s.check(occasionInput{Occasion: occasion}); err != nil {
		return model.WizardDraft{}, err
	}
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		d.Occasion = occasion
		return true
	})
}

// SetDate sets the event date, formatted YYYY-MM-DD.
func (s *Store) SetDate(ctx context.Context, date string) (model.WizardDraft, error) {
	if err := s.check(dateInput{Date: date}); err != nil {
		return model.WizardDraft{}, err
	}
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		d.EventDate = &date
		return true
	})
}

func (s *Store) SetGuestCount(ctx context.Context, count int) (model.WizardDraft, error) {
	if err := s.check(guestsInput{GuestCount: count}); err != nil {
		return model.WizardDraft{}, err
	}
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		d.GuestCount = count
		return true
	})
}

func (s *Store) SetBudget(ctx context.Context, minBudget, maxBudget int64) (model.WizardDraft, error) {
	if err := s.check(budgetInput{Min: minBudget, Max: maxBudget}); err != nil {
		return model.WizardDraft{}, err
	}
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		d.BudgetMin = minBudget
		d.BudgetMax = maxBudget
		return true
	})
}

func (s *Store) SetStep(ctx context.Context, step int) (model.WizardDraft, error) {
	if err := s.check(stepInput{Step: step}); err != nil {
		return model.WizardDraft{}, err
	}
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		d.Step = step
		return true
	})
}

// AddItem shortlists a vendor offer. Adding a vendor that is already
// selected leaves the draft untouched.
func (s *Store) AddItem(ctx context.Context, item model.SelectedVendorItem) (model.WizardDraft, error) {
	if err := s.check(item); err != nil {
		return model.WizardDraft{}, err
	}
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		if d.HasVendor(item.VendorID) {
			return false
		}
		d.Items = append(d.Items, item)
		return true
	})
}

func (s *Store) RemoveItem(ctx context.Context, vendorID string) (model.WizardDraft, error) {
	return s.mutate(ctx, func(d *model.WizardDraft) bool {
		kept := d.Items[:0]
		for _, item := range d.Items {
			if item.VendorID != vendorID {
				kept = append(kept, item)
			}
		}
		removed := len(kept) != len(d.Items)
		d.Items = kept
		return removed
	})
}

// Clear resets the draft to its defaults.
func (s *Store) Clear(ctx context.Context) (model.WizardDraft, error) {
	draft := model.NewWizardDraft()
	draft.LastUpdated = s.now().UTC()
	if err := s.save(ctx, draft); err != nil {
		return model.WizardDraft{}, err
	}
	return draft, nil
}

// SaveReturn remembers the wizard page to resume after authentication.
func (s *Store) SaveReturn(ctx context.Context, path string, step *int) error {
	if !routes.IsInternal(path) {
		return fmt.Errorf("%w: return path must be an internal path", model.ErrInvalidInput)
	}
	if step != nil {
		if err := s.check(stepInput{Step: *step}); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(model.WizardReturn{Path: path, Step: step})
	if err != nil {
		return fmt.Errorf("failed to encode wizard return: %w", err)
	}
	if err := s.kv.Set(ctx, returnKey, raw); err != nil {
		return fmt.Errorf("failed to save wizard return: %w", err)
	}
	return nil
}

// Return reads the saved wizard return point.
func (s *Store) Return(ctx context.Context) (model.WizardReturn, bool, error) {
	raw, found, err := s.kv.Get(ctx, returnKey)
	if err != nil {
		return model.WizardReturn{}, false, fmt.Errorf("failed to load wizard return: %w", err)
	}
	if !found {
		return model.WizardReturn{}, false, nil
	}

	var ret model.WizardReturn
	if err := json.Unmarshal(raw, &ret); err != nil || !routes.IsInternal(ret.Path) {
		s.logger.Warn("Wizard store: discarding unusable return point")
		return model.WizardReturn{}, false, nil
	}
	return ret, true, nil
}

func (s *Store) ClearReturn(ctx context.Context) error {
	if err := s.kv.Delete(ctx, returnKey); err != nil {
		return fmt.Errorf("failed to clear wizard return: %w", err)
	}
	return nil
}

func (s *Store) mutate(ctx context.Context, apply func(*model.WizardDraft) bool) (model.WizardDraft, error) {
	draft, err := s.Draft(ctx)
	if err != nil {
		return model.WizardDraft{}, err
	}

	if !apply(&draft) {
		return draft, nil
	}

	draft.LastUpdated = s.now().UTC()
	if err := s.save(ctx, draft); err != nil {
		return model.WizardDraft{}, err
	}
	return draft, nil
}

func (s *Store) save(ctx context.Context, draft model.WizardDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode wizard draft: %w", err)
	}
	if err := s.kv.Set(ctx, draftKey, raw); err != nil {
		return fmt.Errorf("failed to save wizard draft: %w", err)
	}
	return nil
}

func (s *Store) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	return nil
}
