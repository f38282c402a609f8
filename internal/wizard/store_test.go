package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/eventhub-server/internal/kv"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/testutil"
)

var fixedNow = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestStore(mem model.KeyValueStore) *Store {
	return NewStore(mem, testutil.MakeNoopLogger(), WithClock(func() time.Time { return fixedNow }))
}

func TestStore_DefaultDraft(t *testing.T) {
	s := newTestStore(kv.NewMemory())

	d, err := s.Draft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", d.Occasion)
	assert.Nil(t, d.EventDate)
	assert.Equal(t, 50, d.GuestCount)
	assert.Equal(t, int64(10_000), d.BudgetMin)
	assert.Equal(t, int64(500_000), d.BudgetMax)
	assert.Empty(t, d.Items)
	assert.Equal(t, 1, d.Step)
	assert.True(t, d.LastUpdated.IsZero())
}

func TestStore_Setters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kv.NewMemory())

	_, err := s.SetOccasion(ctx, "wedding")
	require.NoError(t, err)
	_, err = s.SetDate(ctx, "2026-12-20")
	require.NoError(t, err)
	_, err = s.SetGuestCount(ctx, 180)
	require.NoError(t, err)
	_, err = s.SetBudget(ctx, 200_000, 900_000)
	require.NoError(t, err)
	d, err := s.SetStep(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, "wedding", d.Occasion)
	require.NotNil(t, d.EventDate)
	assert.Equal(t, "2026-12-20", *d.EventDate)
	assert.Equal(t, 180, d.GuestCount)
	assert.Equal(t, int64(200_000), d.BudgetMin)
	assert.Equal(t, int64(900_000), d.BudgetMax)
	assert.Equal(t, 3, d.Step)
	assert.Equal(t, fixedNow, d.LastUpdated)
}

func TestStore_StepHasNoUpperBound(t *testing.T) {
	s := newTestStore(kv.NewMemory())

	d, err := s.SetStep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, d.Step)
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kv.NewMemory())

	tests := []struct {
		name string
		call func() error
	}{
		{"empty occasion", func() error { _, err := s.SetOccasion(ctx, ""); return err }},
		{"bad date", func() error { _, err := s.SetDate(ctx, "20/12/2026"); return err }},
		{"zero guests", func() error { _, err := s.SetGuestCount(ctx, 0); return err }},
		{"negative budget", func() error { _, err := s.SetBudget(ctx, -1, 100); return err }},
		{"inverted budget", func() error { _, err := s.SetBudget(ctx, 500, 100); return err }},
		{"step too low", func() error { _, err := s.SetStep(ctx, 0); return err }},
		{"negative step", func() error { _, err := s.SetStep(ctx, -2); return err }},
		{"item without vendor", func() error { _, err := s.AddItem(ctx, model.SelectedVendorItem{Price: 10}); return err }},
		{"negative price", func() error {
			_, err := s.AddItem(ctx, model.SelectedVendorItem{VendorID: "v1", Price: -5})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), model.ErrInvalidInput)
		})
	}

	d, err := s.Draft(ctx)
	require.NoError(t, err)
	assert.True(t, d.LastUpdated.IsZero(), "rejected input must not be persisted")
}

func TestStore_AddItemDeduplicatesByVendor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kv.NewMemory())

	item := model.SelectedVendorItem{VendorID: "v1", VendorName: "Lotus Caterers", Price: 45_000}
	_, err := s.AddItem(ctx, item)
	require.NoError(t, err)

	item.Price = 99_000
	d, err := s.AddItem(ctx, item)
	require.NoError(t, err)

	require.Len(t, d.Items, 1)
	assert.Equal(t, "v1", d.Items[0].VendorID)
	assert.Equal(t, int64(45_000), d.Items[0].Price)
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kv.NewMemory())

	for _, id := range []string{"v1", "v2", "v3"} {
		_, err := s.AddItem(ctx, model.SelectedVendorItem{VendorID: id})
		require.NoError(t, err)
	}

	d, err := s.RemoveItem(ctx, "v2")
	require.NoError(t, err)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "v1", d.Items[0].VendorID)
	assert.Equal(t, "v3", d.Items[1].VendorID)

	d, err = s.RemoveItem(ctx, "missing")
	require.NoError(t, err)
	assert.Len(t, d.Items, 2)
}

func TestStore_SurvivesAuthDetour(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	scope := kv.Scope(mem, "client-1")

	before := newTestStore(scope)
	_, err := before.SetOccasion(ctx, "birthday")
	require.NoError(t, err)
	_, err = before.AddItem(ctx, model.SelectedVendorItem{VendorID: "v7", Price: 12_000})
	require.NoError(t, err)
	saved, err := before.SetStep(ctx, 3)
	require.NoError(t, err)

	after := newTestStore(kv.Scope(mem, "client-1"))
	restored, err := after.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, restored)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kv.NewMemory())

	_, err := s.SetOccasion(ctx, "wedding")
	require.NoError(t, err)
	_, err = s.AddItem(ctx, model.SelectedVendorItem{VendorID: "v1"})
	require.NoError(t, err)

	d, err := s.Clear(ctx)
	require.NoError(t, err)

	want := model.NewWizardDraft()
	want.LastUpdated = fixedNow
	assert.Equal(t, want, d)

	loaded, err := s.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}

func TestStore_MalformedDraftFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, draftKey, []byte("][")))

	d, err := newTestStore(mem).Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NewWizardDraft(), d)
}

func TestStore_ReturnPoint(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(kv.NewMemory())

	_, found, err := s.Return(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	step := 2
	require.NoError(t, s.SaveReturn(ctx, "/plan-event", &step))

	ret, found, err := s.Return(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/plan-event", ret.Path)
	require.NotNil(t, ret.Step)
	assert.Equal(t, 2, *ret.Step)

	assert.ErrorIs(t, s.SaveReturn(ctx, "https://evil.example", nil), model.ErrInvalidInput)

	require.NoError(t, s.ClearReturn(ctx))
	_, found, err = s.Return(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}
