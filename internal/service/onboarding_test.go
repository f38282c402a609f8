package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	servermocks "github.com/dtroode/eventhub-server/internal/mocks"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestOnboarding_Profile_ProvisionsMissing(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Email: "a@example.com"}
	profiles := &servermocks.ProfileStore{}

	profiles.On("GetByUserID", ctx, user.ID).Return(model.Profile{}, model.ErrNotFound).Once()
	profiles.On("Create", ctx, model.Profile{UserID: user.ID, Email: user.Email}).
		Return(model.Profile{UserID: user.ID, Email: user.Email}, nil).Once()

	svc := NewOnboarding(profiles, &servermocks.ObjectStorage{}, testutil.MakeNoopLogger())

	p, err := svc.Profile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	profiles.AssertExpectations(t)
}

func TestOnboarding_SetName(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Email: "a@example.com"}

	t.Run("trims and stores", func(t *testing.T) {
		profiles := &servermocks.ProfileStore{}
		profiles.On("UpdateFullName", ctx, user.ID, "Asha Rao").
			Return(model.Profile{UserID: user.ID, FullName: strPtr("Asha Rao")}, nil).Once()

		svc := NewOnboarding(profiles, &servermocks.ObjectStorage{}, testutil.MakeNoopLogger())

		p, err := svc.SetName(ctx, user, "  Asha Rao ")
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", *p.FullName)
	})

	t.Run("blank is rejected", func(t *testing.T) {
		svc := NewOnboarding(&servermocks.ProfileStore{}, &servermocks.ObjectStorage{}, testutil.MakeNoopLogger())

		_, err := svc.SetName(ctx, user, "   ")
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("provisions profile when missing", func(t *testing.T) {
		profiles := &servermocks.ProfileStore{}
		profiles.On("UpdateFullName", ctx, user.ID, "Asha").Return(model.Profile{}, model.ErrNotFound).Once()
		profiles.On("Create", ctx, mock.Anything).Return(model.Profile{UserID: user.ID}, nil).Once()
		profiles.On("UpdateFullName", ctx, user.ID, "Asha").
			Return(model.Profile{UserID: user.ID, FullName: strPtr("Asha")}, nil).Once()

		svc := NewOnboarding(profiles, &servermocks.ObjectStorage{}, testutil.MakeNoopLogger())

		p, err := svc.SetName(ctx, user, "Asha")
		require.NoError(t, err)
		assert.Equal(t, "Asha", *p.FullName)
		profiles.AssertExpectations(t)
	})
}

func TestOnboarding_SetCity(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New()}
	profiles := &servermocks.ProfileStore{}
	profiles.On("UpdateCity", ctx, user.ID, "Chennai").Return(model.Profile{}, assert.AnError).Once()

	svc := NewOnboarding(profiles, &servermocks.ObjectStorage{}, testutil.MakeNoopLogger())

	_, err := svc.SetCity(ctx, user, "Chennai")
	require.ErrorIs(t, err, assert.AnError)

	_, err = svc.SetCity(ctx, user, strings.Repeat("x", 129))
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestOnboarding_SetPhoto(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New()}
	oldKey := "avatars/old.png"

	profiles := &servermocks.ProfileStore{}
	storage := &servermocks.ObjectStorage{}

	profiles.On("GetByUserID", ctx, user.ID).Return(model.Profile{UserID: user.ID, AvatarKey: &oldKey}, nil).Once()
	storage.On("Upload", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/"+user.ID.String()+"/") && strings.HasSuffix(key, ".png")
	}), mock.Anything, int64(3), "image/png").Return(nil).Once()
	profiles.On("UpdateAvatar", ctx, user.ID, mock.AnythingOfType("string")).
		Return(model.Profile{UserID: user.ID, AvatarKey: strPtr("avatars/new.png")}, nil).Once()
	storage.On("Delete", ctx, oldKey).Return(nil).Once()

	svc := NewOnboarding(profiles, storage, testutil.MakeNoopLogger())

	p, err := svc.SetPhoto(ctx, user, strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "avatars/new.png", *p.AvatarKey)
	storage.AssertExpectations(t)
}

func TestOnboarding_SetPhoto_Rejected(t *testing.T) {
	ctx := context.Background()
	svc := NewOnboarding(&servermocks.ProfileStore{}, &servermocks.ObjectStorage{}, testutil.MakeNoopLogger())
	user := model.User{ID: uuid.New()}

	_, err := svc.SetPhoto(ctx, user, strings.NewReader("gif"), 3, "image/gif")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.SetPhoto(ctx, user, strings.NewReader(""), MaxPhotoSize+1, "image/png")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestOnboarding_SetPhoto_UpdateFailureRemovesUpload(t *testing.T) {
	ctx := context.Background()
	user := model.User{ID: uuid.New()}

	profiles := &servermocks.ProfileStore{}
	storage := &servermocks.ObjectStorage{}

	profiles.On("GetByUserID", ctx, user.ID).Return(model.Profile{UserID: user.ID}, nil).Once()
	storage.On("Upload", ctx, mock.Anything, mock.Anything, int64(3), "image/jpeg").Return(nil).Once()
	profiles.On("UpdateAvatar", ctx, user.ID, mock.Anything).Return(model.Profile{}, assert.AnError).Once()
	storage.On("Delete", ctx, mock.Anything).Return(nil).Once()

	svc := NewOnboarding(profiles, storage, testutil.MakeNoopLogger())

	_, err := svc.SetPhoto(ctx, user, strings.NewReader("jpg"), 3, "image/jpeg")
	require.ErrorIs(t, err, assert.AnError)
	storage.AssertExpectations(t)
}

func TestOnboarding_PhotoURL(t *testing.T) {
	ctx := context.Background()
	storage := &servermocks.ObjectStorage{}
	storage.On("URL", ctx, "avatars/a.png", avatarURLExpiry).Return("http://minio/a.png", nil).Once()

	svc := NewOnboarding(&servermocks.ProfileStore{}, storage, testutil.MakeNoopLogger())

	assert.Empty(t, svc.PhotoURL(ctx, model.Profile{}))
	assert.Equal(t, "http://minio/a.png", svc.PhotoURL(ctx, model.Profile{AvatarKey: strPtr("avatars/a.png")}))
}
