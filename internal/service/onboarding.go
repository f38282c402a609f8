package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
)

// MaxPhotoSize caps profile photo uploads.
const MaxPhotoSize = 5 << 20

const avatarURLExpiry = time.Hour

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type nameInput struct {
	FullName string `validate:"required,max=128"`
}

type cityInput struct {
	City string `validate:"required,max=128"`
}

// Onboarding fills in the profile fields that make a user onboarding
// complete, plus the optional photo.
type Onboarding struct {
	profiles model.ProfileStore
	storage  model.ObjectStorage
	validate *validator.Validate
	logger   *logger.Logger
}

func NewOnboarding(profiles model.ProfileStore, storage model.ObjectStorage, logger *logger.Logger) *Onboarding {
	return &Onboarding{
		profiles: profiles,
		storage:  storage,
		validate: validator.New(),
		logger:   logger,
	}
}

// Profile returns the user's profile, provisioning it when the sign-in
// callback could not.
func (o *Onboarding) Profile(ctx context.Context, user model.User) (model.Profile, error) {
	profile, err := o.profiles.GetByUserID(ctx, user.ID)
	if errors.Is(err, model.ErrNotFound) {
		o.logger.Info("Onboarding service: provisioning missing profile",
			"user_id", user.ID)
		return o.profiles.Create(ctx, model.Profile{UserID: user.ID, Email: user.Email})
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (o *Onboarding) SetName(ctx context.Context, user model.User, fullName string) (model.Profile, error) {
	in := nameInput{FullName: strings.TrimSpace(fullName)}
	if err := o.validate.Struct(in); err != nil {
		return model.Profile{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	return o.update(ctx, user, func(ctx context.Context) (model.Profile, error) {
		return o.profiles.UpdateFullName(ctx, user.ID, in.FullName)
	})
}

func (o *Onboarding) SetCity(ctx context.Context, user model.User, city string) (model.Profile, error) {
	in := cityInput{City: strings.TrimSpace(city)}
	if err := o.validate.Struct(in); err != nil {
		return model.Profile{}, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}

	return o.update(ctx, user, func(ctx context.Context) (model.Profile, error) {
		return o.profiles.UpdateCity(ctx, user.ID, in.City)
	})
}

// SetPhoto stores a new profile photo and points the profile at it. The
// previous photo is removed once the profile no longer references it.
func (o *Onboarding) SetPhoto(ctx context.Context, user model.User, photo io.Reader, size int64, contentType string) (model.Profile, error) {
	ext, ok := photoExtensions[contentType]
	if !ok {
		return model.Profile{}, fmt.Errorf("%w: unsupported photo type %q", model.ErrInvalidInput, contentType)
	}
	if size <= 0 || size > MaxPhotoSize {
		return model.Profile{}, fmt.Errorf("%w: photo size %d out of range", model.ErrInvalidInput, size)
	}

	current, err := o.Profile(ctx, user)
	if err != nil {
		return model.Profile{}, err
	}

	key := fmt.Sprintf("avatars/%s/%s.%s", user.ID, uuid.NewString(), ext)
	if err := o.storage.Upload(ctx, key, photo, size, contentType); err != nil {
		return model.Profile{}, fmt.Errorf("failed to store photo: %w", err)
	}

	profile, err := o.profiles.UpdateAvatar(ctx, user.ID, key)
	if err != nil {
		if delErr := o.storage.Delete(ctx, key); delErr != nil {
			o.logger.Warn("Onboarding service: failed to remove orphaned photo",
				"key", key,
				"error", delErr.Error())
		}
		return model.Profile{}, fmt.Errorf("failed to update avatar: %w", err)
	}

	if current.AvatarKey != nil && *current.AvatarKey != key {
		if err := o.storage.Delete(ctx, *current.AvatarKey); err != nil {
			o.logger.Warn("Onboarding service: failed to remove previous photo",
				"key", *current.AvatarKey,
				"error", err.Error())
		}
	}

	return profile, nil
}

// PhotoURL returns a temporary download URL for the profile photo, or ""
// when there is none.
func (o *Onboarding) PhotoURL(ctx context.Context, profile model.Profile) string {
	if profile.AvatarKey == nil {
		return ""
	}
	u, err := o.storage.URL(ctx, *profile.AvatarKey, avatarURLExpiry)
	if err != nil {
		o.logger.Warn("Onboarding service: failed to presign photo",
			"user_id", profile.UserID,
			"error", err.Error())
		return ""
	}
	return u
}

// update runs apply, provisioning the profile first when it does not
// exist yet.
func (o *Onboarding) update(ctx context.Context, user model.User, apply func(context.Context) (model.Profile, error)) (model.Profile, error) {
	profile, err := apply(ctx)
	if errors.Is(err, model.ErrNotFound) {
		if _, err := o.profiles.Create(ctx, model.Profile{UserID: user.ID, Email: user.Email}); err != nil {
			return model.Profile{}, fmt.Errorf("failed to provision profile: %w", err)
		}
		profile, err = apply(ctx)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
