package kv

import (
	"context"

	"github.com/dtroode/eventhub-server/internal/model"
)

type scoped struct {
	store  model.KeyValueStore
	prefix string
}

// Scope namespaces every key of store under clientID.
func Scope(store model.KeyValueStore, clientID string) model.KeyValueStore {
	return &scoped{store: store, prefix: clientID + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.prefix+key)
}
