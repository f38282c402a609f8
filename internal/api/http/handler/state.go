// Package handler contains the HTTP handlers of the gateway.
package handler

import (
	"context"

	"github.com/dtroode/eventhub-server/internal/kv"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/redirect"
	"github.com/dtroode/eventhub-server/internal/wizard"
)

// ClientState opens the per-client stores of a request. The client id is
// placed in the context by the ClientID middleware.
type ClientState struct {
	kv     model.KeyValueStore
	ctxMgr model.ContextManager
	logger *logger.Logger
}

func NewClientState(store model.KeyValueStore, ctxMgr model.ContextManager, logger *logger.Logger) *ClientState {
	return &ClientState{kv: store, ctxMgr: ctxMgr, logger: logger}
}

// Redirects returns the redirect store of the requesting client.
func (s *ClientState) Redirects(ctx context.Context) (*redirect.Store, bool) {
	store, ok := s.scoped(ctx)
	if !ok {
		return nil, false
	}
	return redirect.NewStore(store, s.logger), true
}

// Wizard returns the wizard store of the requesting client.
func (s *ClientState) Wizard(ctx context.Context) (*wizard.Store, bool) {
	store, ok := s.scoped(ctx)
	if !ok {
		return nil, false
	}
	return wizard.NewStore(store, s.logger), true
}

func (s *ClientState) scoped(ctx context.Context) (model.KeyValueStore, bool) {
	id, ok := s.ctxMgr.GetClientIDFromContext(ctx)
	if !ok {
		return nil, false
	}
	return kv.Scope(s.kv, id), true
}
