package backend

import (
	"context"

	"github.com/ridealert/go-helmet-api/alert"
	"github.com/ridealert/go-helmet-api/config"
	"github.com/ridealert/go-helmet-api/flow"
	"github.com/ridealert/go-helmet-api/helmet"
	"github.com/ridealert/go-helmet-api/logger"
	"github.com/ridealert/go-helmet-api/store"
)

type Backend struct {
	Store  *store.Store
	Flow   *flow.Flow
	Helmet *helmet.HelmetBackend
	Alert  *alert.AlertBackend

	ctx context.Context
}

func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	backend := Backend{ctx: ctx}

	st, err := store.New(cfg.Store, cfg.Helmet.DefaultName)
	if err != nil {
		return nil, err
	}
	backend.Store = st

	h, err := helmet.New(ctx, cfg.Helmet, st)
	if err != nil {
		return nil, err
	}
	backend.Helmet = h

	a, err := alert.New(ctx, cfg.Alert, st)
	if err != nil {
		return nil, err
	}
	backend.Alert = a

	backend.Flow = flow.New(ctx, cfg.Flow, st, newProber(h))

	return &backend, nil
}

func (b *Backend) Start() error {
	if err := b.Store.Start(b.ctx); err != nil {
		// A broken watcher degrades change notifications, not the store.
		logger.Warn("[backend] store watcher unavailable: %v", err)
	}

	if b.Helmet != nil {
		if err := b.Helmet.Start(); err != nil {
			return err
		}
		if err := b.Helmet.ReconnectFromSaved(b.ctx); err != nil {
			return err
		}
	}

	b.Flow.Start()
	return nil
}

func (b *Backend) Close() {
	if b.Helmet != nil {
		b.Helmet.Close()
	}
	b.Store.Close()
}
