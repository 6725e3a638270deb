package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/contentstore/inmemory"
	"github.com/specialistvlad/charsmith/internal/contentstore/sqlite"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
)

// openStore returns the content store for this run with the loaded objects
// imported into it. The returned close function is never nil.
func (a *App) openStore(ctx context.Context) (content.Store, func() error, error) {
	logger := ctxlog.FromContext(ctx)

	if a.config.StorePath == "" {
		store := inmemory.New()
		if err := store.Put(ctx, a.model.Objects...); err != nil {
			return nil, nil, err
		}
		logger.Debug("Content kept in memory.", "objects", store.Len())
		return store, func() error { return nil }, nil
	}

	store, err := sqlite.Open(ctx, a.config.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open content store: %w", err)
	}
	if err := store.Put(ctx, a.model.Objects...); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to import content: %w", err)
	}
	counts, err := store.Count(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	logger.Info("Content imported into store.", "path", a.config.StorePath, "imported", len(a.model.Objects), "stored", counts)
	return store, store.Close, nil
}
