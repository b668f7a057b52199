package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/talenthium/patchtree/internal/cachemanager"
	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/projectapi"
	"github.com/talenthium/patchtree/internal/render"
	"github.com/talenthium/patchtree/internal/store"
)

// apiCacheUseCase namespaces project service responses in the cache.
const apiCacheUseCase = "projectapi"

func newTheme(w io.Writer) render.Theme {
	return render.NewTheme(cfg.Theme.Mode, w)
}

// newAPIClient builds the project service client with the configured cache.
// The returned closer releases the cache backend.
func newAPIClient(ctx context.Context) (*projectapi.Client, io.Closer, error) {
	cache, closer, err := cachemanager.Open[[]byte](ctx, cfg.Cache, apiCacheUseCase)
	if err != nil {
		return nil, nil, err
	}

	client, err := projectapi.New(cfg.API.BaseURL, projectapi.AuthState{Token: cfg.Auth.Token},
		projectapi.WithTimeout(cfg.API.Timeout),
		projectapi.WithCache(cache, cfg.Cache.TTL),
		projectapi.WithTracer(traceProvider.Tracer()),
	)
	if err != nil {
		_ = closer.Close()
		return nil, nil, fmt.Errorf("creating project service client: %w", err)
	}
	if !client.Auth().Authenticated() {
		log.Warn(log.CatAPI, "No auth token configured; requests are anonymous")
	}
	return client, closer, nil
}

func openStore() (*store.DB, error) {
	db, err := store.NewDB(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store %s: %w", cfg.Store.Path, err)
	}
	return db, nil
}
