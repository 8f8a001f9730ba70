// Package cli wires the resolved configuration into the clients commands
// run on. The store and engine are always built; git, GitHub and S3 clients
// are built on demand so commands that never touch them work without a work
// repository, token or mirror configured.
package cli

import (
	"context"
	"fmt"

	"github.com/clyso/crt/internal/apply"
	"github.com/clyso/crt/internal/config"
	"github.com/clyso/crt/internal/engine"
	"github.com/clyso/crt/internal/git"
	"github.com/clyso/crt/internal/github"
	"github.com/clyso/crt/internal/ingest"
	"github.com/clyso/crt/internal/mirror"
	"github.com/clyso/crt/internal/model"
	"github.com/clyso/crt/internal/store"
)

// App holds the clients shared by all commands
type App struct {
	Config *config.Config
	Store  *store.Store
	Engine *engine.Client
}

// Load resolves the configuration and opens the store. An empty configPath
// means the default location.
func Load(configPath string) (*App, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	return &App{
		Config: cfg,
		Store:  st,
		Engine: engine.New(st),
	}, nil
}

// Ensure returns app unchanged when a command was constructed with one
// injected, and loads a fresh one otherwise
func Ensure(app *App, configPath string) (*App, error) {
	if app != nil {
		return app, nil
	}
	return Load(configPath)
}

// WorkRepo opens the configured materialization repository
func (a *App) WorkRepo() (*git.Client, error) {
	if a.Config.WorkRepo == "" {
		return nil, &WorkRepoUnsetError{}
	}
	repo, err := git.NewClient(a.Config.WorkRepo)
	if err != nil {
		return nil, fmt.Errorf("failed to open work repository: %w", err)
	}
	return repo, nil
}

// Materializer builds the branch materializer on the work repository
func (a *App) Materializer() (*apply.Materializer, error) {
	repo, err := a.WorkRepo()
	if err != nil {
		return nil, err
	}
	return apply.New(a.Store, repo), nil
}

// Ingester builds the pull request ingester. The explicit token, when set,
// wins over the configured one; both empty falls back to gh auth token.
func (a *App) Ingester(token string) (*ingest.Ingester, error) {
	resolved, err := github.ResolveToken(token, a.Config.GithubToken)
	if err != nil {
		return nil, err
	}
	return ingest.New(github.NewClient(resolved), a.Store), nil
}

// PatchSets loads every patch set a manifest references. Unknown UUIDs map
// to nil so views can surface the hole instead of failing outright.
func (a *App) PatchSets(m *model.Manifest) (map[string]*model.PatchSet, error) {
	sets := make(map[string]*model.PatchSet)
	for _, uuid := range m.EffectiveSequence() {
		ps, err := a.Store.GetPatchSet(uuid)
		if store.IsNotFound(err) {
			sets[uuid] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		sets[uuid] = ps
	}
	return sets, nil
}

// Mirror builds the S3 store mirror from the configured endpoint
func (a *App) Mirror(ctx context.Context) (*mirror.Mirror, error) {
	if !a.Config.MirrorConfigured() {
		return nil, &MirrorUnsetError{}
	}
	client, err := mirror.NewS3Client(ctx, a.Config.S3)
	if err != nil {
		return nil, err
	}
	return mirror.New(client, a.Store, a.Config.S3.Bucket, a.Config.S3.Prefix), nil
}
