// Package mirror wires catalogs, the resolver and the fetcher into one
// partial-mirror workflow: build a catalog per configured (repository,
// architecture) pair, resolve seed names to dependency closures and
// download every artifact in a closure exactly once.
package mirror

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ralt/repofetch/internal/catalog"
	"github.com/ralt/repofetch/internal/fetcher"
	"github.com/ralt/repofetch/internal/models"
	"github.com/ralt/repofetch/internal/resolver"
	"github.com/ralt/repofetch/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Mirror holds one catalog per configured (repository, architecture)
// pair, in configuration order, plus the fetcher used for database and
// artifact downloads.
type Mirror struct {
	resolver *resolver.Resolver
	fetcher  fetcher.Fetcher
	config   *models.MirrorConfig
}

// New fetches (or reuses) every configured database file and builds the
// catalogs and the resolver over them. Any catalog that cannot be built
// fails construction: a partial mirror would produce silently incomplete
// closures.
func New(ctx context.Context, config *models.MirrorConfig, f fetcher.Fetcher) (*Mirror, error) {
	var catalogs []*catalog.Catalog

	for _, repo := range config.Repos {
		for _, arch := range config.Arches {
			server := strings.NewReplacer("$repo", repo, "$arch", arch).Replace(config.Server)
			localDir := filepath.Join(config.OutputDir, repo, "os", arch)
			if err := utils.EnsureDir(localDir); err != nil {
				return nil, &models.MirrorError{
					Type:    models.ErrArchiveUnavailable,
					Subject: localDir,
					Err:     err,
				}
			}

			dbName := repo + ".db"
			dbPath := filepath.Join(localDir, dbName)
			if err := f.EnsureLocal(ctx, server+"/"+dbName, dbPath); err != nil {
				return nil, &models.MirrorError{
					Type:    models.ErrArchiveUnavailable,
					Subject: dbPath,
					Err:     err,
				}
			}

			cat, err := catalog.Load(repo, arch, server, localDir, dbPath)
			if err != nil {
				return nil, err
			}

			logrus.Infof("Catalog %s/%s loaded (%d packages)", repo, arch, cat.Len())
			catalogs = append(catalogs, cat)
		}
	}

	return &Mirror{
		resolver: resolver.New(catalogs),
		fetcher:  f,
		config:   config,
	}, nil
}

// Resolve resolves each seed name strictly and returns the dependency
// closure of the union, in breadth-first order.
func (m *Mirror) Resolve(names []string) ([]*models.Package, error) {
	var seeds []*models.Package
	seen := make(map[*models.Package]struct{})

	for _, name := range names {
		pkgs, err := m.resolver.ResolveName(name, true)
		if err != nil {
			return nil, err
		}
		for _, pkg := range pkgs {
			if _, dup := seen[pkg]; dup {
				continue
			}
			seen[pkg] = struct{}{}
			seeds = append(seeds, pkg)
		}
	}

	return m.resolver.ResolveDeps(seeds, m.config.OptDepends)
}

// Fetch resolves the seed names and downloads every artifact in the
// closure, at most config.Parallel at a time. Artifacts already on disk
// are skipped by the fetcher.
func (m *Mirror) Fetch(ctx context.Context, names []string) ([]*models.Package, error) {
	closure, err := m.Resolve(names)
	if err != nil {
		return nil, err
	}

	// The whole closure must carry locations before any download starts;
	// aborting mid-loop would leave spawned downloads running past the
	// error.
	for _, pkg := range closure {
		if pkg.RemoteLocation == "" {
			return nil, &models.MirrorError{
				Type:    models.ErrFormat,
				Subject: pkg.Name,
				Err:     fmt.Errorf("package has no filename metadata"),
			}
		}
	}

	parallel := m.config.Parallel
	if parallel < 1 {
		parallel = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, pkg := range closure {
		pkg := pkg
		g.Go(func() error {
			return m.fetcher.EnsureLocal(ctx, pkg.RemoteLocation, pkg.LocalLocation)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logrus.Infof("Fetched %d packages", len(closure))
	return closure, nil
}
