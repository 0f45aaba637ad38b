// Package resolver turns package, capability and group names into
// package sets and computes dependency closures across every configured
// catalog.
package resolver

import (
	"fmt"

	"github.com/ralt/repofetch/internal/catalog"
	"github.com/ralt/repofetch/internal/models"
)

// Resolver is a query surface over an ordered list of catalogs. The
// order is the configured (repository, architecture) order; when a name
// resolves in several catalogs, every match is returned in that order.
type Resolver struct {
	catalogs []*catalog.Catalog
}

// New creates a resolver over the given catalogs.
func New(catalogs []*catalog.Catalog) *Resolver {
	return &Resolver{catalogs: catalogs}
}

// ResolveName finds every package matching name across all catalogs.
// Within one catalog a literal package name wins over a provided
// capability, which wins over a group. With strict set, a name matching
// nowhere is a NotFound error; otherwise it resolves to an empty set.
func (r *Resolver) ResolveName(name string, strict bool) ([]*models.Package, error) {
	var matches []*models.Package
	seen := make(map[*models.Package]struct{})

	for _, cat := range r.catalogs {
		var found []string
		if _, ok := cat.Package(name); ok {
			found = []string{name}
		} else if providers := cat.Provides(name); len(providers) > 0 {
			found = providers
		} else if members := cat.Group(name); len(members) > 0 {
			found = members
		}

		for _, pkgName := range found {
			pkg, ok := cat.Package(pkgName)
			if !ok {
				continue
			}
			if _, dup := seen[pkg]; dup {
				continue
			}
			seen[pkg] = struct{}{}
			matches = append(matches, pkg)
		}
	}

	if len(matches) == 0 && strict {
		return nil, &models.MirrorError{
			Type:    models.ErrNotFound,
			Subject: name,
			Err:     fmt.Errorf("not found in any catalog"),
		}
	}
	return matches, nil
}

// ResolveDeps computes the closure reachable from the seed packages via
// depends edges, plus optdepends edges when includeOptional is set.
// Optional names resolving nowhere are skipped. The closure contains the
// seeds and is returned in breadth-first visit order; dependency cycles
// terminate through the visited set.
func (r *Resolver) ResolveDeps(seeds []*models.Package, includeOptional bool) ([]*models.Package, error) {
	var closure []*models.Package
	visited := make(map[*models.Package]struct{})

	queue := append([]*models.Package(nil), seeds...)
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]

		if _, ok := visited[pkg]; ok {
			continue
		}
		visited[pkg] = struct{}{}
		closure = append(closure, pkg)

		for _, dep := range pkg.Depends {
			resolved, err := r.ResolveName(dep, true)
			if err != nil {
				return nil, fmt.Errorf("dependency of %s: %w", pkg.Name, err)
			}
			queue = append(queue, resolved...)
		}

		if includeOptional {
			for _, dep := range pkg.OptDepends {
				resolved, err := r.ResolveName(dep, false)
				if err != nil {
					return nil, err
				}
				queue = append(queue, resolved...)
			}
		}
	}

	return closure, nil
}
