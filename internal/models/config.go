package models

// MirrorConfig contains configuration for the partial mirror: which
// catalogs to build and where fetched artifacts land.
type MirrorConfig struct {
	// Repositories and architectures to load. One catalog is built per
	// (repository, architecture) pair, in the order given here; that
	// order is also the name resolution order.
	Repos  []string
	Arches []string

	// Server is a mirror URL template containing $repo and $arch
	// placeholders, substituted per catalog.
	Server string

	// OutputDir is the local mirror root. Artifacts are stored under
	// <OutputDir>/<repo>/os/<arch>/, matching the remote layout.
	OutputDir string

	// OptDepends includes optional dependencies in the closure. Optional
	// names that resolve nowhere are skipped, not errors.
	OptDepends bool

	// Parallel bounds concurrent artifact downloads. 1 downloads
	// strictly sequentially.
	Parallel int
}
