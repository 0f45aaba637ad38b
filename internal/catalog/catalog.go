// Package catalog builds an indexed, immutable view of one repository's
// package universe for one architecture from its sync database archive.
package catalog

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ralt/repofetch/internal/alpm"
	"github.com/ralt/repofetch/internal/models"
	"github.com/sirupsen/logrus"
)

// Catalog owns the packages of one (repository, architecture) pair and
// three lookup indices: by package name, by provided capability and by
// group membership. It is immutable once built.
type Catalog struct {
	Name string
	Arch string

	server   string
	localDir string

	packages map[string]*models.Package
	names    []string // archive insertion order
	groups   map[string][]string
	provides map[string][]string
}

// Load builds a catalog from a database file on disk.
func Load(name, arch, server, localDir, dbPath string) (*Catalog, error) {
	f, err := os.Open(dbPath)
	if err != nil {
		return nil, &models.MirrorError{Type: models.ErrArchiveUnavailable, Subject: dbPath, Err: err}
	}
	defer f.Close()

	src, err := NewTarSource(f, dbPath)
	if err != nil {
		return nil, &models.MirrorError{Type: models.ErrArchiveUnavailable, Subject: dbPath, Err: err}
	}
	defer src.Close()

	return New(name, arch, server, localDir, src)
}

// New builds a fully indexed catalog from an archive source. The entries
// are walked once: a directory entry creates the package placeholder,
// desc and depends files inside it fill the metadata and dependency
// fields. Locations and indices are computed only after the walk
// completes, so a lookup never observes a partially parsed package.
func New(name, arch, server, localDir string, src Source) (*Catalog, error) {
	c := &Catalog{
		Name:     name,
		Arch:     arch,
		server:   server,
		localDir: localDir,
		packages: make(map[string]*models.Package),
		groups:   make(map[string][]string),
		provides: make(map[string][]string),
	}

	for {
		entry, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.MirrorError{
				Type:    models.ErrArchiveUnavailable,
				Subject: name + "/" + arch,
				Err:     err,
			}
		}
		if err := c.apply(entry); err != nil {
			return nil, err
		}
	}

	for _, pkgName := range c.names {
		pkg := c.packages[pkgName]

		if pkg.Filename != "" {
			pkg.RemoteLocation = c.server + "/" + pkg.Filename
			pkg.LocalLocation = filepath.Join(c.localDir, pkg.Filename)
		}
		for _, group := range pkg.Groups {
			c.groups[group] = append(c.groups[group], pkgName)
		}
		for _, capability := range pkg.Provides {
			c.provides[capability] = append(c.provides[capability], pkgName)
		}
	}

	logrus.Debugf("Indexed catalog %s/%s: %d packages, %d groups, %d capabilities",
		name, arch, len(c.names), len(c.groups), len(c.provides))
	return c, nil
}

// apply routes one archive entry to the owning package. Archives emit
// the package directory before its files, but a file whose placeholder
// has not been seen yet creates it on the spot anyway.
func (c *Catalog) apply(entry *Entry) error {
	pkgName, err := entryPackageName(entry.Path)
	if err != nil {
		return err
	}

	pkg, ok := c.packages[pkgName]
	if !ok {
		pkg = &models.Package{Name: pkgName}
		c.packages[pkgName] = pkg
		c.names = append(c.names, pkgName)
	}
	if entry.IsDir {
		return nil
	}

	switch path.Base(entry.Path) {
	case "desc":
		rec, err := alpm.ParseRecord(entry.Reader)
		if err != nil {
			return err
		}
		alpm.ApplyDesc(pkg, rec)
	case "depends":
		// Absent for packages without dependencies; that is not an error.
		rec, err := alpm.ParseRecord(entry.Reader)
		if err != nil {
			return err
		}
		if err := alpm.ApplyDepends(pkg, rec); err != nil {
			return err
		}
	}
	return nil
}

// entryPackageName derives the package name from an archive path whose
// first segment is <pkgname>-<version>-<release>. Package names may
// themselves contain hyphens, so only the two trailing segments go.
func entryPackageName(entryPath string) (string, error) {
	segment := entryPath
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}

	parts := strings.Split(segment, "-")
	if len(parts) < 3 {
		return "", &models.MirrorError{
			Type:    models.ErrFormat,
			Subject: entryPath,
			Err:     fmt.Errorf("entry is not named <pkgname>-<version>-<release>"),
		}
	}
	return strings.Join(parts[:len(parts)-2], "-"), nil
}

// Package returns the package with the exact given name.
func (c *Catalog) Package(name string) (*models.Package, bool) {
	pkg, ok := c.packages[name]
	return pkg, ok
}

// Provides returns the names of packages declaring the capability, in
// archive order.
func (c *Catalog) Provides(capability string) []string {
	return c.provides[capability]
}

// Group returns the member package names of a group, in archive order.
func (c *Catalog) Group(group string) []string {
	return c.groups[group]
}

// Len returns the number of packages in the catalog.
func (c *Catalog) Len() int {
	return len(c.names)
}
