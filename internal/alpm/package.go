package alpm

import (
	"fmt"
	"strings"

	"github.com/ralt/repofetch/internal/models"
)

// ApplyDesc fills pkg's metadata fields from a parsed desc record. Every
// field is single-valued in the database format except groups, which
// keeps its full value sequence. Unknown fields are ignored so newer
// database producers do not break parsing.
func ApplyDesc(pkg *models.Package, rec *Record) {
	for _, field := range rec.Fields() {
		values := rec.Values(field)
		if len(values) == 0 {
			continue
		}
		if field == "groups" {
			pkg.Groups = append([]string(nil), values...)
			continue
		}

		value := values[0]
		switch field {
		case "filename":
			pkg.Filename = value
		case "name":
			pkg.Name = value
		case "version":
			pkg.Version = value
		case "desc":
			pkg.Description = value
		case "csize":
			pkg.CompressedSize = value
		case "isize":
			pkg.InstalledSize = value
		case "md5sum":
			pkg.MD5Sum = value
		case "sha256sum":
			pkg.SHA256Sum = value
		case "pgpsig":
			pkg.PGPSignature = value
		case "url":
			pkg.URL = value
		case "license":
			pkg.License = value
		case "arch":
			pkg.Architecture = value
		case "builddate":
			pkg.BuildDate = value
		case "packager":
			pkg.Packager = value
		case "base":
			pkg.Base = value
		case "replaces":
			pkg.Replaces = []string{value}
		}
	}
}

// ApplyDepends fills pkg's dependency fields from a parsed depends
// record. Every value is stripped to the bare name before any version
// comparison operator, so index lookups stay exact string matches.
func ApplyDepends(pkg *models.Package, rec *Record) error {
	for _, field := range rec.Fields() {
		values := rec.Values(field)
		names := make([]string, 0, len(values))
		for _, value := range values {
			name, err := BareName(value)
			if err != nil {
				return err
			}
			names = append(names, name)
		}

		switch field {
		case "depends":
			pkg.Depends = names
		case "makedepends":
			pkg.MakeDepends = names
		case "checkdepends":
			pkg.CheckDepends = names
		case "optdepends":
			pkg.OptDepends = names
		case "conflicts":
			pkg.Conflicts = names
		case "provides":
			pkg.Provides = names
		case "replaces":
			pkg.Replaces = names
		}
	}
	return nil
}

// BareName strips a trailing version comparison ("glibc>=2.30" becomes
// "glibc") or optdepends description ("gawk: for foo" becomes "gawk")
// from a dependency value. The grammar is fixed: the name is the longest
// leading run of characters outside <>=:.
func BareName(value string) (string, error) {
	i := strings.IndexAny(value, "<>=:")
	if i == 0 || value == "" {
		return "", &models.MirrorError{
			Type: models.ErrFormat,
			Err:  fmt.Errorf("dependency value %q has no leading package name", value),
		}
	}
	if i < 0 {
		return value, nil
	}
	return value[:i], nil
}
