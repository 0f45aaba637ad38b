package models

// Package represents one installable unit described by a repository
// database entry. Metadata fields come from the package's desc file,
// dependency fields from its depends file; both are applied by the alpm
// package while the owning catalog walks the database archive.
type Package struct {
	Name string

	// Metadata fields, single-valued in the database format
	Filename       string
	Version        string
	Description    string
	CompressedSize string
	InstalledSize  string
	MD5Sum         string
	SHA256Sum      string
	PGPSignature   string
	URL            string
	License        string
	Architecture   string
	BuildDate      string
	Packager       string
	Base           string

	// Groups keeps every value from the desc file, verbatim
	Groups []string

	// Dependency fields, version comparison operators stripped
	Replaces     []string
	Depends      []string
	MakeDepends  []string
	CheckDepends []string
	OptDepends   []string
	Conflicts    []string
	Provides     []string

	// Resolved against the owning catalog once the archive walk finishes
	RemoteLocation string
	LocalLocation  string
}
