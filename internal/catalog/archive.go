package catalog

import (
	"archive/tar"
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Entry is one archive member: a package directory or one of the files
// inside it.
type Entry struct {
	Path   string
	IsDir  bool
	Reader io.Reader // file content, nil for directories
}

// Source yields archive entries one at a time. Next returns io.EOF once
// the archive is exhausted. An Entry's Reader is only valid until the
// following Next call.
type Source interface {
	Next() (*Entry, error)
}

var gzipMagic = []byte{0x1f, 0x8b}

// TarSource walks a (possibly compressed) tar database archive.
type TarSource struct {
	tr   *tar.Reader
	zstd *zstd.Decoder
	gzip *gzip.Reader
}

// NewTarSource wraps r in the decompressor matching the database file
// name, the way pacman names its databases (.db.tar.zst, .db.tar.xz,
// .db.tar.gz). A bare .db file is sniffed for the gzip magic since
// mirrors commonly serve the gzip tarball under that name.
func NewTarSource(r io.Reader, name string) (*TarSource, error) {
	switch {
	case strings.HasSuffix(name, ".tar.zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &TarSource{tr: tar.NewReader(zr), zstd: zr}, nil
	case strings.HasSuffix(name, ".tar.xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &TarSource{tr: tar.NewReader(xr)}, nil
	case strings.HasSuffix(name, ".tar.gz"):
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &TarSource{tr: tar.NewReader(gr), gzip: gr}, nil
	default:
		br := bufio.NewReader(r)
		magic, err := br.Peek(len(gzipMagic))
		if err == nil && bytes.Equal(magic, gzipMagic) {
			gr, err := gzip.NewReader(br)
			if err != nil {
				return nil, err
			}
			return &TarSource{tr: tar.NewReader(gr), gzip: gr}, nil
		}
		return &TarSource{tr: tar.NewReader(br)}, nil
	}
}

// Next returns the next directory or regular file entry, skipping
// anything else (symlinks, pax headers).
func (s *TarSource) Next() (*Entry, error) {
	for {
		header, err := s.tr.Next()
		if err != nil {
			return nil, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			return &Entry{Path: header.Name, IsDir: true}, nil
		case tar.TypeReg:
			return &Entry{Path: header.Name, Reader: s.tr}, nil
		}
	}
}

// Close releases decompressor state. The underlying reader is owned by
// the caller.
func (s *TarSource) Close() error {
	if s.zstd != nil {
		s.zstd.Close()
	}
	if s.gzip != nil {
		return s.gzip.Close()
	}
	return nil
}
