package test

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/ralt/repofetch/internal/fetcher"
	"github.com/ralt/repofetch/internal/mirror"
	"github.com/ralt/repofetch/internal/models"
)

// repoFixture describes the packages one served repository contains.
type repoFixture struct {
	packages []pkgFixture
}

type pkgFixture struct {
	name     string
	version  string
	groups   []string
	depends  []string
	provides []string
}

func (p pkgFixture) filename() string {
	return fmt.Sprintf("%s-%s-x86_64.pkg.tar.zst", p.name, p.version)
}

// buildDB assembles a gzip-compressed sync database for a repository.
func buildDB(t *testing.T, fixture repoFixture) []byte {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	writeFile := func(name, content string) {
		if err := tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}); err != nil {
			t.Fatalf("Failed to write header %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write content %s: %v", name, err)
		}
	}

	for _, pkg := range fixture.packages {
		dir := fmt.Sprintf("%s-%s", pkg.name, pkg.version)
		if err := tw.WriteHeader(&tar.Header{
			Name:     dir + "/",
			Mode:     0755,
			Typeflag: tar.TypeDir,
		}); err != nil {
			t.Fatalf("Failed to write dir %s: %v", dir, err)
		}

		desc := fmt.Sprintf("%%FILENAME%%\n%s\n\n%%NAME%%\n%s\n\n%%VERSION%%\n%s\n\n",
			pkg.filename(), pkg.name, pkg.version)
		if len(pkg.groups) > 0 {
			desc += "%GROUPS%\n"
			for _, g := range pkg.groups {
				desc += g + "\n"
			}
			desc += "\n"
		}
		writeFile(dir+"/desc", desc)

		if len(pkg.depends) > 0 || len(pkg.provides) > 0 {
			depends := ""
			if len(pkg.depends) > 0 {
				depends += "%DEPENDS%\n"
				for _, d := range pkg.depends {
					depends += d + "\n"
				}
				depends += "\n"
			}
			if len(pkg.provides) > 0 {
				depends += "%PROVIDES%\n"
				for _, p := range pkg.provides {
					depends += p + "\n"
				}
				depends += "\n"
			}
			writeFile(dir+"/depends", depends)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// mirrorServer serves sync databases and dummy artifacts for a set of
// repositories, counting requests per path.
func mirrorServer(t *testing.T, repos map[string]repoFixture) (*httptest.Server, func(path string) int) {
	t.Helper()

	var mu sync.Mutex
	hits := make(map[string]int)

	dbs := make(map[string][]byte)
	artifacts := make(map[string][]byte)
	for repo, fixture := range repos {
		base := "/" + repo + "/os/x86_64/"
		dbs[base+repo+".db"] = buildDB(t, fixture)
		for _, pkg := range fixture.packages {
			artifacts[base+pkg.filename()] = []byte("artifact:" + pkg.name)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()

		if db, ok := dbs[r.URL.Path]; ok {
			w.Write(db)
			return
		}
		if artifact, ok := artifacts[r.URL.Path]; ok {
			w.Write(artifact)
			return
		}
		http.NotFound(w, r)
	}))

	return srv, func(path string) int {
		mu.Lock()
		defer mu.Unlock()
		return hits[path]
	}
}

func TestMirrorFetchClosure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	repos := map[string]repoFixture{
		"core": {packages: []pkgFixture{
			{name: "glibc", version: "2.39-1", groups: []string{"base"}},
			{name: "bash", version: "5.2.026-2", depends: []string{"glibc", "readline>=8.2"}, provides: []string{"sh"}},
			{name: "readline", version: "8.2.010-1", depends: []string{"glibc"}},
		}},
		"extra": {packages: []pkgFixture{
			{name: "vim", version: "9.1.0-1", depends: []string{"sh"}},
		}},
	}

	srv, hits := mirrorServer(t, repos)
	defer srv.Close()

	outputDir := t.TempDir()
	config := &models.MirrorConfig{
		Repos:     []string{"core", "extra"},
		Arches:    []string{"x86_64"},
		Server:    srv.URL + "/$repo/os/$arch",
		OutputDir: outputDir,
		Parallel:  2,
	}

	ctx := context.Background()
	m, err := mirror.New(ctx, config, fetcher.NewHTTPFetcher(srv.Client()))
	if err != nil {
		t.Fatalf("Failed to build mirror: %v", err)
	}

	t.Log("Fetching closure of vim...")
	closure, err := m.Fetch(ctx, []string{"vim"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// vim depends on the sh capability, provided by bash, which pulls
	// readline and glibc transitively.
	want := map[string]bool{"vim": true, "bash": true, "readline": true, "glibc": true}
	if len(closure) != len(want) {
		t.Errorf("Closure has %d packages, want %d", len(closure), len(want))
	}
	for _, pkg := range closure {
		if !want[pkg.Name] {
			t.Errorf("Unexpected package in closure: %s", pkg.Name)
		}
	}

	// Artifacts land under the remote repository layout.
	expectedFiles := []string{
		"extra/os/x86_64/vim-9.1.0-1-x86_64.pkg.tar.zst",
		"core/os/x86_64/bash-5.2.026-2-x86_64.pkg.tar.zst",
		"core/os/x86_64/readline-8.2.010-1-x86_64.pkg.tar.zst",
		"core/os/x86_64/glibc-2.39-1-x86_64.pkg.tar.zst",
		"core/os/x86_64/core.db",
		"extra/os/x86_64/extra.db",
	}
	for _, file := range expectedFiles {
		path := filepath.Join(outputDir, file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Expected file not found: %s", file)
		}
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "extra/os/x86_64/vim-9.1.0-1-x86_64.pkg.tar.zst"))
	if err != nil {
		t.Fatalf("Failed to read fetched artifact: %v", err)
	}
	if string(data) != "artifact:vim" {
		t.Errorf("Artifact content = %q", data)
	}

	// A second fetch finds everything on disk and downloads nothing.
	t.Log("Fetching again, expecting no new downloads...")
	if _, err := m.Fetch(ctx, []string{"vim"}); err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}
	for _, file := range expectedFiles[:4] {
		if got := hits("/" + file); got != 1 {
			t.Errorf("%s downloaded %d times, want 1", file, got)
		}
	}
}

func TestMirrorResolveGroup(t *testing.T) {
	repos := map[string]repoFixture{
		"core": {packages: []pkgFixture{
			{name: "gcc", version: "13.2.1-1", groups: []string{"base-devel"}, depends: []string{"glibc"}},
			{name: "make", version: "4.4.1-2", groups: []string{"base-devel"}},
			{name: "glibc", version: "2.39-1"},
		}},
	}

	srv, _ := mirrorServer(t, repos)
	defer srv.Close()

	config := &models.MirrorConfig{
		Repos:     []string{"core"},
		Arches:    []string{"x86_64"},
		Server:    srv.URL + "/$repo/os/$arch",
		OutputDir: t.TempDir(),
		Parallel:  1,
	}

	ctx := context.Background()
	m, err := mirror.New(ctx, config, fetcher.NewHTTPFetcher(srv.Client()))
	if err != nil {
		t.Fatalf("Failed to build mirror: %v", err)
	}

	closure, err := m.Resolve([]string{"base-devel"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	got := make(map[string]bool)
	for _, pkg := range closure {
		got[pkg.Name] = true
	}
	for _, name := range []string{"gcc", "make", "glibc"} {
		if !got[name] {
			t.Errorf("Closure of group base-devel missing %s", name)
		}
	}
}

func TestMirrorConstructionFailsOnMissingDatabase(t *testing.T) {
	srv, _ := mirrorServer(t, map[string]repoFixture{})
	defer srv.Close()

	config := &models.MirrorConfig{
		Repos:     []string{"core"},
		Arches:    []string{"x86_64"},
		Server:    srv.URL + "/$repo/os/$arch",
		OutputDir: t.TempDir(),
	}

	if _, err := mirror.New(context.Background(), config, fetcher.NewHTTPFetcher(srv.Client())); err == nil {
		t.Fatal("Mirror construction should fail when a database cannot be fetched")
	}
}
