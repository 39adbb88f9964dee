package fetch_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NixOS/nix-sub000/internal/fetch"
)

func TestLocalFetcherReadsPlainPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := (fetch.LocalFetcher{}).Fetch(fetch.Request{URL: path, Name: "data"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Contents) != "hello" {
		t.Fatalf("Contents = %q, want %q", res.Contents, "hello")
	}
	if res.Name != "data" {
		t.Fatalf("Name = %q, want %q", res.Name, "data")
	}
}

func TestLocalFetcherStripsFileScheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("world"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res, err := (fetch.LocalFetcher{}).Fetch(fetch.Request{URL: "file://" + path})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(res.Contents) != "world" {
		t.Fatalf("Contents = %q, want %q", res.Contents, "world")
	}
	if res.Name != "source" {
		t.Fatalf("Name = %q, want the default %q", res.Name, "source")
	}
}

func TestLocalFetcherMissingFileFails(t *testing.T) {
	_, err := (fetch.LocalFetcher{}).Fetch(fetch.Request{URL: "/does/not/exist"})
	if err == nil {
		t.Fatal("expected an error fetching a nonexistent path")
	}
}
