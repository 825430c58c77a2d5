package fileserver

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func pngBytes(extra int) []byte {
	return append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, extra)...)
}

func TestSaveLogoStoresGeneratedName(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 1<<20, "")

	url, err := s.SaveLogo(context.Background(), "team-1", "crest.png", bytes.NewReader(pngBytes(64)))
	if err != nil {
		t.Fatalf("SaveLogo: %v", err)
	}
	if !strings.HasPrefix(url, "/api/files/logo-team-1-") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q", url)
	}

	stored := strings.TrimPrefix(url, "/api/files/")
	if _, err := os.Stat(filepath.Join(dir, stored)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
}

func TestSaveLogoPublicBaseURL(t *testing.T) {
	s := New(t.TempDir(), 1<<20, "https://cdn.example.com/")

	url, err := s.SaveLogo(context.Background(), "t1", "crest.png", bytes.NewReader(pngBytes(16)))
	if err != nil {
		t.Fatalf("SaveLogo: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/api/files/logo-t1-") {
		t.Fatalf("url = %q, want the configured base prefix", url)
	}
}

func TestSaveLogoRejectsNonImages(t *testing.T) {
	s := New(t.TempDir(), 1<<20, "")
	ctx := context.Background()

	// Disallowed extension.
	if _, err := s.SaveLogo(ctx, "t1", "script.sh", strings.NewReader("#!/bin/sh")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("sh upload: err = %v, want ErrNotImage", err)
	}
	// Image extension but wrong bytes.
	if _, err := s.SaveLogo(ctx, "t1", "fake.png", strings.NewReader("MZ not a png at all")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("fake png: err = %v, want ErrNotImage", err)
	}
	// "WEBP" at offset 8 without the leading RIFF tag is not a webp.
	if _, err := s.SaveLogo(ctx, "t1", "fake.webp", strings.NewReader("XXXXxxxxWEBPmore")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("riff-less webp: err = %v, want ErrNotImage", err)
	}
	// A real webp header passes.
	if _, err := s.SaveLogo(ctx, "t1", "real.webp", strings.NewReader("RIFF\x10\x00\x00\x00WEBPVP8 ")); err != nil {
		t.Fatalf("valid webp: %v", err)
	}
	// Path traversal in the filename must not matter.
	if _, err := s.SaveLogo(ctx, "t1", "../../etc/passwd", strings.NewReader("root:x")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("traversal name: err = %v, want ErrNotImage", err)
	}
}

func TestSaveLogoEnforcesSizeLimit(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 128, "")

	_, err := s.SaveLogo(context.Background(), "t1", "big.png", bytes.NewReader(pngBytes(4096)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatal("oversized upload must not leave a file behind")
	}
}

func TestServe(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 1<<20, "")
	content := pngBytes(16)
	if err := os.WriteFile(filepath.Join(dir, "logo-t1-x.png"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.Serve(rec, httptest.NewRequest("GET", "/api/files/logo-t1-x.png", nil), "logo-t1-x.png")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("content type = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Fatal("served bytes differ from stored bytes")
	}

	// Traversal attempts resolve to the base name only.
	rec = httptest.NewRecorder()
	s.Serve(rec, httptest.NewRequest("GET", "/", nil), "../../secret.png")
	if rec.Code != 404 {
		t.Fatalf("traversal status = %d, want 404", rec.Code)
	}
}
