// Package fileserver stores and serves team logo images on local disk.
// Only raster image types are accepted and the stored name is always
// generated, so a client never controls a path on disk.
package fileserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotImage = errors.New("file is not a supported image")
	ErrTooLarge = errors.New("file exceeds the upload limit")
)

// allowedExt lists the logo formats we accept.
var allowedExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

type Service struct {
	UploadDir     string
	MaxUploadSize int64
	// PublicBaseURL prefixes returned file URLs; empty means relative URLs.
	PublicBaseURL string
}

func New(uploadDir string, maxUploadSize int64, publicBaseURL string) *Service {
	return &Service{
		UploadDir:     uploadDir,
		MaxUploadSize: maxUploadSize,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// SaveLogo validates and stores one logo image and returns its serving
// path. The stored name is "logo-{teamID}-{uuid}{ext}"; the extension
// comes from the original filename but must agree with the file's magic
// bytes.
func (s *Service) SaveLogo(ctx context.Context, teamID, filename string, file io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !allowedExt[ext] {
		return "", ErrNotImage
	}

	head := make([]byte, 512)
	n, _ := io.ReadAtLeast(file, head, len(head))
	head = head[:n]
	if !matchImageMagic(ext, head) {
		return "", ErrNotImage
	}

	if err := os.MkdirAll(s.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("fileserver.SaveLogo mkdir: %w", err)
	}

	name := "logo-" + teamID + "-" + uuid.New().String() + ext
	dstPath := filepath.Join(s.UploadDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("fileserver.SaveLogo create: %w", err)
	}
	if _, err := dst.Write(head); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("fileserver.SaveLogo write: %w", err)
	}
	if err := copyWithContext(ctx, dst, io.LimitReader(file, s.MaxUploadSize+1)); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", err
	}
	info, err := dst.Stat()
	if err == nil && info.Size() > s.MaxUploadSize {
		dst.Close()
		os.Remove(dstPath)
		return "", ErrTooLarge
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("fileserver.SaveLogo close: %w", err)
	}
	return s.PublicBaseURL + "/api/files/" + name, nil
}

// matchImageMagic checks the leading bytes against the claimed extension.
func matchImageMagic(ext string, head []byte) bool {
	switch ext {
	case ".jpg", ".jpeg":
		return len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF
	case ".png":
		return len(head) >= 8 && bytes.Equal(head[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	case ".gif":
		return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
	case ".webp":
		return len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP"))
	}
	return false
}

// Serve writes the named file to the response. The name is reduced to its
// base component before touching disk.
func (s *Service) Serve(w http.ResponseWriter, r *http.Request, filename string) {
	filename = filepath.Base(filename)
	if ct := contentTypeByExt(filepath.Ext(filename)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	f, err := os.Open(filepath.Join(s.UploadDir, filename))
	if err != nil {
		http.Error(w, `{"error":"file not found"}`, http.StatusNotFound)
		return
	}
	defer f.Close()
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

func contentTypeByExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ""
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("upload cancelled: %w", ctx.Err())
		default:
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read: %w", readErr)
		}
	}
}
