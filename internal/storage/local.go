// Package storage keeps uploaded experience images on local disk and
// serves them back as absolute URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/id"
)

// Subdir holds experience images below the upload root.
const Subdir = "experiences"

// URLPrefix is the path the server mounts the upload root on.
const URLPrefix = "/uploads"

// sniffLen is how much of a file mimetype needs to recognise images.
const sniffLen = 3072

var allowedExt = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true}

var allowedMIME = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageStore saves uploaded images and returns their public URLs. Owns
// reports whether a URL names a file the store wrote.
type ImageStore interface {
	SaveImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
	Owns(url string) bool
	Remove(urls []string)
}

// LocalStore writes images under Dir/experiences.
type LocalStore struct {
	Dir          string
	PublicBase   string
	MaxFiles     int
	MaxFileBytes int64
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir, publicBase string, maxFiles int, maxFileBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, Subdir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		Dir:          dir,
		PublicBase:   strings.TrimRight(publicBase, "/"),
		MaxFiles:     maxFiles,
		MaxFileBytes: maxFileBytes,
	}, nil
}

// SaveImages validates and stores every file. On any failure the files
// already written are removed and nothing is returned.
func (s *LocalStore) SaveImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) > s.MaxFiles {
		return nil, apperr.Validationf("images", "at most %d images may be uploaded", s.MaxFiles)
	}
	urls := make([]string, 0, len(files))
	for i, fh := range files {
		if err := ctx.Err(); err != nil {
			s.Remove(urls)
			return nil, apperr.Unavailable("upload cancelled", err)
		}
		u, err := s.save(fh)
		if err != nil {
			s.Remove(urls)
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Kind == apperr.KindValidation {
				return nil, apperr.Validationf(fmt.Sprintf("images[%d]", i), "%s", ae.Message)
			}
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (s *LocalStore) save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", apperr.Validationf("images", "%s: only jpeg, jpg, png, gif and webp images are allowed", fh.Filename)
	}
	if fh.Size > s.MaxFileBytes {
		return "", apperr.Validationf("images", "%s: file exceeds %d bytes", fh.Filename, s.MaxFileBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return "", apperr.Internal("open upload", err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", apperr.Internal("read upload", err)
	}
	head = head[:n]
	if mt := mimetype.Detect(head); !isAllowed(mt) {
		return "", apperr.Validationf("images", "%s: content is %s, not an allowed image type", fh.Filename, mt.String())
	}

	name, err := id.FileName(ext)
	if err != nil {
		return "", apperr.Internal("name upload", err)
	}
	path := filepath.Join(s.Dir, Subdir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", apperr.Internal("create upload", err)
	}

	// one byte past the limit detects oversize bodies whose header lied
	written, err := io.Copy(dst, io.LimitReader(io.MultiReader(bytes.NewReader(head), src), s.MaxFileBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", apperr.Internal("write upload", err)
	}
	if written > s.MaxFileBytes {
		_ = os.Remove(path)
		return "", apperr.Validationf("images", "%s: file exceeds %d bytes", fh.Filename, s.MaxFileBytes)
	}
	return s.PublicBase + URLPrefix + "/" + Subdir + "/" + name, nil
}

func isAllowed(mt *mimetype.MIME) bool {
	for _, m := range allowedMIME {
		if mt.Is(m) {
			return true
		}
	}
	return false
}

// Owns reports whether u points into this store's upload directory.
func (s *LocalStore) Owns(u string) bool {
	_, ok := s.fileName(u)
	return ok
}

// Remove deletes stored files by URL. URLs not produced by this store are
// ignored.
func (s *LocalStore) Remove(urls []string) {
	for _, u := range urls {
		if name, ok := s.fileName(u); ok {
			_ = os.Remove(filepath.Join(s.Dir, Subdir, name))
		}
	}
}

func (s *LocalStore) fileName(u string) (string, bool) {
	name, ok := strings.CutPrefix(u, s.PublicBase+URLPrefix+"/"+Subdir+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name, true
}
