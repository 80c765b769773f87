// Package storage keeps evidence attachments (bukti) of RAB and LPJ
// submissions in an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pondok-keuangan/internal/apperr"
)

// File is an attachment on its way to the store.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type EvidenceStore interface {
	// EnsureBucket creates the bucket when it does not exist. A bucket that
	// appears concurrently is not an error.
	EnsureBucket(ctx context.Context, bucket string) error
	// Upload stores the file under objectPath and returns the stored path.
	Upload(ctx context.Context, bucket, objectPath string, f File) (string, error)
	// URL resolves a stored path to a URL a browser can open.
	URL(ctx context.Context, bucket, objectPath string) (string, error)
	Delete(ctx context.Context, bucket, objectPath string) error
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".xlsx": true,
	".xls":  true,
	".docx": true,
	".doc":  true,
}

// ObjectPath builds "{periode}/{pondok}/{uuid}{ext}". The random part keeps
// a resubmission from overwriting the object the current record points to.
func ObjectPath(periodeID, pondokID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(periodeID, pondokID, uuid.NewString()+ext)
}

// Validate checks the attachment's presence, size and extension.
func Validate(f *File, maxSize int64) error {
	if f == nil || f.Body == nil {
		return apperr.Validation("file_required", "an evidence file is required",
			apperr.FieldError{Field: "file", Error: "required"})
	}
	if maxSize > 0 && f.Size > maxSize {
		return apperr.Validation("file_too_large", fmt.Sprintf("file exceeds %d bytes", maxSize),
			apperr.FieldError{Field: "file", Error: "too large"})
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	if !allowedExtensions[ext] {
		return apperr.Validation("file_type_not_allowed", "file type "+ext+" is not allowed",
			apperr.FieldError{Field: "file", Error: "unsupported type"})
	}
	return nil
}

func contentType(f File) string {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return f.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
