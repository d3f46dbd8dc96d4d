package services

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	apperrors "github.com/zatekoja/mypadicare/pkg/errors"
)

// Upload limits. The server and client checks are independent and their
// allow-lists differ; the server check is final.
const (
	ServerMaxUploadBytes int64 = 16 << 20
	ClientMaxUploadBytes int64 = 10 << 20
)

// UploadPolicy is an allow-list plus size limit for image intake.
type UploadPolicy struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	// MIMETypes is empty when the content type is not checked.
	MIMETypes []string `json:"mime_types,omitempty"`
	MaxBytes  int64    `json:"max_bytes"`
}

// ServerUploadPolicy is enforced on every upload the API accepts.
func ServerUploadPolicy(maxBytes int64) UploadPolicy {
	if maxBytes <= 0 {
		maxBytes = ServerMaxUploadBytes
	}
	return UploadPolicy{
		Name:       "server",
		Extensions: []string{"jpg", "jpeg", "png", "gif", "bmp"},
		MaxBytes:   maxBytes,
	}
}

// ClientUploadPolicy is the pre-check applied before a file is sent.
func ClientUploadPolicy() UploadPolicy {
	return UploadPolicy{
		Name:       "client",
		Extensions: []string{"jpg", "jpeg", "png", "webp"},
		MIMETypes:  []string{"image/jpeg", "image/jpg", "image/png", "image/webp"},
		MaxBytes:   ClientMaxUploadBytes,
	}
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Validate checks one file against the policy. mimeType is ignored when the
// policy lists none. Failures wrap entities.ErrUploadRejected.
func (p UploadPolicy) Validate(filename string, size int64, mimeType string) error {
	if filename == "" {
		return reject("No image uploaded or upload error occurred")
	}
	if size > p.MaxBytes {
		return reject(p.TooLargeMessage())
	}
	if len(p.MIMETypes) > 0 {
		mediaType := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
		if !slices.Contains(p.MIMETypes, mediaType) {
			return reject(fmt.Sprintf("Unsupported file type: %s. Please select %s.", mimeType, p.describeExtensions()))
		}
	}
	if !slices.Contains(p.Extensions, Extension(filename)) {
		return reject(fmt.Sprintf("Invalid file type. Please upload a %s image.", p.describeExtensions()))
	}
	return nil
}

// TooLargeMessage is the rejection text for files over MaxBytes.
func (p UploadPolicy) TooLargeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %s.", formatMiB(p.MaxBytes))
}

func (p UploadPolicy) describeExtensions() string {
	upper := make([]string, len(p.Extensions))
	for i, ext := range p.Extensions {
		upper[i] = strings.ToUpper(ext)
	}
	return strings.Join(upper, ", ")
}

func reject(message string) error {
	return apperrors.NewValidationError(message, entities.ErrUploadRejected)
}

func formatMiB(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
}
