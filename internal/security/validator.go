package security

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultDocumentExtensions lists the document types accepted for upload
var DefaultDocumentExtensions = []string{".pdf", ".txt", ".md", ".doc", ".docx"}

const maxFilenameLength = 120

// FileValidator validates and sanitizes uploaded file names
type FileValidator struct {
	allowed map[string]bool
	unsafe  *regexp.Regexp
	dashes  *regexp.Regexp
}

// NewFileValidator creates a validator accepting the given extensions
func NewFileValidator(extensions []string) *FileValidator {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	return &FileValidator{
		allowed: allowed,
		unsafe:  regexp.MustCompile(`[^A-Za-z0-9._-]+`),
		dashes:  regexp.MustCompile(`-{2,}`),
	}
}

// ValidationError represents a file validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks that the file name has an allowed extension
func (v *FileValidator) Validate(filename string) error {
	name := strings.TrimSpace(filename)
	if name == "" {
		return &ValidationError{Message: "empty file name"}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !v.allowed[ext] {
		return &ValidationError{Message: "file type not allowed: " + v.allowedList()}
	}

	return nil
}

// Sanitize reduces a client-supplied name to a safe object name: directory
// parts are dropped and anything outside [A-Za-z0-9._-] becomes a dash.
func (v *FileValidator) Sanitize(filename string) string {
	// Clients on Windows send backslash-separated paths
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))

	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	stem = v.unsafe.ReplaceAllString(stem, "-")
	stem = v.dashes.ReplaceAllString(stem, "-")
	stem = strings.Trim(stem, "-.")
	if stem == "" {
		stem = "document"
	}
	if len(stem)+len(ext) > maxFilenameLength {
		stem = stem[:maxFilenameLength-len(ext)]
	}

	return stem + ext
}

// ValidateAndSanitize validates and sanitizes a file name in one step
func (v *FileValidator) ValidateAndSanitize(filename string) (string, error) {
	if err := v.Validate(filename); err != nil {
		return "", err
	}
	return v.Sanitize(filename), nil
}

func (v *FileValidator) allowedList() string {
	exts := make([]string, 0, len(v.allowed))
	for _, ext := range DefaultDocumentExtensions {
		if v.allowed[ext] {
			exts = append(exts, ext)
		}
	}
	for ext := range v.allowed {
		if !contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return strings.Join(exts, ", ")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
