package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	// ErrFileTooLarge maps to 413 at the API boundary.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFileType maps to 415 at the API boundary.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// ImageConstraints defines validation rules for photo uploads. The size cap
// comes from configuration (UPLOAD_MAX_BYTES).
type ImageConstraints struct {
	MaxSize int64
}

var (
	allowedImageMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	allowedImageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
)

// ValidateImage validates an uploaded photo by size, magic numbers, and
// extension. Content sniffing means a renamed .txt cannot pass as an image.
func ValidateImage(header *multipart.FileHeader, constraints ImageConstraints) error {
	if constraints.MaxSize > 0 && header.Size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, maxMB)
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads at most 512 bytes
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Reset file pointer to beginning for later use
	seeker, ok := file.(io.Seeker)
	if ok {
		_, err = seeker.Seek(0, 0)
		if err != nil {
			return fmt.Errorf("failed to reset file pointer: %w", err)
		}
	}

	detectedType := http.DetectContentType(buffer[:n])
	if !allowedImageMimeTypes[detectedType] {
		return fmt.Errorf("%w (detected: %s)", ErrUnsupportedFileType, detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		return fmt.Errorf("%w (extension: %s)", ErrUnsupportedFileType, ext)
	}

	return nil
}
