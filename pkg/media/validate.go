package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"video-transcriber/pkg/config"
)

var (
	ErrFileTooLarge      = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedFormat = errors.New("unsupported video format")
)

// ValidateUpload checks an upload before any processing starts. Only the
// extension and size are inspected; content is not sniffed.
func ValidateUpload(cfg config.UploadConfig, filename string, size int64) error {
	if size > cfg.MaxBytes {
		return fmt.Errorf("%w: %.1fMB (limit %dMB)",
			ErrFileTooLarge, float64(size)/(1<<20), cfg.MaxBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range cfg.Extensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
