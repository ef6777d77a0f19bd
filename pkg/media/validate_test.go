package media

import (
	"errors"
	"testing"

	"video-transcriber/pkg/config"
)

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxBytes:   200 << 20,
		Extensions: []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv", ".m4v"},
	}
}

func TestValidateUpload(t *testing.T) {
	cfg := testUploadConfig()

	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{"mp4 under limit", "lecture.mp4", 10 << 20, nil},
		{"uppercase extension", "LECTURE.MP4", 1024, nil},
		{"exactly at limit", "talk.mkv", 200 << 20, nil},
		{"one byte over limit", "talk.mkv", 200<<20 + 1, ErrFileTooLarge},
		{"oversized with bad extension still reports size", "talk.exe", 500 << 20, ErrFileTooLarge},
		{"unsupported extension", "notes.txt", 1024, ErrUnsupportedFormat},
		{"no extension", "video", 1024, ErrUnsupportedFormat},
		{"webm ok", "clip.webm", 42, nil},
		{"m4v ok", "clip.m4v", 42, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUpload(cfg, tc.filename, tc.size)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateUpload(%q, %d) = %v, want nil", tc.filename, tc.size, err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateUpload(%q, %d) = %v, want %v", tc.filename, tc.size, err, tc.wantErr)
			}
		})
	}
}

func TestValidateUploadAlternateLimits(t *testing.T) {
	cfg := config.UploadConfig{MaxBytes: 1024, Extensions: []string{".mp4"}}
	if err := ValidateUpload(cfg, "a.mp4", 1024); err != nil {
		t.Fatalf("expected 1024 bytes to pass under 1KiB cap, got %v", err)
	}
	if err := ValidateUpload(cfg, "a.mp4", 1025); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}
