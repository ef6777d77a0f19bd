package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Upload     UploadConfig
	Segmenter  SegmenterConfig
	Chunk      ChunkConfig
	Recognizer RecognizerConfig
	Pipeline   PipelineConfig

	// Languages maps a BCP-47 tag to its native display name.
	Languages map[string]string

	FFmpegPath  string `validate:"required"`
	StoragePath string `validate:"required"`
}

type ServerConfig struct {
	Address      string `validate:"required"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type UploadConfig struct {
	// MaxBytes caps the accepted video size.
	MaxBytes int64 `validate:"gt=0"`
	// Extensions is the accepted set, lower-case with leading dot.
	Extensions []string `validate:"min=1"`
}

type SegmenterConfig struct {
	// MinSilence is the shortest gap treated as a split point.
	MinSilence time.Duration `validate:"gt=0"`
	// ThresholdOffsetDB is subtracted from the clip's mean loudness to get
	// the silence threshold.
	ThresholdOffsetDB float64 `validate:"gt=0"`
	// KeepSilence is the padding retained at segment boundaries.
	KeepSilence time.Duration `validate:"gte=0"`
}

type ChunkConfig struct {
	MinSeconds     int `validate:"gt=0"`
	MaxSeconds     int `validate:"gtefield=MinSeconds"`
	StepSeconds    int `validate:"gt=0"`
	DefaultSeconds int `validate:"gtefield=MinSeconds,ltefield=MaxSeconds"`
}

type RecognizerConfig struct {
	Endpoint string `validate:"required,url"`
	APIKey   string
	Timeout  time.Duration `validate:"gt=0"`
	// Pacing is the fixed delay applied after every recognition attempt so
	// the remote service's request-rate expectations are not exceeded.
	Pacing time.Duration `validate:"gte=0"`
}

type PipelineConfig struct {
	// QueueSize bounds pending jobs; processing itself is one job at a time.
	QueueSize int `validate:"gt=0"`
}

var validate = validator.New()

// Load builds the configuration from the environment, applying defaults for
// anything unset. A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Address:      getEnv("SERVER_ADDRESS", ":8080"),
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 5 * time.Minute,
		},
		Upload: UploadConfig{
			MaxBytes:   200 << 20,
			Extensions: []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv", ".m4v"},
		},
		Segmenter: SegmenterConfig{
			MinSilence:        1000 * time.Millisecond,
			ThresholdOffsetDB: 14,
			KeepSilence:       500 * time.Millisecond,
		},
		Chunk: ChunkConfig{
			MinSeconds:     10,
			MaxSeconds:     60,
			StepSeconds:    5,
			DefaultSeconds: 30,
		},
		Recognizer: RecognizerConfig{
			Endpoint: getEnv("SPEECH_API_ENDPOINT", "http://www.google.com/speech-api/v2/recognize"),
			APIKey:   os.Getenv("SPEECH_API_KEY"),
			Timeout:  30 * time.Second,
			Pacing:   500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			QueueSize: getEnvInt("PIPELINE_QUEUE_SIZE", 16),
		},
		Languages: map[string]string{
			"ar-SA": "العربية",
			"en-US": "English",
			"fr-FR": "Français",
			"de-DE": "Deutsch",
			"es-ES": "Español",
			"it-IT": "Italiano",
			"ja-JP": "日本語",
			"ko-KR": "한국어",
			"zh-CN": "中文",
		},
		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		StoragePath: getEnv("STORAGE_PATH", "./data"),
	}

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.Upload.MaxBytes = n
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// SupportedLanguage reports whether tag is one of the configured languages.
func (c *Config) SupportedLanguage(tag string) bool {
	_, ok := c.Languages[tag]
	return ok
}

// ValidChunkSeconds reports whether d is within the configured bounds and on
// the configured step.
func (c *Config) ValidChunkSeconds(d int) bool {
	if d < c.Chunk.MinSeconds || d > c.Chunk.MaxSeconds {
		return false
	}
	return (d-c.Chunk.MinSeconds)%c.Chunk.StepSeconds == 0
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
