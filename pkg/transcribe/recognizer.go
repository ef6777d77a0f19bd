package transcribe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-transcriber/pkg/config"
)

// Recognizer converts one audio segment into text. An empty string with a
// nil error means the service heard no speech, which is the expected
// outcome for silence padding and ambient noise.
type Recognizer interface {
	Recognize(ctx context.Context, segmentPath, language string) (string, error)
}

// Encoder produces the canonical in-memory waveform buffer sent over the
// wire. Satisfied by media.FFmpeg.
type Encoder interface {
	EncodeFLAC(ctx context.Context, path string) ([]byte, error)
}

// GoogleRecognizer talks to the Google Web Speech API: one POST per
// segment, FLAC body, language tag in the query string.
type GoogleRecognizer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	encoder  Encoder
}

func NewGoogleRecognizer(cfg config.RecognizerConfig, enc Encoder) *GoogleRecognizer {
	return &GoogleRecognizer{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		encoder:  enc,
	}
}

type speechResponse struct {
	Result []struct {
		Alternative []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternative"`
	} `json:"result"`
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, segmentPath, language string) (string, error) {
	flac, err := g.encoder.EncodeFLAC(ctx, segmentPath)
	if err != nil {
		return "", fmt.Errorf("encoding segment: %w", err)
	}

	u, err := url.Parse(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("recognizer endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client", "chromium")
	q.Set("lang", language)
	if g.apiKey != "" {
		q.Set("key", g.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(flac))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "audio/x-flac; rate=16000")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("speech service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseSpeechResponse(resp.Body)
}

// parseSpeechResponse reads the line-delimited JSON the service returns.
// The first line is usually an empty {"result":[]} placeholder; the first
// line carrying an alternative wins. No usable line means no speech.
func parseSpeechResponse(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var sr speechResponse
		if err := json.Unmarshal([]byte(line), &sr); err != nil {
			return "", fmt.Errorf("malformed speech service response: %w", err)
		}
		for _, res := range sr.Result {
			if len(res.Alternative) > 0 {
				return res.Alternative[0].Transcript, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}

// Throttle enforces a fixed pause between recognition attempts so the
// remote service's request-rate expectations are not exceeded. A zero
// interval disables it, which tests rely on.
type Throttle struct {
	interval time.Duration
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Pause blocks for the configured interval or until ctx is done.
func (t *Throttle) Pause(ctx context.Context) error {
	if t.interval <= 0 {
		return nil
	}
	timer := time.NewTimer(t.interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
