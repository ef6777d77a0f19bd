package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"video-transcriber/pkg/config"
	"video-transcriber/pkg/media"
	"video-transcriber/pkg/models"
	"video-transcriber/pkg/pipeline"
	"video-transcriber/pkg/storage"
)

type Handlers struct {
	cfg     *config.Config
	runner  *pipeline.Runner
	jobs    storage.JobStore
	results storage.ResultStore
	log     zerolog.Logger
}

func NewHandlers(cfg *config.Config, runner *pipeline.Runner, jobs storage.JobStore, results storage.ResultStore, log zerolog.Logger) *Handlers {
	return &Handlers{cfg: cfg, runner: runner, jobs: jobs, results: results, log: log}
}

// Register wires all routes onto the router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/api/jobs", h.CreateJob).Methods(http.MethodPost)
	r.HandleFunc("/api/jobs", h.ListJobs).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{id}/transcript", h.DownloadTranscript).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{id}/subtitles", h.DownloadSubtitles).Methods(http.MethodGet)
	r.HandleFunc("/api/languages", h.Languages).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.WebSocket)
	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
}

// CreateJob accepts a multipart upload (field "video") plus a language tag
// and chunk duration, validates everything before any processing starts,
// and queues the job.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	// Some multipart framing overhead on top of the video cap.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpError(w, http.StatusBadRequest, "could not parse upload form")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing video file")
		return
	}
	defer file.Close()

	if err := media.ValidateUpload(h.cfg.Upload, header.Filename, header.Size); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	language := r.FormValue("language")
	if !h.cfg.SupportedLanguage(language) {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("unsupported language: %q", language))
		return
	}

	chunkSeconds := h.cfg.Chunk.DefaultSeconds
	if v := r.FormValue("chunk_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !h.cfg.ValidChunkSeconds(n) {
			httpError(w, http.StatusBadRequest, fmt.Sprintf(
				"chunk_seconds must be %d-%d in steps of %d",
				h.cfg.Chunk.MinSeconds, h.cfg.Chunk.MaxSeconds, h.cfg.Chunk.StepSeconds))
			return
		}
		chunkSeconds = n
	}

	data, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	job := models.NewJob(header.Filename, language, chunkSeconds, header.Size)
	if err := h.jobs.Save(job); err != nil {
		httpError(w, http.StatusInternalServerError, "failed to register job")
		return
	}

	if err := h.runner.Submit(pipeline.Submission{Job: job, Video: data}); err != nil {
		h.log.Warn().Err(err).Str("job_id", job.ID).Msg("submission rejected")
		httpError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h.log.Info().
		Str("job_id", job.ID).
		Str("filename", job.Filename).
		Str("language", language).
		Int64("size", header.Size).
		Msg("upload accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			httpError(w, http.StatusNotFound, "job not found")
			return
		}
		httpError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *Handlers) DownloadTranscript(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, func(res *storage.StoredResult) (string, string) {
		return res.Result.Transcript, "_transcript.txt"
	})
}

func (h *Handlers) DownloadSubtitles(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, func(res *storage.StoredResult) (string, string) {
		return res.Result.Subtitles, "_subtitles.srt"
	})
}

func (h *Handlers) download(w http.ResponseWriter, r *http.Request, pick func(*storage.StoredResult) (string, string)) {
	res, err := h.results.Get(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrResultNotFound) {
			httpError(w, http.StatusNotFound, "result not available (still processing or job failed)")
			return
		}
		httpError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	body, suffix := pick(res)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", models.FileStem(res.Filename)+suffix))
	io.WriteString(w, body)
}

func (h *Handlers) Languages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.cfg.Languages)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
