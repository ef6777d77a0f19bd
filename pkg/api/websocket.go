package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"video-transcriber/pkg/models"
	"video-transcriber/pkg/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"job_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocket streams job progress. The client sends {"type":"watch",
// "job_id":...} and receives status updates until the job completes or
// fails. Updates come from polling the job store, so the pipeline stays
// unaware of who is listening.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "watch":
			h.watchJob(conn, msg.JobID)
		case "ping":
			h.send(conn, wsMessage{Type: "pong"})
		default:
			h.send(conn, wsMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Handlers) watchJob(conn *websocket.Conn, jobID string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastProgress = -1
	var lastStatus models.JobStatus

	for range ticker.C {
		job, err := h.jobs.Get(jobID)
		if err != nil {
			if errors.Is(err, storage.ErrJobNotFound) {
				h.send(conn, wsMessage{Type: "error", JobID: jobID, Error: "job not found"})
			}
			return
		}

		if job.Progress != lastProgress || job.Status != lastStatus {
			lastProgress, lastStatus = job.Progress, job.Status
			h.send(conn, wsMessage{
				Type:     "status_update",
				JobID:    jobID,
				Status:   string(job.Status),
				Progress: job.Progress,
				Stage:    job.Stage,
			})
		}

		switch job.Status {
		case models.StatusCompleted:
			h.send(conn, wsMessage{Type: "completed", JobID: jobID, Progress: 100})
			return
		case models.StatusFailed:
			h.send(conn, wsMessage{Type: "failed", JobID: jobID, Error: job.Error})
			return
		}
	}
}

func (h *Handlers) send(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.log.Debug().Err(err).Msg("websocket write failed")
	}
}
