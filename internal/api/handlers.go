package api

import (
	"encoding/json"
	"net/http"

	"github.com/inboxlab/message-dispatch/internal/repo"
	"github.com/inboxlab/message-dispatch/internal/scheduler"
)

type Handler struct {
	sched    *scheduler.Scheduler
	statuses repo.StatusRepository
}

func NewHandler(s *scheduler.Scheduler, statuses repo.StatusRepository) *Handler {
	return &Handler{sched: s, statuses: statuses}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

type channelStatusView struct {
	NotificationID string `json:"notificationId"`
	Channel        string `json:"channel"`
	Status         string `json:"status"`
}

// MessageStatus is the audit read: latest message status plus every recorded
// per-channel status.
func (h *Handler) MessageStatus(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("id")
	if messageID == "" {
		http.Error(w, "missing message id", http.StatusBadRequest)
		return
	}

	status, err := h.statuses.GetMessageStatus(r.Context(), messageID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	channels, err := h.statuses.ListChannelStatuses(r.Context(), messageID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]channelStatusView, 0, len(channels))
	for _, c := range channels {
		views = append(views, channelStatusView{
			NotificationID: c.NotificationID,
			Channel:        string(c.Channel),
			Status:         string(c.Status),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messageId": messageID,
		"status":    string(status.Status),
		"channels":  views,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
