package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/entity"
	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/notify"
	"github.com/1930s/Podcast-Server/store"
)

// Controller is the download manager surface driven over HTTP
type Controller interface {
	Enqueue(di *entity.DownloadingItem) error
	RemoveItemFromQueue(ctx context.Context, id uuid.UUID, stopItem bool) error
	MoveItemInQueue(id uuid.UUID, position int) error
	StopDownload(id uuid.UUID) error
	PauseDownload(id uuid.UUID) error
	RestartDownload(id uuid.UUID) error
	ToggleDownload(id uuid.UUID) error
	StopAllDownload()
	PauseAllDownload()
	RestartAllDownload()
	SetLimitParallelDownload(limit int)
	Limit() int
	Downloading() []entity.Item
	Waiting() []entity.Item
}

// ItemFinder loads the item named by an enqueue request
type ItemFinder interface {
	FindItemByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
}

// Subscriber feeds the event stream
type Subscriber interface {
	Subscribe(topic string, buffer int) (<-chan notify.Message, func())
}

// Handlers groups the HTTP endpoints
type Handlers struct {
	controller Controller
	items      ItemFinder
	events     Subscriber
	logger     *zap.Logger
}

// NewHandlers creates the endpoint set
func NewHandlers(controller Controller, items ItemFinder, events Subscriber, logger *zap.Logger) *Handlers {
	return &Handlers{
		controller: controller,
		items:      items,
		events:     events,
		logger:     logger.Named("api"),
	}
}

// ListDownloading returns the items holding a download slot
func (h *Handlers) ListDownloading(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.controller.Downloading())
}

// ListWaiting returns the waiting queue in order
func (h *Handlers) ListWaiting(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.controller.Waiting())
}

// Enqueue queues an item, optionally overriding its file name and URL
func (h *Handlers) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.items.FindItemByID(r.Context(), uuid.MustParse(req.ItemID))
	if err != nil {
		h.writeError(w, err)
		return
	}

	di := &entity.DownloadingItem{Item: item, Filename: req.Filename, URL: req.URL}
	if err := h.controller.Enqueue(di); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

// ItemAction applies a per-item command taken from the {action} path segment
func (h *Handlers) ItemAction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var err error
	switch chi.URLParam(r, "action") {
	case "pause":
		err = h.controller.PauseDownload(id)
	case "stop":
		err = h.controller.StopDownload(id)
	case "restart":
		err = h.controller.RestartDownload(id)
	case "toggle":
		err = h.controller.ToggleDownload(id)
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkAction applies a command to every download
func (h *Handlers) BulkAction(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "pause":
		h.controller.PauseAllDownload()
	case "stop":
		h.controller.StopAllDownload()
	case "restart":
		h.controller.RestartAllDownload()
	default:
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLimit returns the number of parallel downloads
func (h *Handlers) GetLimit(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, limitResponse{Limit: h.controller.Limit()})
}

// SetLimit changes the number of parallel downloads
func (h *Handlers) SetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.controller.SetLimitParallelDownload(req.Limit)
	h.writeJSON(w, http.StatusOK, limitResponse{Limit: h.controller.Limit()})
}

// MoveWaiting moves a waiting item to a new position
func (h *Handlers) MoveWaiting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.controller.MoveItemInQueue(id, *req.Position); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.controller.Waiting())
}

// RemoveWaiting drops a waiting item; ?stop=true also persists it as stopped
func (h *Handlers) RemoveWaiting(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	stop := false
	if raw := r.URL.Query().Get("stop"); raw != "" {
		var err error
		if stop, err = strconv.ParseBool(raw); err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "stop: must be a boolean"})
			return
		}
	}

	if err := h.controller.RemoveItemFromQueue(r.Context(), id, stop); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id: must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

type validatable interface {
	Validate() error
}

// decode reads and validates a JSON body, answering 400 on failure
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if err := req.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrItemNotFound),
		errors.Is(err, manager.ErrNotDownloading),
		errors.Is(err, manager.ErrNotWaiting):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrAlreadyQueued),
		errors.Is(err, manager.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, manager.ErrQueueFull):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}
