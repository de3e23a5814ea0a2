package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/notify"
)

// keepAliveInterval spaces comment lines keeping idle proxies from closing the stream
const keepAliveInterval = 15 * time.Second

// Events streams download and waiting-queue updates as server-sent events.
// The event name is the topic, the data its JSON payload.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	downloads, unsubscribeDownloads := h.events.Subscribe(downloader.TopicDownload, notify.DefaultBuffer)
	defer unsubscribeDownloads()
	waiting, unsubscribeWaiting := h.events.Subscribe(manager.TopicWaiting, notify.DefaultBuffer)
	defer unsubscribeWaiting()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		var msg notify.Message
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
			continue
		case msg, ok = <-downloads:
		case msg, ok = <-waiting:
		}
		if !ok {
			return
		}

		data, err := json.Marshal(msg.Payload)
		if err != nil {
			h.logger.Warn("failed to encode event", zap.String("topic", msg.Topic), zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Topic, data); err != nil {
			return
		}
		flusher.Flush()
	}
}
