package server

import (
	"fmt"
	"net/http"
)

// StreamHandler serves the annotated frames as MJPEG.
type StreamHandler struct {
	hub     *Hub
	closing <-chan struct{}
}

// NewStreamHandler creates a new StreamHandler reading from hub. Streams end
// when closing is closed; a nil channel never ends them.
func NewStreamHandler(hub *Hub, closing <-chan struct{}) *StreamHandler {
	return &StreamHandler{hub: hub, closing: closing}
}

// ServeHTTP streams MJPEG frames to connected clients until they disconnect.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closing:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if len(u.JPEG) == 0 {
				continue
			}
			if err := writePart(w, u.JPEG); err != nil {
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
