package handlers

import (
	"net/http"
	"strconv"
)

// CameraFrame serves one camera frame as JPEG for the preview. The camera is
// released before the response is written.
func CameraFrame(w http.ResponseWriter, r *http.Request) {
	views := mustGetViews(w, r)
	if views == nil {
		return
	}

	frame, err := views.preview(r.Context())
	if err != nil {
		http.Error(w, "camera unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.WriteHeader(http.StatusOK)
	w.Write(frame)
}
