// Package metrics holds the Prometheus collectors for face-quiz.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the counters.
const (
	OutcomeOK         = "ok"
	OutcomeAPIError   = "api_error"
	OutcomeTransport  = "transport_error"
	OutcomeCamera     = "camera_error"
	OutcomeSuperseded = "superseded"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing,
// so components can take one optionally.
type Metrics struct {
	registry    *prometheus.Registry
	apiRequests *prometheus.CounterVec
	faceUploads *prometheus.CounterVec
	quizStages  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "face_quiz",
			Name:      "api_requests_total",
			Help:      "Requests sent to the quiz API by operation and outcome.",
		}, []string{"operation", "outcome"}),
		faceUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "face_quiz",
			Name:      "face_uploads_total",
			Help:      "Face capture uploads by target path and outcome.",
		}, []string{"path", "outcome"}),
		quizStages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "face_quiz",
			Name:      "quiz_transitions_total",
			Help:      "Quiz view transitions by target stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(m.apiRequests, m.faceUploads, m.quizStages)
	return m
}

// APIRequest counts one API call.
func (m *Metrics) APIRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(operation, outcome).Inc()
}

// FaceUpload counts one capture-and-upload attempt.
func (m *Metrics) FaceUpload(path, outcome string) {
	if m == nil {
		return
	}
	m.faceUploads.WithLabelValues(path, outcome).Inc()
}

// QuizTransition counts one quiz view transition.
func (m *Metrics) QuizTransition(stage string) {
	if m == nil {
		return
	}
	m.quizStages.WithLabelValues(stage).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
