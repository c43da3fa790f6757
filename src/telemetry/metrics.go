// Package telemetry exposes Prometheus counters for the monitoring loop.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	quizzesDetected   prometheus.Counter
	staleQuizzes      prometheus.Counter
	answersResolved   *prometheus.CounterVec // source: cache|oracle|fallback
	submissions       *prometheus.CounterVec // result: submitted|failed|skipped
	reconnectAttempts prometheus.Counter
	loopErrors        prometheus.Counter
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		quizzesDetected = promauto.NewCounter(prometheus.CounterOpts{
			Name: "quizsentry_quizzes_detected_total", Help: "Fresh quiz events detected"})
		staleQuizzes = promauto.NewCounter(prometheus.CounterOpts{
			Name: "quizsentry_quizzes_stale_total", Help: "Quiz events ignored for exceeding the age threshold"})
		answersResolved = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quizsentry_answers_resolved_total", Help: "Answers resolved, by source"}, []string{"source"})
		submissions = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quizsentry_submissions_total", Help: "Per-identity submission outcomes, by result"}, []string{"result"})
		reconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
			Name: "quizsentry_reconnect_attempts_total", Help: "Full session-pool reconnection passes"})
		loopErrors = promauto.NewCounter(prometheus.CounterOpts{
			Name: "quizsentry_loop_errors_total", Help: "Monitoring loop iteration errors"})
	})
}

// The helpers are nil-safe so code paths under test run without Init.

func QuizDetected() {
	if quizzesDetected != nil {
		quizzesDetected.Inc()
	}
}

func QuizStale() {
	if staleQuizzes != nil {
		staleQuizzes.Inc()
	}
}

func AnswerResolved(source string) {
	if answersResolved != nil {
		answersResolved.WithLabelValues(source).Inc()
	}
}

func Submission(result string) {
	if submissions != nil {
		submissions.WithLabelValues(result).Inc()
	}
}

func ReconnectAttempt() {
	if reconnectAttempts != nil {
		reconnectAttempts.Inc()
	}
}

func LoopError() {
	if loopErrors != nil {
		loopErrors.Inc()
	}
}
