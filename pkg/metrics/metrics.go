// Package metrics provides Prometheus counters for scoring activity.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "scorecard"

// Recorder receives scoring events worth counting.
type Recorder interface {
	ArrowRecorded(score string)
	EndCompleted()
	SessionStarted()
	SessionCompleted()
	ValidationFailed(code string)
	StorageFailed(op string)
}

// Manager owns a private registry and the counters registered on it.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	arrowsRecorded    *prometheus.CounterVec
	endsCompleted     prometheus.Counter
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	validationErrors  *prometheus.CounterVec
	storageErrors     *prometheus.CounterVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// New builds a Manager and registers its collectors.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{namespace: defaultNamespace, registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(m)
	}

	m.arrowsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "arrows_recorded_total",
		Help:      "Arrows recorded, by score.",
	}, []string{"score"})
	m.endsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ends_completed_total",
		Help:      "Ends completed.",
	})
	m.sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_started_total",
		Help:      "Sessions started.",
	})
	m.sessionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sessions_completed_total",
		Help:      "Sessions completed and moved to history.",
	})
	m.validationErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "validation_errors_total",
		Help:      "Rejected user actions, by error code.",
	}, []string{"code"})
	m.storageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "storage_errors_total",
		Help:      "Failed persistence calls, by operation.",
	}, []string{"op"})

	for _, c := range []prometheus.Collector{
		m.arrowsRecorded, m.endsCompleted, m.sessionsStarted,
		m.sessionsCompleted, m.validationErrors, m.storageErrors,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the gatherer for export.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes all metrics in text exposition format, replacing path atomically.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (m *Manager) ArrowRecorded(score string)   { m.arrowsRecorded.WithLabelValues(score).Inc() }
func (m *Manager) EndCompleted()                { m.endsCompleted.Inc() }
func (m *Manager) SessionStarted()              { m.sessionsStarted.Inc() }
func (m *Manager) SessionCompleted()            { m.sessionsCompleted.Inc() }
func (m *Manager) ValidationFailed(code string) { m.validationErrors.WithLabelValues(code).Inc() }
func (m *Manager) StorageFailed(op string)      { m.storageErrors.WithLabelValues(op).Inc() }

type nopRecorder struct{}

// Nop returns a Recorder that drops everything.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) ArrowRecorded(string)    {}
func (nopRecorder) EndCompleted()           {}
func (nopRecorder) SessionStarted()         {}
func (nopRecorder) SessionCompleted()       {}
func (nopRecorder) ValidationFailed(string) {}
func (nopRecorder) StorageFailed(string)    {}
