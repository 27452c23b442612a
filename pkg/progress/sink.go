// Package progress defines how discovery and execution events reach
// interested observers, and provides a WebSocket broadcast hub plus a
// log-file sink.
package progress

import "github.com/pilotlabs/webops/pkg/logging"

// Sink receives progress events from the discovery pipeline and the
// execution queue. Implementations must be safe for concurrent use and must
// not block the caller for long.
type Sink interface {
	// SendDiscoveryUpdate reports a discovery phase transition.
	// Progress is a percentage in [0,100].
	SendDiscoveryUpdate(serviceID, status string, progress int, message string)

	// SendExecutionLog reports an execution-side log line. ServiceID may
	// be empty for queue-global events.
	SendExecutionLog(serviceID, level, message string)
}

// LogSink writes progress events to the component log file.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink backed by the "progress" component logger.
func NewLogSink() *LogSink {
	logger, _ := logging.NewLogger("progress")
	return &LogSink{logger: logger}
}

// SendDiscoveryUpdate logs a discovery phase transition.
func (s *LogSink) SendDiscoveryUpdate(serviceID, status string, progress int, message string) {
	s.logger.Infof("discovery %s: %s (%d%%) %s", serviceID, status, progress, message)
}

// SendExecutionLog logs an execution event.
func (s *LogSink) SendExecutionLog(serviceID, level, message string) {
	switch level {
	case "error":
		s.logger.Errorf("execution %s: %s", serviceID, message)
	case "warn":
		s.logger.Warnf("execution %s: %s", serviceID, message)
	default:
		s.logger.Infof("execution %s: %s", serviceID, message)
	}
}

// multiSink fans events out to several sinks.
type multiSink struct {
	sinks []Sink
}

// Multi combines several sinks into one.
func Multi(sinks ...Sink) Sink {
	return &multiSink{sinks: sinks}
}

func (m *multiSink) SendDiscoveryUpdate(serviceID, status string, progress int, message string) {
	for _, s := range m.sinks {
		s.SendDiscoveryUpdate(serviceID, status, progress, message)
	}
}

func (m *multiSink) SendExecutionLog(serviceID, level, message string) {
	for _, s := range m.sinks {
		s.SendExecutionLog(serviceID, level, message)
	}
}
