package pipeline

// StatusSink receives the user-facing status lines a run emits as it moves
// through its stages. The CLI renders them as tagged console lines; tests
// and embedders can capture or drop them.
type StatusSink interface {
	// Info reports routine stage activity.
	Info(message string)
	// OK reports a completed step worth confirming.
	OK(message string)
	// Warn reports a recoverable anomaly that does not stop the run.
	Warn(message string)
}

// NopStatus discards all status lines.
type NopStatus struct{}

func (NopStatus) Info(string) {}

func (NopStatus) OK(string) {}

func (NopStatus) Warn(string) {}
