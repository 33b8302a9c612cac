package orchestrator

// Reporter receives progress events. Messages take optional key/value pairs.
type Reporter interface {
	Step(message string, kv ...any)
	Success(message string, kv ...any)
	Warn(message string, kv ...any)
	Fail(message string, kv ...any)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Step(string, ...any)    {}
func (NopReporter) Success(string, ...any) {}
func (NopReporter) Warn(string, ...any)    {}
func (NopReporter) Fail(string, ...any)    {}
