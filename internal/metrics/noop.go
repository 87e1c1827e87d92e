package metrics

import "time"

// NewNoOpRecorder creates a Recorder that discards every event.
func NewNoOpRecorder() Recorder {
	return noOpRecorder{}
}

type noOpRecorder struct{}

func (noOpRecorder) ServiceRegistered(string)              {}
func (noOpRecorder) HandlerRegistered(string)              {}
func (noOpRecorder) Lookup(string, string)                 {}
func (noOpRecorder) InstanceCreated(string, time.Duration) {}
func (noOpRecorder) InstanceStopped(string)                {}
func (noOpRecorder) ConstructionFailed(string)             {}
func (noOpRecorder) CycleDetected(string)                  {}
