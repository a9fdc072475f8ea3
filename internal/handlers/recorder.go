package handlers

// Recorder receives workflow outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveWorkflow(workflow, outcome string)
	AddPoints(source string, points int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveWorkflow(string, string) {}
func (noopRecorder) AddPoints(string, int)          {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
