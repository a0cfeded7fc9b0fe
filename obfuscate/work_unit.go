package obfuscate

// CallbackFunc is a callback function which will get called by the engine once
// the processing of a work unit has been finished
type CallbackFunc func(*WorkUnit)

// WorkUnit is a unit of obfuscation work
type WorkUnit struct {
	// Task the operation to run
	Task *Task
	// Error the error details of a failed Task. It is set before the callback is called.
	Error error
	// Metadata the values attached by the tap
	Metadata MetadataMap

	callback CallbackFunc
}

// NewWorkUnit creates a new work unit
func NewWorkUnit(t *Task, c CallbackFunc) *WorkUnit {
	return &WorkUnit{
		Task:     t,
		Metadata: make(MetadataMap),
		callback: c,
	}
}

func (w *WorkUnit) callBack() {
	if w.callback != nil {
		w.callback(w)
	}
}
