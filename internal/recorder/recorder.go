package recorder

import "gradewatch/internal/model"

// Recorder persists emitted events for later inspection.
type Recorder interface {
	RecordEvent(evt *model.Event) error
	Close() error
}
