package dictation

type EventKind int

const (
	// EventStatus reports lifecycle transitions; Text holds the state name.
	EventStatus EventKind = iota
	// EventTranscript carries recognized plain text headed for injection.
	EventTranscript
	// EventCommand reports an executed voice command; Text names it.
	EventCommand
	// EventLevel carries per-tick amplitude for metering, before and after
	// input gain.
	EventLevel
	// EventError carries a recoverable failure; Err wraps one of the
	// sentinel error classes.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventTranscript:
		return "transcript"
	case EventCommand:
		return "command"
	case EventLevel:
		return "level"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is one item on the session's status stream. Delivery is best
// effort: when the channel is full the event is dropped rather than
// blocking the pipeline.
type Event struct {
	Kind      EventKind
	Text      string
	Err       error
	Raw       float64 // amplitude before gain
	Processed float64 // amplitude after gain
}
