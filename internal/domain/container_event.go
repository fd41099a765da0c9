package domain

type EventType string

const (
	EventTypeContainerDied             EventType = "die"
	EventTypeContainerStarted          EventType = "start"
	EventTypeInitialContainerDetection EventType = "initial_detection"
)

func (et EventType) IsValid() bool {
	switch et {
	case EventTypeContainerDied,
		EventTypeContainerStarted,
		EventTypeInitialContainerDetection:
		return true
	}
	return false
}

// Attaches reports whether the event should result in watchers being attached.
func (et EventType) Attaches() bool {
	return et == EventTypeContainerStarted || et == EventTypeInitialContainerDetection
}

type ContainerEvent struct {
	Container Container
	EventType EventType
}
