package dockerapi

import (
	"strings"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
)

func fromContainerSummary(c container.Summary) domain.Container {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}
	return domain.Container{
		Id:   c.ID,
		Name: name,
	}
}

func fromInspectResponse(info container.InspectResponse) domain.Container {
	var c domain.Container
	if info.ContainerJSONBase != nil {
		c.Id = info.ID
		c.Name = strings.TrimPrefix(info.Name, "/")
	}
	for _, m := range info.Mounts {
		c.Mounts = append(c.Mounts, domain.Mount{
			Type:        string(m.Type),
			Source:      m.Source,
			Destination: m.Destination,
		})
	}
	return c
}

func fromEventsMessage(msg events.Message) (domain.ContainerEvent, error) {
	ev := domain.ContainerEvent{
		Container: domain.Container{
			Id:   msg.Actor.ID,
			Name: msg.Actor.Attributes["name"],
		},
		EventType: domain.EventType(msg.Action),
	}
	if ev.EventType == domain.EventTypeInitialContainerDetection || !ev.EventType.IsValid() {
		return domain.ContainerEvent{}, NewUnsupportedEventTypeError(ev.EventType)
	}
	return ev, nil
}
