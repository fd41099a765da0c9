package domain

const MountTypeBind = "bind"

// Container is the subset of inspected container metadata the watcher needs.
type Container struct {
	Id     string
	Name   string
	Mounts []Mount
}

// DisplayName returns the container name, falling back to the id.
func (c Container) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Id
}

type Mount struct {
	Type        string
	Source      string
	Destination string
}
