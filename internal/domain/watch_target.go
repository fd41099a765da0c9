package domain

// WatchTarget pairs a host directory (or file) with the path it is mounted at inside a container.
type WatchTarget struct {
	ContainerId   string
	ContainerName string
	HostPath      string
	ContainerPath string
}
