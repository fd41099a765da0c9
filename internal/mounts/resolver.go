package mounts

import (
	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/auto-dns/docker-mount-notify/internal/util"
)

// Resolver derives watch targets from a container's bind mounts.
type Resolver struct {
	root  string
	style string
}

func NewResolver(root, style string) *Resolver {
	return &Resolver{root: root, style: style}
}

// Relevant reports whether the mount is a bind mount under the host-mount root.
func (r *Resolver) Relevant(m domain.Mount) bool {
	if m.Type != domain.MountTypeBind {
		return false
	}
	_, ok := trimRoot(r.root, m.Source)
	return ok
}

// Resolve returns one WatchTarget per relevant mount, in mount order.
func (r *Resolver) Resolve(c domain.Container) []domain.WatchTarget {
	name := c.DisplayName()
	return util.FilterMap(util.Filter(c.Mounts, r.Relevant), func(m domain.Mount) (domain.WatchTarget, bool) {
		hostPath, ok := TranslateHostPath(r.root, r.style, m.Source)
		return domain.WatchTarget{
			ContainerId:   c.Id,
			ContainerName: name,
			HostPath:      hostPath,
			ContainerPath: m.Destination,
		}, ok
	})
}
