package event

import (
	"strings"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
	"github.com/auto-dns/docker-mount-notify/internal/util"
)

// Filter selects containers by name or id. An empty filter selects every container.
type Filter []string

// Matches reports whether c is named by the filter, either by exact name or by id prefix.
func (f Filter) Matches(c domain.Container) bool {
	if len(f) == 0 {
		return true
	}
	return util.Any(f, func(want string) bool {
		want = strings.TrimPrefix(want, "/")
		if want == "" {
			return false
		}
		return c.Name == want || (c.Id != "" && strings.HasPrefix(c.Id, want))
	})
}
