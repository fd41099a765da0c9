package status

import (
	"fmt"
	"strings"
)

func hostKeyPrefix(prefix, hostname string) string {
	return fmt.Sprintf("%s/%s/", strings.TrimRight(prefix, "/"), hostname)
}

func containerKey(prefix, hostname, containerId string) string {
	return hostKeyPrefix(prefix, hostname) + containerId
}

// hostAndIdFromKey splits <prefix>/<hostname>/<containerId>.
func hostAndIdFromKey(prefix, key string) (string, string, error) {
	prefix = strings.TrimRight(prefix, "/")
	path := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
	hostname, id, ok := strings.Cut(path, "/")
	if !ok || hostname == "" || id == "" || strings.Contains(id, "/") {
		return "", "", fmt.Errorf("unexpected status key %q", key)
	}
	return hostname, id, nil
}
