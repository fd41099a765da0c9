package mounts

import (
	"strings"

	"github.com/auto-dns/docker-mount-notify/internal/config"
)

// TranslateHostPath converts a runtime-side bind source under root into the native host path.
//
//	windows: /host_mnt/c/Users/x -> c:\Users\x
//	posix:   /host_mnt/Users/x   -> /Users/x
//
// ok is false when source does not lie under root.
func TranslateHostPath(root, style, source string) (string, bool) {
	rest, ok := trimRoot(root, source)
	if !ok {
		return "", false
	}
	if style != config.HostPathStyleWindows {
		return "/" + rest, true
	}
	drive, tail, _ := strings.Cut(rest, "/")
	if drive == "" {
		return "", false
	}
	return drive + `:\` + strings.ReplaceAll(tail, "/", `\`), true
}

// SourceFromHostPath is the inverse of TranslateHostPath.
func SourceFromHostPath(root, style, hostPath string) (string, bool) {
	root = strings.TrimSuffix(root, "/")
	if style != config.HostPathStyleWindows {
		if !strings.HasPrefix(hostPath, "/") {
			return "", false
		}
		return root + hostPath, true
	}
	drive, tail, ok := strings.Cut(hostPath, `:\`)
	if !ok || drive == "" {
		return "", false
	}
	if tail == "" {
		return root + "/" + drive, true
	}
	return root + "/" + drive + "/" + strings.ReplaceAll(tail, `\`, "/"), true
}

// DriveLetter returns the drive of a windows-style host path.
func DriveLetter(hostPath string) string {
	drive, _, ok := strings.Cut(hostPath, ":")
	if !ok {
		return ""
	}
	return drive
}

func trimRoot(root, source string) (string, bool) {
	prefix := strings.TrimSuffix(root, "/") + "/"
	if !strings.HasPrefix(source, prefix) {
		return "", false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(source, prefix), "/")
	return rest, rest != ""
}
