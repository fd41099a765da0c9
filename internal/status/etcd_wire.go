package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/domain"
)

type etcdTarget struct {
	HostPath      string `json:"host_path"`
	ContainerPath string `json:"container_path"`
}

type etcdStatus struct {
	ContainerName string       `json:"container_name"`
	Attached      time.Time    `json:"attached"`
	Targets       []etcdTarget `json:"targets"`
}

func marshalEtcdValue(s *ContainerStatus) (string, error) {
	wire := etcdStatus{
		ContainerName: s.ContainerName,
		Attached:      s.Attached,
		Targets:       make([]etcdTarget, 0, len(s.Targets)),
	}
	for _, t := range s.Targets {
		wire.Targets = append(wire.Targets, etcdTarget{HostPath: t.HostPath, ContainerPath: t.ContainerPath})
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalEtcdValue(key string, raw string, prefix string) (*ContainerStatus, error) {
	hostname, id, err := hostAndIdFromKey(prefix, key)
	if err != nil {
		return nil, err
	}

	var wire etcdStatus
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode etcd value: %w", err)
	}

	s := &ContainerStatus{
		Hostname:      hostname,
		ContainerId:   id,
		ContainerName: wire.ContainerName,
		Attached:      wire.Attached,
	}
	for _, t := range wire.Targets {
		s.Targets = append(s.Targets, domain.WatchTarget{
			ContainerId:   id,
			ContainerName: wire.ContainerName,
			HostPath:      t.HostPath,
			ContainerPath: t.ContainerPath,
		})
	}
	return s, nil
}
