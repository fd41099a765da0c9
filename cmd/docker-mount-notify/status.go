package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/auto-dns/docker-mount-notify/internal/app"
	"github.com/auto-dns/docker-mount-notify/internal/config"
)

const statusTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the containers watched by every host, as published to etcd",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cmd.Context().Value(configKey).(*config.Config)
		if !cfg.Etcd.Enabled {
			return errors.New("etcd.enabled is false: no status is published")
		}

		publisher, err := app.NewEtcdPublisher(&cfg.Etcd, zerolog.Nop())
		if err != nil {
			return err
		}
		defer publisher.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()
		statuses, err := publisher.List(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(statuses) == 0 {
			fmt.Fprintln(out, "No containers are being watched")
			return nil
		}
		for _, s := range statuses {
			fmt.Fprintf(out, "%s/%s (%s) since %s\n", s.Hostname, s.ContainerName, shortId(s.ContainerId), s.Attached.Format(time.RFC3339))
			for _, t := range s.Targets {
				fmt.Fprintf(out, "  %s => %s\n", t.HostPath, t.ContainerPath)
			}
		}
		return nil
	},
}

func shortId(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
