package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/upstreamed/forksync/internal/syncer"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the forks a run would consider, without touching them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// listing never pushes, so a token is only needed when no
			// owner is given
			cfg.DryRun = true
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			ws, err := syncer.NewWorkspace(cfg.WorkDir)
			if err != nil {
				return err
			}
			s, err := syncer.New(cfg, ws)
			if err != nil {
				return err
			}
			defer s.Close()

			owner, records, err := s.Discover(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(out, "%s  %s\n", cyan(rec.Name), faint(describeFork(rec)))
			}
			fmt.Fprintf(out, "\n%d forks for %s\n", len(records), owner)
			return nil
		},
	}
}

func describeFork(rec *syncer.ForkRecord) string {
	parts := make([]string, 0, 3)
	if rec.Parent != "" {
		parts = append(parts, "from "+rec.Parent.String())
	} else {
		parts = append(parts, "(no parent)")
	}
	if rec.Language != "" {
		parts = append(parts, rec.Language)
	}
	if rec.PushedAt.IsZero() {
		parts = append(parts, "never pushed")
	} else {
		parts = append(parts, "pushed "+humanize.Time(rec.PushedAt))
	}
	return strings.Join(parts, " · ")
}
