package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/scout/internal/adapters/dataset"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/pkg/logger"
)

const stdoutPath = "-"

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "scoutctl",
		Short:         "Offline tools for scout catalogues",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `scoutctl builds catalogue files for the scout server, runs listings over
them without a server, and load tests the vote pipeline of a running server.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	root.AddCommand(newGenerateCmd(), newImportCmd(), newListCmd(), newLoadtestCmd())
	return root
}

// writeDataset saves ds to path, or writes YAML to stdout when path is "-".
func writeDataset(cmd *cobra.Command, path string, ds model.Dataset) error {
	if path == stdoutPath {
		raw, err := dataset.Encode(ds, dataset.YAML)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	}
	if err := dataset.Save(cmd.Context(), path, ds); err != nil {
		return err
	}
	return report(cmd.ErrOrStderr(), "wrote %d contributors and %d projects to %s\n",
		len(ds.Contributors), len(ds.Projects), path)
}

func report(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
