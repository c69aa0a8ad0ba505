package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/teleops-rca/internal/ingest"
	"github.com/miradorstack/teleops-rca/internal/store"
)

var importFlags struct {
	dryRun bool
	reset  bool
}

var importCmd = &cobra.Command{
	Use:   "import <alerts.jsonl>",
	Short: "Load a JSONL alert export into the incident store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.BoolVar(&importFlags.dryRun, "dry-run", false, "Validate the file without writing to the store")
	f.BoolVar(&importFlags.reset, "reset", false, "Delete stored alerts, incidents and artifacts first")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(os.Stderr)
	if err != nil {
		return err
	}

	var sink ingest.AlertSink
	if !importFlags.dryRun {
		var st *store.Store
		if st, err = openStore(cfg, logger); err != nil {
			return err
		}
		defer st.Close()
		if importFlags.reset {
			if err := st.Reset(cmd.Context()); err != nil {
				return err
			}
		}
		sink = st
	}

	res, err := ingest.NewImporter(sink, logger).ImportFile(cmd.Context(), args[0], importFlags.dryRun)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d alerts from %s\n", res.Mode(), res.Count, res.Path)
	return nil
}
