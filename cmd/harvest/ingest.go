package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/harvest/pkg/cli"
	"mercator-hq/harvest/pkg/submission/ingest"
)

var ingestFlags struct {
	file      string
	batchSize int
	summary   string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load submissions from JSON lines into the store",
	Long: `Load submissions into the configured submission store.

Input is one JSON object per line with the fields id, formId, parentId,
isComplete, createdAt, updatedAt, completedAt and data. data may be an
object or a string holding the encoded object. Existing submissions with
the same id are replaced. Invalid lines are skipped and counted.

Examples:
  # Load a file
  harvest ingest --file submissions.jsonl

  # Load from stdin
  cat submissions.jsonl | harvest ingest`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestFlags.file, "file", "f", "-", "JSON-lines file, or - for stdin")
	ingestCmd.Flags().IntVar(&ingestFlags.batchSize, "batch-size", ingest.DefaultBatchSize, "submissions stored per transaction")
	ingestCmd.Flags().StringVar(&ingestFlags.summary, "summary", "text", "summary format: text, json")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := initialize()
	if err != nil {
		return err
	}

	summaryFormat, err := cli.ParseOutputFormat(ingestFlags.summary)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if ingestFlags.file != "-" {
		f, err := os.Open(ingestFlags.file)
		if err != nil {
			return cli.NewCommandError("ingest", err)
		}
		defer f.Close()
		in = f
	}

	store, err := openStore(&cfg.Storage)
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}
	defer store.Close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	result, err := ingest.NewLoader(store, ingestFlags.batchSize).Load(ctx, in)
	if ferr := cli.NewFormatter(summaryFormat).FormatTo(cmd.OutOrStdout(), result); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}
	return nil
}
