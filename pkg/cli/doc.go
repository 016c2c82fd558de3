/*
Package cli provides command-line helpers for the harvest command.

Output Formatting:

Command results such as export.FileExport are printed as a text summary or
as JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

Exports can report progress while rows stream through:

	progress := cli.NewProgressReporter(os.Stderr, "rows")
	progress.Start(total)
	rows = cli.TrackRows(ctx, rows, progress, 1000)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ExitCode maps command errors to process exit codes. Configuration problems
exit with ExitConfig.
*/
package cli
