/*
Package cli provides command-line helpers used by the switchboard command.

Output Formatting:

Commands print results as text or JSON depending on --format:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, report); err != nil {
		return err
	}

Results that implement TextWriter render their own text form.

Exit Codes:

ExitCode maps a command error to a process exit code. ExitError sets the code
explicitly; ConfigError maps to ExitConfig.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
