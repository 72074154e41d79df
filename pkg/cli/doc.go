/*
Package cli provides command-line helpers used by the miarh command.

Output Formatting:

Command results such as the `config check` summary are printed as text or
JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Pid Files:

	pf, err := cli.CreatePidfile(cfg.Server.PidFile)
	if err != nil {
		return err
	}
	defer pf.Close()
*/
package cli
