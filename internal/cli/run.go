package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexconsult/cnpj-enricher/internal/report"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Input     string
	OutputDir string
}

// RunSummary is the run command's result in json format.
type RunSummary struct {
	Source    string   `json:"source"`
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Successes int      `json:"successes"`
	Failures  int      `json:"failures"`
	Cancelled bool     `json:"cancelled"`
	Files     []string `json:"files"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run --input <file.csv>",
		Short: "Validate and enrich every CNPJ of a CSV file",
		Long: `Read the CNPJ column of a CSV file, validate each identifier, look the
valid ones up on BrasilAPI and write cnpjs_ok.csv and cnpjs_erros.csv
into the output directory.

Ctrl+C stops after the current row; rows already processed are saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "input CSV file with a CNPJ column")
	cmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", ".", "directory for the report files")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runEnrich(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions) error {
	cfg, log, err := loadConfig(rootOpts, cmd)
	if err != nil {
		return err
	}

	table, err := services.LoadInputTable(opts.Input)
	if err != nil {
		return err
	}

	client := services.NewBrasilAPIClient(cfg.Lookup, nil, log)
	pipeline := services.NewPipeline(client, cfg.Lookup.PacingDelay, log)

	cancel := &services.CancelFlag{}
	stopSignals := cancelOnSignal(cancel, log)
	defer stopSignals()

	var out io.Writer = cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		out = io.Discard
	}
	reporter := &consoleReporter{out: out, errOut: cmd.ErrOrStderr(), logger: log}
	persister := &report.DirPersister{Dir: opts.OutputDir, Logger: log}

	result, err := pipeline.Run(cmd.Context(), table, cancel, reporter, persister)
	if err != nil {
		return err
	}

	summary := RunSummary{
		Source:    table.Source,
		Total:     result.Total,
		Processed: result.Processed,
		Successes: len(result.Successes),
		Failures:  len(result.Failures),
		Cancelled: result.Cancelled,
		Files:     persister.Written(),
	}
	if summary.Files == nil {
		summary.Files = []string{}
	}

	if rootOpts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d sucesso(s), %d erro(s)\n", summary.Successes, summary.Failures)
	for _, f := range summary.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "Arquivo salvo: %s\n", f)
	}
	return nil
}

// cancelOnSignal flips cancel on SIGINT or SIGTERM until the returned func
// is called.
func cancelOnSignal(cancel *services.CancelFlag, log *logrus.Logger) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			log.WithField("signal", sig.String()).Warn("Cancellation requested")
			cancel.Cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// consoleReporter prints pipeline log lines; error-styled lines go to errOut
type consoleReporter struct {
	out    io.Writer
	errOut io.Writer
	logger *logrus.Logger
}

func (r *consoleReporter) Progress(done, total int) {
	r.logger.WithFields(logrus.Fields{
		"done":  done,
		"total": total,
	}).Debug("Progress")
}

func (r *consoleReporter) Log(message string, style services.LogStyle) {
	if style == services.LogStyleError {
		fmt.Fprintln(r.errOut, message)
		return
	}
	fmt.Fprintln(r.out, message)
}
