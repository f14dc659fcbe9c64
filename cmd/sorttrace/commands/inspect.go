package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sorttrace/pkg/report"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracefile"
)

// ErrTracesDiffer is returned by diff --exit-code when the traces differ.
var ErrTracesDiffer = errors.New("traces differ")

type replayCommand struct {
	app *App

	step   int
	format string
	ops    bool
}

func newReplayCommand(app *App) *cobra.Command {
	rc := &replayCommand{app: app}

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Show the array and metrics at one step of a saved trace",
		Example: `  sorttrace replay run.json --step 12
  sorttrace replay run.lz4 --step -1 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	flags := cmd.Flags()
	flags.IntVarP(&rc.step, "step", "s", report.EndStep, "step to replay to; -1 is the end")
	flags.StringVarP(&rc.format, "format", "f", formatText, "output format: text, json, yaml, dump")
	flags.BoolVar(&rc.ops, "ops", false, "also list the operations up to the step")

	return cmd
}

func (rc *replayCommand) run(cmd *cobra.Command, args []string) error {
	doc, err := tracefile.Load(args[0])
	if err != nil {
		return err
	}

	summary := report.Summarize(doc, rc.step)
	out := cmd.OutOrStdout()

	switch rc.format {
	case formatText:
		err = report.WriteText(out, summary)
	case "json":
		err = report.WriteJSON(out, summary)
	case "yaml":
		err = report.WriteYAML(out, summary)
	case formatDump:
		err = report.WriteDump(out, summary)
	default:
		return fmt.Errorf("unsupported replay format %q", rc.format)
	}

	if err != nil {
		return err
	}

	if rc.ops {
		_, err = io.WriteString(out, report.FormatTrace(doc.Operations[:summary.Step]))
	}

	return err
}

func newVerifyCommand(_ *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>...",
		Short: "Check that saved traces replay to their final arrays",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var errs []error

			for _, path := range args {
				doc, err := tracefile.Load(path)
				if err != nil {
					fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), path, err)

					errs = append(errs, err)

					continue
				}

				fmt.Fprintf(out, "%s %s: %s, %d operations\n",
					color.GreenString("ok"), path, doc.Algorithm, len(doc.Operations))
			}

			return errors.Join(errs...)
		},
	}
}

type diffCommand struct {
	exitCode bool
}

func newDiffCommand(_ *App) *cobra.Command {
	dc := &diffCommand{}

	cmd := &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare two saved traces operation by operation",
		Args:  cobra.ExactArgs(2),
		RunE:  dc.run,
	}

	cmd.Flags().BoolVar(&dc.exitCode, "exit-code", false, "fail when the traces differ")

	return cmd
}

func (dc *diffCommand) run(cmd *cobra.Command, args []string) error {
	left, err := tracefile.Load(args[0])
	if err != nil {
		return err
	}

	right, err := tracefile.Load(args[1])
	if err != nil {
		return err
	}

	result := report.Diff(left, right)
	out := cmd.OutOrStdout()

	if result.Equal {
		_, err = fmt.Fprintln(out, "traces are identical")

		return err
	}

	fmt.Fprintf(out, "--- %s (%d operations)\n+++ %s (%d operations)\n",
		args[0], result.LeftLen, args[1], result.RightLen)
	fmt.Fprint(out, result.Unified)
	fmt.Fprintf(out, "%s, %s\n",
		color.GreenString("+%d", result.Added), color.RedString("-%d", result.Removed))

	if dc.exitCode {
		return ErrTracesDiffer
	}

	return nil
}
