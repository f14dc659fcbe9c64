package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/engine"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
	"github.com/Sumatoshi-tech/sorttrace/pkg/report"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracefile"
)

// ErrNoInput is returned by play when neither a file nor --array is given.
var ErrNoInput = errors.New("play needs a trace file or --array")

type playCommand struct {
	app *App

	algorithm string
	array     []float64
	speed     float64
}

func newPlayCommand(app *App) *cobra.Command {
	pc := &playCommand{app: app}

	cmd := &cobra.Command{
		Use:   "play [file]",
		Short: "Play a trace in the terminal",
		Long: `Play steps through a trace at the configured speed and prints one line
per state change until the end of the trace or Ctrl-C.`,
		Example: `  sorttrace play run.json --speed 4
  sorttrace play --array 4,2,3,1 --algorithm insertion-sort`,
		Args: cobra.MaximumNArgs(1),
		RunE: pc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&pc.algorithm, "algorithm", "a", "", "algorithm id for --array (default from config)")
	flags.Float64SliceVar(&pc.array, "array", nil, "comma-separated input values")
	flags.Float64Var(&pc.speed, "speed", player.DefaultSpeed, "playback speed multiplier (0.25 to 4)")

	return cmd
}

func (pc *playCommand) run(cmd *cobra.Command, args []string) error {
	doc, err := pc.document(cmd, args)
	if err != nil {
		return err
	}

	speed := pc.app.cfg.Player.Speed
	if cmd.Flags().Changed("speed") {
		speed = pc.speed
	}

	clock := pc.app.clock
	if clock == nil {
		clock = player.RealClock()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &lockedWriter{w: cmd.OutOrStdout()}

	if len(doc.Operations) == 0 {
		_, err = fmt.Fprintln(out, frame(player.Snapshot{CurrentArray: doc.Input.Array}, player.Metrics{}))

		return err
	}

	var (
		armed    atomic.Bool
		finished = make(chan struct{})
		once     sync.Once
	)

	p := engine.NewPlayer(doc,
		player.WithClock(clock),
		player.WithSpeed(speed),
		player.WithLogger(pc.app.providers.Logger),
		player.WithObserver(func(snap player.Snapshot, metrics player.Metrics) {
			if !armed.Load() {
				return
			}

			fmt.Fprintln(out, frame(snap, metrics))

			if !snap.IsPlaying && snap.CurrentStep >= snap.TotalSteps {
				once.Do(func() { close(finished) })
			}
		}),
	)
	defer p.Close()

	armed.Store(true)
	p.Play()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		p.Pause()

		_, err = fmt.Fprintln(out, "interrupted")

		return err
	}
}

func (pc *playCommand) document(cmd *cobra.Command, args []string) (algorithm.Document, error) {
	if len(args) == 1 {
		return tracefile.Load(args[0])
	}

	if len(pc.array) == 0 {
		return algorithm.Document{}, ErrNoInput
	}

	id := pc.algorithm
	if id == "" {
		id = pc.app.cfg.Trace.Algorithm
	}

	eng, _, err := pc.app.newEngine(pc.app.providers.Meter)
	if err != nil {
		return algorithm.Document{}, err
	}

	return traceDocument(cmd.Context(), eng, id, pc.array)
}

// frame renders one playback line, e.g. "  3/10  swap [1]=2  [1 2 3]  cmp=2 swp=1".
func frame(snap player.Snapshot, metrics player.Metrics) string {
	last := "start"
	if snap.CurrentStep > 0 && snap.CurrentStep <= len(snap.Operations) {
		last = report.FormatOperation(snap.Operations[snap.CurrentStep-1])
	}

	return fmt.Sprintf("%3d/%d  %-24s [%s]  cmp=%d swp=%d",
		snap.CurrentStep, snap.TotalSteps, last,
		report.JoinValues(snap.CurrentArray, " "), metrics.Comparisons, metrics.Swaps)
}

// lockedWriter serializes writes from the playback clock and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.w.Write(p)
}
