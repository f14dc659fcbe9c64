package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/engine"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
	"github.com/Sumatoshi-tech/sorttrace/pkg/report"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracefile"
)

type instantClock struct{}

func (instantClock) AfterFunc(_ time.Duration, f func()) player.Timer {
	go f()

	return stoppedTimer{}
}

type stoppedTimer struct{}

func (stoppedTimer) Stop() bool { return false }

// execute runs the CLI against an empty config file and returns stdout.
func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "sorttrace.yaml")
	require.NoError(t, os.WriteFile(configPath, nil, 0o600))

	if app == nil {
		app = &App{}
	}

	var out bytes.Buffer

	root := NewRootCommand(app)
	root.SetArgs(append([]string{"--config", configPath, "--log-level", "error"}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	require.NoError(t, app.close(context.Background()))

	return out.String(), err
}

// traceFile writes a trace of values to a file named name in a temp dir.
func traceFile(t *testing.T, name, id string, values string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	_, err := execute(t, nil, "trace", "--algorithm", id, "--array", values, "--output", path)
	require.NoError(t, err)

	return path
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sorttrace "), out)
}

func TestTraceCommand_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "trace", "--algorithm", "insertion-sort", "--array", "3,1,2")
	require.NoError(t, err)

	var doc algorithm.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, algorithm.InsertionSortID, doc.Algorithm)
	assert.Equal(t, []float64{3, 1, 2}, doc.Input.Array)
	assert.Equal(t, []float64{1, 2, 3}, doc.FinalArray)
	assert.NotEmpty(t, doc.Operations)
}

func TestTraceCommand_Text(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "trace", "--array", "2,1", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "merge-sort")
	assert.Contains(t, out, "verified")
	assert.Contains(t, out, "ok")
}

func TestTraceCommand_Generated(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "trace", "--pattern", "reversed", "--size", "5", "--seed", "9")
	require.NoError(t, err)

	var doc algorithm.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Input.Array, 5)
	assert.GreaterOrEqual(t, doc.Input.Array[0], doc.Input.Array[4])
	assert.LessOrEqual(t, doc.FinalArray[0], doc.FinalArray[4])
}

func TestTraceCommand_OutputFollowsExtension(t *testing.T) {
	t.Parallel()

	path := traceFile(t, "run.lz4", "merge-sort", "4,3,2,1")

	doc, err := tracefile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, doc.FinalArray)
}

func TestTraceCommand_Errors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, nil, "trace", "--algorithm", "bogo-sort", "--array", "1")
	require.ErrorIs(t, err, engine.ErrUnknownAlgorithm)

	_, err = execute(t, nil, "trace", "--array", "1,NaN")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = execute(t, nil, "trace", "--pattern", "zigzag")
	require.Error(t, err)

	_, err = execute(t, nil, "trace", "--array", "1", "--format", "xml")
	require.ErrorIs(t, err, tracefile.ErrUnknownCodec)
}

func TestReplayCommand(t *testing.T) {
	t.Parallel()

	path := traceFile(t, "run.json", "insertion-sort", "3,2,1")

	out, err := execute(t, nil, "replay", path, "--step", "0", "--format", "json")
	require.NoError(t, err)

	var start report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &start))
	assert.Equal(t, 0, start.Step)
	assert.Equal(t, []float64{3, 2, 1}, start.Array)

	out, err = execute(t, nil, "replay", path, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "array:")

	out, err = execute(t, nil, "replay", path, "--step", "2", "--ops")
	require.NoError(t, err)
	assert.Contains(t, out, "1 mark sorted [0]")
	assert.Contains(t, out, "2 mark active [1]")

	_, err = execute(t, nil, "replay", path, "--format", "xml")
	require.Error(t, err)
}

func TestVerifyCommand(t *testing.T) {
	t.Parallel()

	good := traceFile(t, "good.json", "merge-sort", "2,3,1")

	out, err := execute(t, nil, "verify", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	raw, err := os.ReadFile(good)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	generic["final_array"] = []float64{3, 2, 1}

	tampered, err := json.Marshal(generic)
	require.NoError(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, tampered, 0o600))

	out, err = execute(t, nil, "verify", good, bad)
	require.ErrorIs(t, err, tracefile.ErrFinalMismatch)
	assert.Contains(t, out, "FAIL")
}

func TestDiffCommand(t *testing.T) {
	t.Parallel()

	insertion := traceFile(t, "a.json", "insertion-sort", "3,1,2")
	merge := traceFile(t, "b.json", "merge-sort", "3,1,2")

	out, err := execute(t, nil, "diff", insertion, insertion)
	require.NoError(t, err)
	assert.Contains(t, out, "identical")

	out, err = execute(t, nil, "diff", insertion, merge)
	require.NoError(t, err)
	assert.Contains(t, out, "+++ ")

	_, err = execute(t, nil, "diff", "--exit-code", insertion, merge)
	require.ErrorIs(t, err, ErrTracesDiffer)
}

func TestAlgorithmsCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "algorithms")
	require.NoError(t, err)
	assert.Contains(t, out, "insertion-sort")
	assert.Contains(t, out, "merge-sort")

	out, err = execute(t, nil, "algorithms", "--format", "json")
	require.NoError(t, err)

	var listed map[string]algorithm.Metadata
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.True(t, listed["merge-sort"].Stable)
}

func TestGenerateCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "generate", "--pattern", "sorted", "--size", "4", "--seed", "3")
	require.NoError(t, err)

	fields := strings.Split(strings.TrimSpace(out), ",")
	assert.Len(t, fields, 4)

	again, err := execute(t, nil, "generate", "--pattern", "sorted", "--size", "4", "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestPlayCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, &App{clock: instantClock{}}, "play", "--algorithm", "insertion-sort", "--array", "2,1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[0], "start")
	assert.Contains(t, lines[len(lines)-1], "[1 2]")
}

func TestPlayCommand_File(t *testing.T) {
	t.Parallel()

	path := traceFile(t, "run.yaml", "merge-sort", "3,1,2")

	out, err := execute(t, &App{clock: instantClock{}}, "play", path, "--speed", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "[1 2 3]")
}

func TestPlayCommand_NoInput(t *testing.T) {
	t.Parallel()

	_, err := execute(t, nil, "play")
	require.ErrorIs(t, err, ErrNoInput)
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "sorttrace.yaml")
	require.NoError(t, os.WriteFile(configPath, nil, 0o600))

	app := &App{}
	root := NewRootCommand(app)
	root.SetArgs([]string{"--config", configPath, "--log-level", "error", "serve", "--port", "0"})
	root.SetOut(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	require.NoError(t, root.ExecuteContext(ctx))
	require.NoError(t, app.close(context.Background()))
}

func TestSchemaCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, nil, "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, schema, "properties")
}

func TestRootCommand_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	app := &App{}
	root := NewRootCommand(app)
	root.SetArgs([]string{"--log-level", "loud", "version"})
	root.SetOut(io.Discard)

	require.Error(t, root.Execute())
}
