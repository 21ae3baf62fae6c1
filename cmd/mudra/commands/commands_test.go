package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dictionary"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// runContext is run with a cancellable context for long-running commands.
func runContext(ctx context.Context, t *testing.T, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	defer rootCmd.SetContext(context.Background())
	return rootCmd.ExecuteContext(ctx)
}

// freeAddr returns a loopback address with a port nothing listens on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func writeJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func samplesFile(t *testing.T, dir string) string {
	t.Helper()
	return writeJSON(t, dir, "samples.json", []dictionary.Samples{
		{Label: "victory", Samples: [][][]float64{detector.VictoryLandmarks().Points.Rows()}},
		{Label: "hello", Samples: [][][]float64{
			detector.OpenPalmLandmarks().Points.Rows(),
			detector.OpenPalmLandmarks().Points.Rows(),
		}},
	})
}

func TestParseLandmarks(t *testing.T) {
	rows, err := parseLandmarks([]byte(` [[1,2,3]]`))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}}, rows)

	rows, err = parseLandmarks([]byte(`{"landmarks": [[4,5,6]]}`))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4, 5, 6}}, rows)

	_, err = parseLandmarks([]byte(`nope`))
	assert.Error(t, err)
}

func TestDictImportAndList(t *testing.T) {
	for _, ext := range []string{".npz", ".db"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			output := filepath.Join(dir, "signs"+ext)

			out, err := run(t, "dict", "import", "--input", samplesFile(t, dir), "--output", output)
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote 2 signs")

			dict, err := dictionary.Load(output)
			require.NoError(t, err)
			assert.Equal(t, []string{"victory", "hello"}, dict.Labels())

			out, err = run(t, "dict", "list", "--dictionary", output)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(out), "\n")
			require.Len(t, lines, 3)
			assert.Contains(t, lines[1], "victory")
			assert.Contains(t, lines[2], "hello")
		})
	}
}

func TestDictImport_BadSample(t *testing.T) {
	dir := t.TempDir()
	input := writeJSON(t, dir, "bad.json", []dictionary.Samples{
		{Label: "short", Samples: [][][]float64{{{1, 2, 3}}}},
	})

	_, err := run(t, "dict", "import", "--input", input, "--output", filepath.Join(dir, "out.npz"))
	require.Error(t, err)
	assert.ErrorIs(t, err, detector.ErrInvalidShape)
}

func TestPredictCommand(t *testing.T) {
	dir := t.TempDir()
	dictPath := filepath.Join(dir, "signs.npz")
	_, err := run(t, "dict", "import", "--input", samplesFile(t, dir), "--output", dictPath)
	require.NoError(t, err)

	input := writeJSON(t, dir, "hand.json", map[string]interface{}{
		"landmarks": detector.OpenPalmLandmarks().Points.Rows(),
	})

	out, err := run(t, "predict", "--input", input, "--dictionary", dictPath,
		"--model", filepath.Join(dir, "missing.onnx"), "--top", "2")
	require.NoError(t, err)

	var result predictOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "hello", result.PredictedSign)
	assert.Equal(t, "dictionary", result.Source)
	require.Len(t, result.Ranking, 2)
	assert.Equal(t, "hello", result.Ranking[0].Sign)
}

func TestFeaturesCommand(t *testing.T) {
	input := writeJSON(t, t.TempDir(), "hand.json", detector.ThumbsUpLandmarks().Points.Rows())

	out, err := run(t, "features", "--input", input)
	require.NoError(t, err)

	var features []float64
	require.NoError(t, json.Unmarshal([]byte(out), &features))
	assert.Len(t, features, gesture.FeatureLen)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mudra "))
}

func TestLiveCommand_InvalidSource(t *testing.T) {
	_, err := run(t, "live", "--source", "")
	assert.ErrorIs(t, err, config.ErrInvalidCameraSource)
}

func TestServeCommand_StartsAndStops(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	dir := t.TempDir()
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- runContext(ctx, t, "serve",
			"--addr", addr,
			"--model", filepath.Join(dir, "missing.onnx"),
			"--dictionary", filepath.Join(dir, "missing.npz"),
			"--log-level", "error",
		)
	}()

	var (
		exited    bool
		exitError error
	)
	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		select {
		case exitError = <-done:
			exited = true
			return true
		default:
		}
		resp, err := client.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)
	require.False(t, exited, "serve exited early: %v", exitError)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestDictAddAndRemove(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "signs.db")

	_, err := run(t, "dict", "import", "--input", samplesFile(t, dir), "--output", dbPath)
	require.NoError(t, err)

	extra := writeJSON(t, dir, "extra.json", []dictionary.Samples{
		{Label: "thumbs", Samples: [][][]float64{detector.ThumbsUpLandmarks().Points.Rows()}},
	})
	out, err := run(t, "dict", "add", "--input", extra, "--dictionary", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Added thumbs (1 samples)")

	dict, err := dictionary.Load(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"victory", "hello", "thumbs"}, dict.Labels())

	_, err = run(t, "dict", "add", "--input", extra, "--dictionary", dbPath)
	assert.ErrorIs(t, err, dictionary.ErrDuplicateLabel)

	out, err = run(t, "dict", "remove", "--dictionary", dbPath, "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed hello")

	dict, err = dictionary.Load(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"victory", "thumbs"}, dict.Labels())

	_, err = run(t, "dict", "remove", "--dictionary", dbPath, "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = run(t, "dict", "remove", "--dictionary", filepath.Join(dir, "signs.npz"), "hello")
	assert.Error(t, err, "npz dictionaries are read-only")
}
