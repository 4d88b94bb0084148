package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// run executes the CLI with args on the CPU and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	base := []string{"--config", filepath.Join(t.TempDir(), "none.toml"), "--gpu=false", "--seed", "1"}
	root.SetArgs(append(args[:1:1], append(base, args[1:]...)...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSortCommand(t *testing.T) {
	out, err := run(t, "sort", "--length-index", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "sort test: 1024\n---\n")
	assert.Contains(t, out, "CPU sort result validation: success")
	assert.Contains(t, out, "GPU sort result validation: success")
	assert.Contains(t, out, "backend: cpu")
}

func TestSortCommandBadIndex(t *testing.T) {
	_, err := run(t, "sort", "--length-index", "99")
	assert.Error(t, err)
}

func TestSquaresCommand(t *testing.T) {
	out, err := run(t, "squares", "--length", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "squares test: 300")
	assert.Contains(t, out, "GPU squares result validation: success")
}

func TestBlurCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blurred.png")
	out, err := run(t, "blur", "--output", path, "--kind", "box", "--radius", "2", "--iterations", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "blur test: 512x512 box radius=2 iterations=1")
	assert.FileExists(t, path)
}

func TestBlurCommandBadKind(t *testing.T) {
	_, err := run(t, "blur", "--kind", "median")
	assert.ErrorContains(t, err, "blur.kind")
}

func TestBlurWatchRejectsOutputOverInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.png")

	_, err := run(t, "blur", "--watch", "--input", input, "--output", dir+"/sub/../in.png")
	assert.ErrorContains(t, err, "over its own input")

	_, err = run(t, "blur", "--watch", "--input", input, "--output", output, "--comparison", dir+"/./in.png")
	assert.ErrorContains(t, err, "over its own input")

	_, err = run(t, "blur", "--watch", "--output", output)
	assert.ErrorContains(t, err, "--watch needs --input")
}

func TestConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "computedemo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[squares]\nlength = 16\n"), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"squares", "--config", path, "--gpu=false"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "squares test: 16\n")
}

func TestLengthsCommand(t *testing.T) {
	out, err := run(t, "lengths")
	require.NoError(t, err)
	assert.Contains(t, out, "1024")
	assert.Contains(t, out, "2097152")
	assert.Contains(t, out, "*")
}
