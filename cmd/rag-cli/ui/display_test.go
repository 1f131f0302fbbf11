package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	Init(true, false)
	var buf bytes.Buffer
	SetOutput(&buf, &buf)
	t.Cleanup(func() { SetOutput(os.Stdout, os.Stderr) })
	return &buf
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{""}, wrap("   ", 10))
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 8))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, wrap("abcdefghijk", 5))
}

func TestBox(t *testing.T) {
	buf := captureOutput(t)

	Box("Regulations", "Batteries go to the drop-off center.", 40)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Regulations")
	assert.Contains(t, lines[3], "Batteries go to the drop-off center.")
	for _, l := range lines {
		assert.Equal(t, 44, len([]rune(l)))
	}
}

func TestTable(t *testing.T) {
	buf := captureOutput(t)

	Table([]string{"Key", "Value"}, [][]string{{"nodes", "42"}})

	assert.Equal(t, "Key    Value\n---    -----\nnodes  42\n", buf.String())
}

func TestSuccessWithoutColor(t *testing.T) {
	buf := captureOutput(t)

	Success("built %d nodes", 3)

	assert.Equal(t, "✓ built 3 nodes\n", buf.String())
}
