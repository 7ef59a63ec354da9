package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainTableWriterRendersHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlainTableWriter(&buf)
	w.SetHeaders([]string{"key", "provider"})
	w.AppendRow([]string{"cache", "redis"})
	w.Render()

	out := buf.String()
	assert.True(t, strings.Contains(out, "KEY"))
	assert.True(t, strings.Contains(out, "cache"))
	assert.True(t, strings.Contains(out, "redis"))
}

func TestPlainTableWriterNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlainTableWriter(&buf)
	w.SetHeaders([]string{"key"})
	w.SetNoHeaders(true)
	w.Render()
	assert.Empty(t, buf.String())
}

func TestPlainTableWriterPadsColumns(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlainTableWriter(&buf)
	w.SetHeaders([]string{"key", "provider"})
	w.AppendRow([]string{"a", "b"})
	w.AppendRow([]string{"longkey", "b"})
	w.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
}
