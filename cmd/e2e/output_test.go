package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type row struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func printRows(t *testing.T, format string, rows []row) string {
	t.Helper()
	var buf bytes.Buffer
	p, err := newPrinter(&buf, format)
	require.NoError(t, err)
	err = p.print(rows, []string{"ID", "NAME"}, func() [][]string {
		var out [][]string
		for _, r := range rows {
			out = append(out, []string{r.ID, r.Name})
		}
		return out
	})
	require.NoError(t, err)
	return buf.String()
}

func TestPrinter(t *testing.T) {
	rows := []row{{ID: "LOGIN01", Name: "login"}, {ID: "RATE01", Name: "rate"}}

	t.Run("table", func(t *testing.T) {
		out := printRows(t, "table", rows)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[2], "RATE01")
	})

	t.Run("json", func(t *testing.T) {
		var got []row
		require.NoError(t, json.Unmarshal([]byte(printRows(t, "json", rows)), &got))
		assert.Equal(t, rows, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var got []row
		require.NoError(t, yaml.Unmarshal([]byte(printRows(t, "yaml", rows)), &got))
		assert.Equal(t, rows, got)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := newPrinter(&bytes.Buffer{}, "xml")
		assert.Error(t, err)
	})
}

func TestPrinterMessage(t *testing.T) {
	var buf bytes.Buffer
	p, err := newPrinter(&buf, "json")
	require.NoError(t, err)
	p.message("hello %s", "world")
	assert.Empty(t, buf.String())

	p, err = newPrinter(&buf, "table")
	require.NoError(t, err)
	p.message("hello %s", "world")
	assert.Equal(t, "hello world\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghijk", 7))
	assert.Equal(t, "a b", truncate("a\nb", 10))
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		input string
		skip  bool
		want  bool
	}{
		{input: "", skip: true, want: true},
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "", want: false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirmAction(strings.NewReader(tt.input), &out, "Delete?", tt.skip)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "-", formatTime(nil))
	assert.Equal(t, "-", formatDuration(0))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
}
