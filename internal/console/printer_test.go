package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestFixedWidth(t *testing.T) {
	t.Run("pads short text", func(t *testing.T) {
		got := FixedWidth("Backup of shop", 20)
		assert.Equal(t, "Backup of shop      ", got)
	})

	t.Run("wraps long text", func(t *testing.T) {
		got := FixedWidth(strings.Repeat("a", 25), 10)
		assert.Equal(t, "aaaaaaaaaa\naaaaaaaaaa\naaaaa     ", got)
	})

	t.Run("exact width", func(t *testing.T) {
		assert.Equal(t, "abcd", FixedWidth("abcd", 4))
	})
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)

	p.Done("Backup of shop")
	p.Error("Backup of wiki")
	p.Line("2 from 3 databases backed up successfully")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "\t[DONE]"))
	assert.True(t, strings.HasPrefix(lines[0], "Backup of shop "))
	assert.Equal(t, Width+len("\t[DONE]"), len(lines[0]))
	assert.True(t, strings.HasSuffix(lines[1], "\t[ERROR]"))
	assert.Equal(t, "2 from 3 databases backed up successfully", lines[2])
}

func TestPrinter_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	p.Done("x")
	p.Error("x")
	p.Line("x")

	assert.Empty(t, buf.String())
	assert.False(t, p.Enabled())
	assert.False(t, Discard().Enabled())
}

func TestPrinter_Nil(t *testing.T) {
	var p *Printer
	assert.NotPanics(t, func() { p.Done("x") })
}
