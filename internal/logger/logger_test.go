package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{in: "", want: DefaultLevel},
		{in: "debug", want: zerolog.DebugLevel},
		{in: " INFO ", want: zerolog.InfoLevel},
		{in: "error", want: zerolog.ErrorLevel},
		{in: "shouting", want: DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info().Msg("quiet")
	assert.Empty(t, buf.String())

	log.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug").Component("history")

	log.Debug().Str("name", "foo").Msg("recorded")

	out := buf.String()
	assert.Contains(t, out, "component=history")
	assert.Contains(t, out, "name=foo")
	assert.Contains(t, out, "recorded")
}

func TestNop_DiscardsOutput(t *testing.T) {
	log := Nop()
	// Must not panic and must not write anywhere.
	log.Error().Msg("ignored")
	log.Component("x").Info().Msg("ignored")
}
