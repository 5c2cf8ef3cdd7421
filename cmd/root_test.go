package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adalundhe/scout/core/events"
)

func TestNewEventBus_LogsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	bus := newEventBus(logger)

	event := events.NewEvent(events.EventTypeAnalysisStarted)
	event.Query = "parseConfig"
	bus.Publish(event)
	bus.Close()

	output := buf.String()
	assert.Contains(t, output, "lifecycle event")
	assert.Contains(t, output, "analysis_started")
	assert.Contains(t, output, "parseConfig")
}
