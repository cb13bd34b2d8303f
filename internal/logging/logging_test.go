package logging

import (
	"log/slog"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
)

func TestRuntimeOSCDispatcherAdjustsCategoryLevel(t *testing.T) {
	Get(SurfaceIn) // ensure the LevelVar exists with its default

	d := RuntimeOSCDispatcher()
	d.Dispatch(osc.NewMessage("/meta/logging/surface_in/level", int32(slog.LevelDebug)))

	assert.True(t, categoryLevels[SurfaceIn].Level() == slog.LevelDebug)
}

func TestRuntimeOSCDispatcherIgnoresMalformedAddress(t *testing.T) {
	Get(Core) // ensure the LevelVar exists with its default
	before := categoryLevels[Core].Level()

	d := RuntimeOSCDispatcher()
	d.Dispatch(osc.NewMessage("/meta/logging/core", int32(slog.LevelError)))
	d.Dispatch(osc.NewMessage("/meta/logging/not_a_category/level", int32(slog.LevelError)))
	d.Dispatch(osc.NewMessage("/meta/logging/core/level"))

	assert.Equal(t, before, categoryLevels[Core].Level())
}
