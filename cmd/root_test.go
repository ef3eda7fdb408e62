package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistration(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"harvest", "summarize", "timeseries", "mirror", "markets", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestHarvestFlagValidation(t *testing.T) {
	reset := func() {
		harvestDate, harvestStart, harvestEnd = "", "", ""
		harvestCmd.SetContext(context.Background())
	}

	t.Run("no dates", func(t *testing.T) {
		reset()
		err := harvestCmd.RunE(harvestCmd, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("date and range are exclusive", func(t *testing.T) {
		reset()
		harvestDate = "20240615"
		harvestStart = "20240601"
		err := harvestCmd.RunE(harvestCmd, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})

	t.Run("partial range", func(t *testing.T) {
		reset()
		harvestStart = "20240601"
		err := harvestCmd.RunE(harvestCmd, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "together")
	})
}

func TestServeDatePattern(t *testing.T) {
	assert.True(t, datePattern.MatchString("20240615"))
	assert.False(t, datePattern.MatchString("2024-06-15"))
	assert.False(t, datePattern.MatchString("202406"))
	assert.False(t, datePattern.MatchString(""))
}
