package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/simplistis/internal/errors"
)

func TestApply_OverridesFileValues(t *testing.T) {
	cfg := Default()
	workers := 4

	err := cfg.Apply(Overrides{
		Verbose:     true,
		LogFormat:   "JSON",
		FrontMatter: "yml",
		Workers:     &workers,
		OnError:     "failfast",
	})
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, FrontMatterYAML, cfg.FrontMatter.Format)
	assert.Equal(t, 4, cfg.Render.Workers)
	assert.Equal(t, ErrorPolicyAbort, cfg.Render.OnError)
}

func TestApply_ZeroValuesKeepSettings(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Apply(Overrides{}))
	assert.Equal(t, Default().Render, cfg.Render)
	assert.Equal(t, Default().Logging, cfg.Logging)
}

func TestApply_InvalidValueIsValidationError(t *testing.T) {
	cfg := Default()

	err := cfg.Apply(Overrides{OnError: "explode"})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryValidation))
}

func TestApply_NegativeWorkersClampedWithWarning(t *testing.T) {
	cfg := Default()
	workers := -3

	require.NoError(t, cfg.Apply(Overrides{Workers: &workers}))
	assert.Equal(t, 0, cfg.Render.Workers)
	require.Len(t, cfg.Warnings(), 1)
	assert.Contains(t, cfg.Warnings()[0], "render.workers")
}
