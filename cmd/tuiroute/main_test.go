package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiroute/internal/config"
	"github.com/verte-zerg/tuiroute/internal/model"
	"github.com/verte-zerg/tuiroute/internal/route"
	"github.com/verte-zerg/tuiroute/internal/session"
	"github.com/verte-zerg/tuiroute/internal/wordpool"
)

func TestValidateConfig(t *testing.T) {
	playLogLevel = "info"
	policy, err := validateConfig(model.Config{FPS: 30, HistoryLimit: 5, RestartPolicy: "reject"})
	require.NoError(t, err)
	assert.Equal(t, session.RestartReject, policy)

	_, err = validateConfig(model.Config{FPS: 0, HistoryLimit: 5})
	assert.Error(t, err)
	_, err = validateConfig(model.Config{FPS: 241, HistoryLimit: 5})
	assert.Error(t, err)
	_, err = validateConfig(model.Config{FPS: 30, HistoryLimit: 0})
	assert.Error(t, err)
	_, err = validateConfig(model.Config{FPS: 30, HistoryLimit: 5, RestartPolicy: "later"})
	assert.Error(t, err)

	playLogLevel = "chatty"
	_, err = validateConfig(model.Config{FPS: 30, HistoryLimit: 5})
	assert.Error(t, err)
	playLogLevel = "info"
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Set("fps", "50"))

	fps := 50
	fileFPS := 10
	applyIntConfig(cmd, "fps", &fps, &fileFPS)
	assert.Equal(t, 50, fps)

	routeID := defaultRoute
	fileRoute := route.SprintID
	applyStringConfig(cmd, "route", &routeID, &fileRoute)
	assert.Equal(t, route.SprintID, routeID)

	applyStringConfig(cmd, "route", &routeID, nil)
	assert.Equal(t, route.SprintID, routeID)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	md, err := toml.Decode(defaultConfigTemplate(), &cfg)
	require.NoError(t, err)
	assert.Empty(t, md.Undecoded())
	assert.Nil(t, cfg.Play.Route)

	uncommented := strings.ReplaceAll(defaultConfigTemplate(), "# route =", "route =")
	_, err = toml.Decode(uncommented, &cfg)
	require.NoError(t, err)
	require.NotNil(t, cfg.Play.Route)
	assert.Equal(t, defaultRoute, *cfg.Play.Route)
}

func TestWriteRoutes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRoutes(&buf, route.NewRegistry().List(), 200))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "sprint")
	assert.Contains(t, lines[2], "kana:20")
	assert.Contains(t, lines[2], "mixed:20(faster)")
	assert.Contains(t, lines[2], "1m0s")
}

func TestWritePools(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePools(&buf, wordpool.NewRegistry(), 200))
	out := buf.String()
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "train station keyboard program")
	assert.Contains(t, out, wordpool.SourceBuiltin)
}

func TestWritePoolsFitsNarrowTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePools(&buf, wordpool.NewRegistry(), 40))
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 40, line)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "ねこ", truncate("ねこいぬ", 5))
	assert.Equal(t, "aね", truncate("aねこ", 4))
}
