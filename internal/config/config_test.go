package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "rummikub", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, rummikub.DefaultRules(), cfg.Game.Rules)
	assert.Equal(t, 1024, cfg.Game.NotifyQueue)
	assert.Equal(t, 30*time.Minute, cfg.Manager.EvictTimeout)
	assert.Equal(t, time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.Redis.Lock.TTL)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "postgres://postgres:@localhost:5432/rummikub?sslmode=disable", cfg.Database.DSN())
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
http:
  addr: ":9090"
game:
  rules:
    max_players: 6
    turn_time_limit: 20
scheduler:
  tick_interval: 500ms
database:
  enabled: true
  name: games
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 6, cfg.Game.Rules.MaxPlayers)
	assert.Equal(t, 20, cfg.Game.Rules.TurnTimeLimit)
	assert.Equal(t, 14, cfg.Game.Rules.StartingHandCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.TickInterval)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "games", cfg.Database.Name)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RUMMIKUB_HTTP_ADDR", ":7070")
	t.Setenv("RUMMIKUB_JWT_SECRET_KEY", "from-env")
	t.Setenv("RUMMIKUB_GAME_RULES_MAX_PLAYERS", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, 5, cfg.Game.Rules.MaxPlayers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_DefaultRules(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	rules, err := cfg.DefaultRules()
	require.NoError(t, err)
	assert.Equal(t, 2, rules.JokerCount)

	cfg.Game.Rules.MaxPlayers = 9
	_, err = cfg.DefaultRules()
	assert.ErrorIs(t, err, rummikub.ErrConfig)
}

func TestConfig_DefaultRulesFromPreset(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Game.PresetsFile = writeFile(t, "rules.yaml", `
presets:
  big:
    max_players: 6
`)
	cfg.Game.Preset = "big"

	rules, err := cfg.DefaultRules()
	require.NoError(t, err)
	assert.Equal(t, 6, rules.MaxPlayers)
	assert.Equal(t, 4, rules.JokerCount)

	cfg.Game.Preset = "missing"
	_, err = cfg.DefaultRules()
	assert.Error(t, err)
}

func TestParsePresets(t *testing.T) {
	presets, err := ParsePresets([]byte(`
presets:
  casual:
    min_entry_meld_score: 0
    win_condition: EMPTY_HAND
  blitz:
    starting_hand_count: 10
    turn_time_limit: 15
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"blitz", "casual"}, presets.Names())

	casual, err := presets.Get("casual")
	require.NoError(t, err)
	assert.Equal(t, 0, casual.MinEntryMeldScore)
	assert.Equal(t, rummikub.WinEmptyHand, casual.WinCondition)
	assert.Equal(t, 13, casual.MaxTile)

	blitz, err := presets.Get("blitz")
	require.NoError(t, err)
	assert.Equal(t, 10, blitz.StartingHandCount)
	assert.Equal(t, 30, blitz.MinEntryMeldScore)
}

func TestParsePresets_Invalid(t *testing.T) {
	_, err := ParsePresets([]byte(`
presets:
  broken:
    max_players: 2
`))
	assert.ErrorIs(t, err, rummikub.ErrConfig)

	_, err = ParsePresets([]byte("presets: [1, 2"))
	assert.Error(t, err)
}

func TestLoadPresets_RepositoryFile(t *testing.T) {
	presets, err := LoadPresets("../../configs/rules.yaml")
	require.NoError(t, err)
	assert.Contains(t, presets.Names(), "classic")
	assert.Contains(t, presets.Names(), "six-players")
}
