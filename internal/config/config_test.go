package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databasePathEnv, "")
	t.Setenv(githubTokenEnv, "")

	cfg := Load()

	assert.Equal(t, "data/signalfeed.db", cfg.Database.Path)
	assert.Equal(t, 6, cfg.Scheduler.IntervalHours)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.NotEmpty(t, cfg.Classifier.Keywords.Red)
	assert.NotEmpty(t, cfg.Classifier.Keywords.Yellow)
	assert.NotEmpty(t, cfg.Classifier.Keywords.Green)
	assert.Greater(t, cfg.Classifier.TieBreakEpsilon, 0.0)
	assert.NotEmpty(t, cfg.Sources)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/override.db
scheduler:
  intervalHours: 2
classifier:
  engagementWeight: 0.5
sources:
  - name: only-arxiv
    adapter: arxiv
    type: paper
    categories:
      - name: cs.AI
        url: https://arxiv.org/list/cs.AI/recent
`), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(databasePathEnv, "")

	cfg := Load()

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, 2, cfg.Scheduler.IntervalHours)
	assert.Equal(t, 0.5, cfg.Classifier.EngagementWeight)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "only-arxiv", cfg.Sources[0].Name)
	// Defaults survive where the file is silent.
	assert.Equal(t, 14, cfg.Classifier.RecencyWindowDays)
	assert.NotEmpty(t, cfg.Classifier.Keywords.Red)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databasePathEnv, "/var/lib/feed.db")
	t.Setenv(githubTokenEnv, "ghp_test")
	t.Setenv(telegramTokenEnv, "bot-token")
	t.Setenv(telegramChatEnv, "chat-42")

	cfg := Load()

	assert.Equal(t, "/var/lib/feed.db", cfg.Database.Path)
	assert.Equal(t, "bot-token", cfg.Notifications.Telegram.BotToken)
	assert.Equal(t, "chat-42", cfg.Notifications.Telegram.ChatID)

	var githubSeen bool
	for _, src := range cfg.Sources {
		if src.Adapter == "github" {
			githubSeen = true
			assert.Equal(t, "ghp_test", src.Token)
		}
	}
	assert.True(t, githubSeen)
}

func TestSchedulerInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "6h0m0s", SchedulerConfig{}.Interval().String())
	assert.Equal(t, "2h0m0s", SchedulerConfig{IntervalHours: 2}.Interval().String())
}

func TestBindTimezoneFallsBack(t *testing.T) {
	t.Parallel()

	cfg := Config{Scheduler: SchedulerConfig{Timezone: "Not/AZone"}}
	cfg.bindTimezone()
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
