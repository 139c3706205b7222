package conf

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

func testDefaults() domain.Settings {
	return DefaultsConfig{
		AutoApprove:     true,
		Personality:     "default",
		MatchLimit:      100,
		TypingDelay:     3,
		MaxTokens:       300,
		Temperature:     0.8,
		MessageDelayMin: 30,
		MessageDelayMax: 120,
		OutreachCount:   5,
		SwipeLimit:      20,
	}.ToSettings()
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	store, err := LoadSettings(filepath.Join(t.TempDir(), "settings.yaml"), testDefaults())
	require.NoError(t, err)
	assert.Equal(t, testDefaults(), store.Get())
}

func TestSettingsUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	store, err := LoadSettings(path, testDefaults())
	require.NoError(t, err)

	got, err := store.Update(func(s *domain.Settings) {
		s.BotEnabled = true
		s.Personality = "playful"
	})
	require.NoError(t, err)
	assert.True(t, got.BotEnabled)

	reloaded, err := LoadSettings(path, testDefaults())
	require.NoError(t, err)
	assert.True(t, reloaded.Get().BotEnabled)
	assert.Equal(t, "playful", reloaded.Get().Personality)
}

func TestSettingsUpdateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := LoadSettings(path, testDefaults())
	require.NoError(t, err)

	_, err = store.Update(func(s *domain.Settings) { s.MatchLimit = 0 })
	assert.Error(t, err)
	assert.Equal(t, 100, store.Get().MatchLimit)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auto_swipe: true\n"), 0644))

	store, err := LoadSettings(path, testDefaults())
	require.NoError(t, err)
	assert.True(t, store.Get().AutoSwipe)
	assert.Equal(t, 300, store.Get().MaxTokens)
}

func TestLoadSettingsRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_tokens: -1\n"), 0644))

	_, err := LoadSettings(path, testDefaults())
	assert.Error(t, err)
}

func TestSettingsConcurrentUpdates(t *testing.T) {
	store, err := LoadSettings("", testDefaults())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(func(s *domain.Settings) { s.OutreachCount++ })
			_ = store.Get()
		}()
	}
	wg.Wait()
	assert.Equal(t, 25, store.Get().OutreachCount)
}
