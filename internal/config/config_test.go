package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SMSLEDGER_TEST_DIR", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "ledger.db"), ExpandPath("~/ledger.db"))
	assert.Equal(t, "/data/ledger.db", ExpandPath("$SMSLEDGER_TEST_DIR/ledger.db"))
	assert.Equal(t, "~user/ledger.db", ExpandPath("~user/ledger.db"), "other users' homes are left alone")
}

func TestConfigDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, []string{filepath.Join(home, ".config", "smsledger")}, ConfigDirs())

	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	assert.Equal(t, []string{
		filepath.Join("/etc/xdg", "smsledger"),
		filepath.Join(home, ".config", "smsledger"),
	}, ConfigDirs())
}

func TestDefaultDatabasePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Setenv("XDG_DATA_HOME", "")
	assert.Equal(t, filepath.Join(home, ".local", "share", "smsledger", "smsledger.db"), DefaultDatabasePath())

	t.Setenv("XDG_DATA_HOME", "/srv/data")
	assert.Equal(t, filepath.Join("/srv/data", "smsledger", "smsledger.db"), DefaultDatabasePath())
}

func TestLoadPolicy_Defaults(t *testing.T) {
	p, err := LoadPolicy(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
	assert.Equal(t, 60*time.Second, p.DedupeTolerance)
}

func TestLoadPolicy_Overrides(t *testing.T) {
	v := viper.New()
	v.Set(KeyDedupeTolerance, "90s")
	v.Set(KeyFuzzyMerchantThreshold, 0.75)
	v.Set(KeyMaxSuggestions, 5)

	p, err := LoadPolicy(v)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, p.DedupeTolerance)
	assert.InDelta(t, 0.75, p.FuzzyMerchantThreshold, 1e-9)
	assert.InDelta(t, 0.8, p.FuzzyKeywordThreshold, 1e-9)
	assert.Equal(t, 5, p.MaxSuggestions)
}

func TestLoadPolicy_Invalid(t *testing.T) {
	tests := []struct {
		value any
		name  string
		key   string
	}{
		{name: "zero tolerance", key: KeyDedupeTolerance, value: "0s"},
		{name: "merchant threshold above one", key: KeyFuzzyMerchantThreshold, value: 1.5},
		{name: "zero keyword threshold", key: KeyFuzzyKeywordThreshold, value: 0},
		{name: "negative max suggestions", key: KeyMaxSuggestions, value: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := LoadPolicy(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}
