package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/warehouse/internal/core/observability/log"
	"github.com/zeusync/warehouse/internal/core/warehouse"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Config
		wantErr string
	}{
		{
			name:  "empty document",
			input: "",
			want:  DefaultConfig(),
		},
		{
			name: "overrides",
			input: `
initial_capacity: 64
growth: eager
log_level: debug
metrics_namespace: game
`,
			want: Config{
				InitialCapacity:  64,
				Growth:           warehouse.GrowthEager,
				LogLevel:         "debug",
				MetricsNamespace: "game",
			},
		},
		{
			name:  "partial",
			input: "growth: lazy\n",
			want:  DefaultConfig(),
		},
		{name: "unknown field", input: "capacity: 3\n", wantErr: "field capacity not found"},
		{name: "unknown growth", input: "growth: sometimes\n", wantErr: "unknown growth mode"},
		{name: "unknown level", input: "log_level: loud\n", wantErr: "invalid config"},
		{name: "negative capacity", input: "initial_capacity: -1\n", wantErr: "is negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, log.LevelWarn, c.Level())
	require.Equal(t, 1024, c.InitialCapacity)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.Growth = warehouse.Growth(9)
	require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
}
