package survey

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	var doc struct {
		Statuses  []string          `json:"statuses"`
		Questions []json.RawMessage `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(cfg.JSON(), &doc))
	assert.Contains(t, doc.Statuses, "Not Home")
	assert.NotEmpty(t, doc.Questions)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"version\": 7\n}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":7}`, string(cfg.JSON()))
	assert.Equal(t, `{"version":7}`, string(cfg.JSON()))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	for name, body := range map[string]string{
		"array":     `[1,2]`,
		"null":      `null`,
		"truncated": `{"version":`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}
