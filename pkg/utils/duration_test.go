package utils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration(t *testing.T) {
	type Value struct {
		Timeout Duration `yaml:"timeout" json:"timeout"`
	}

	var fromYAML Value
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 250ms\n"), &fromYAML))
	assert.Equal(t, 250*time.Millisecond, fromYAML.Timeout.Std())

	var fromJSON Value
	require.NoError(t, json.Unmarshal([]byte(`{"timeout": "2s"}`), &fromJSON))
	assert.Equal(t, 2*time.Second, fromJSON.Timeout.Std())

	out, err := json.Marshal(fromJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout": "2s"}`, string(out))

	var bad Value
	assert.Error(t, yaml.Unmarshal([]byte("timeout: soon\n"), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"timeout": 5}`), &bad))
}
