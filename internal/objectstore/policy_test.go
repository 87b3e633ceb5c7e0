package objectstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/work", "deployments", "DEV", "demo", "policy-demo-conn-a.json"),
		PolicyPath("/work", "DEV", "demo", "conn-a"),
	)
}

func TestWritePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments", "DEV", "demo", "policy-demo-conn-a.json")
	require.NoError(t, WritePolicy(path, "demo", "conn-a"))

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.JSONEq(t, `{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Action": ["s3:*"],
			"Resource": ["arn:aws:s3:::demo-conn-a", "arn:aws:s3:::demo-conn-a/*"]
		}]
	}`, string(body))
	assert.Contains(t, string(body), "\n    \"Version\"")
}

func TestWritePolicy_Error(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := WritePolicy(filepath.Join(blocker, "policy.json"), "demo", "conn-a")
	assert.Error(t, err)
}
