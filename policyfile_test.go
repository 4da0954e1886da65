package restfit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyFromBytesJSON(t *testing.T) {
	doc := []byte(`{
		"retry": {
			"retries": 5,
			"baseDelayMs": 250,
			"maxDelayMs": 5000,
			"exponential": false,
			"retryableStatusCodes": [500, 503]
		},
		"circuitBreaker": {
			"failureThreshold": 10,
			"windowMs": 30000,
			"minimumRequests": 20
		}
	}`)

	policy, err := PolicyFromBytes(doc, FormatJSON)
	require.NoError(t, err)

	require.NotNil(t, policy.Retry)
	assert.Equal(t, 5, *policy.Retry.Retries)
	assert.Equal(t, 250*time.Millisecond, *policy.Retry.BaseDelay)
	assert.Equal(t, 5*time.Second, *policy.Retry.MaxDelay)
	assert.False(t, *policy.Retry.Exponential)
	assert.Equal(t, []int{500, 503}, policy.Retry.RetryableStatusCodes)
	assert.Nil(t, policy.Retry.Multiplier, "absent fields stay nil")

	require.NotNil(t, policy.CircuitBreaker)
	assert.Equal(t, 10, *policy.CircuitBreaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, *policy.CircuitBreaker.Window)
	assert.Equal(t, 20, *policy.CircuitBreaker.MinimumRequests)
	assert.Nil(t, policy.CircuitBreaker.OpenTimeout)
}

func TestPolicyFromBytesYAML(t *testing.T) {
	doc := []byte(`
retry:
  retries: 2
  baseDelayMs: 100
  jitter: 0.25
circuitBreaker:
  disabled: true
`)

	policy, err := PolicyFromBytes(doc, FormatYAML)
	require.NoError(t, err)

	require.NotNil(t, policy.Retry)
	assert.Equal(t, 2, *policy.Retry.Retries)
	assert.Equal(t, 100*time.Millisecond, *policy.Retry.BaseDelay)
	assert.Equal(t, 0.25, *policy.Retry.Jitter)

	require.NotNil(t, policy.CircuitBreaker)
	assert.True(t, policy.CircuitBreaker.Disabled)
}

func TestPolicyFromBytesEmptyDocument(t *testing.T) {
	policy, err := PolicyFromBytes([]byte(`{}`), FormatJSON)
	require.NoError(t, err)

	assert.Nil(t, policy.Retry)
	assert.Nil(t, policy.CircuitBreaker)
}

func TestPolicyFromBytesUnsupportedFormat(t *testing.T) {
	_, err := PolicyFromBytes([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestPolicyFromBytesMalformed(t *testing.T) {
	_, err := PolicyFromBytes([]byte(`{not json`), FormatJSON)
	assert.Error(t, err)
}

func TestPolicyFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  retries: 7\n"), 0o600))

	policy, err := PolicyFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, policy.Retry)
	assert.Equal(t, 7, *policy.Retry.Retries)
}

func TestPolicyFromFileUnknownExtension(t *testing.T) {
	_, err := PolicyFromFile("policy.toml")
	assert.Error(t, err)
}

func TestPolicyFromFileMissing(t *testing.T) {
	_, err := PolicyFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestPolicyFromBytesComposesWithMerge(t *testing.T) {
	doc := []byte(`{"retry": {"retries": 1}}`)
	override, err := PolicyFromBytes(doc, FormatJSON)
	require.NoError(t, err)

	merged := MergePolicies(DefaultPolicy(), override)

	assert.Equal(t, 1, *merged.Retry.Retries)
	assert.Equal(t, 100*time.Millisecond, *merged.Retry.BaseDelay, "unset fields inherit the base")
	assert.NotNil(t, merged.CircuitBreaker, "nil breaker override keeps the base")
}
