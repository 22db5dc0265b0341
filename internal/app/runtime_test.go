package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefreshTestModeReadsEnvironment(t *testing.T) {
	t.Cleanup(RefreshTestMode)

	t.Setenv(TestModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(TestModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(TestModeEnv, "not-a-bool")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
