package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// TestModeEnv disables outbound connections when set to a true value.
const TestModeEnv = "SUPABASE_ADMIN_TEST_MODE"

var testMode atomic.Pointer[bool]

func readTestMode() bool {
	enabled, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && enabled
}

// InTestMode reports whether binaries should return before dialing Supabase,
// Postgres or Redis. The environment is read on first use.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	enabled := readTestMode()
	testMode.CompareAndSwap(nil, &enabled)
	return *testMode.Load()
}

// RefreshTestMode re-reads the environment after it has been changed.
func RefreshTestMode() {
	enabled := readTestMode()
	testMode.Store(&enabled)
}
