package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/noah-isme/supabase-admin/internal/app"
)

var once sync.Once

// ensureTestMode keeps binaries started from tests from reaching real
// Supabase or Postgres endpoints.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv(app.TestModeEnv, "1")
		if os.Getenv("SUPABASE_URL") == "" {
			_ = os.Setenv("SUPABASE_URL", "http://127.0.0.1:0")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
