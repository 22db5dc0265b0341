package main

import (
	"testing"

	"github.com/noah-isme/supabase-admin/internal/app"
	_ "github.com/noah-isme/supabase-admin/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode to be enabled")
	}
	main()
}
