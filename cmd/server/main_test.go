package main

import (
	"testing"
	"time"

	"github.com/noah-isme/supabase-admin/internal/app"
	_ "github.com/noah-isme/supabase-admin/testing"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode to be enabled")
	}

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("main did not return in test mode")
	}
}
