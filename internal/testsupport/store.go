package testsupport

import (
	"testing"

	"kirei/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, dbPath string) *history.Store {
	t.Helper()

	store, err := history.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("history.OpenPath: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
