package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/claims/internal/config"
	"github.com/JonMunkholm/claims/internal/memstore"
)

func TestOpenMemory(t *testing.T) {
	store, closeFn, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeFn()

	if _, ok := store.(*memstore.Store); !ok {
		t.Errorf("Open() store = %T, want *memstore.Store", store)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite"})
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Errorf("Open() error = %v, want unknown driver error", err)
	}
}
