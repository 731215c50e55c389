package core

import (
	"context"
	"path/filepath"
	"testing"

	"appstudio/internal/infra/persistence/memory"
	"appstudio/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "")
	path := filepath.Join(t.TempDir(), "studio.db")
	t.Setenv("APPSTUDIO_SQLITE_PATH", path)

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sq, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("got %T", store)
	}
	defer sq.Close()
	if sq.Path() != path {
		t.Fatalf("path %q", sq.Path())
	}

	svc := NewService(store)
	_, _, err = svc.CreateApplication(context.Background(), Application{WorkspaceID: "ws1", Name: "token"})
	if err != nil {
		t.Fatalf("create through sqlite store: %v", err)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "etcd")
	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
