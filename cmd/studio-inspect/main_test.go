package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"appstudio/internal/core"
	"appstudio/internal/infra/persistence/sqlite"
)

func seedDatabase(t *testing.T, path string) {
	t.Helper()
	store, err := sqlite.NewStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	svc := core.NewService(store)
	ctx := context.Background()
	if _, _, err := svc.CreateApplication(ctx, core.Application{Base: core.Base{ID: "app1"}, WorkspaceID: "ws1", Name: "token"}); err != nil {
		t.Fatalf("seed application: %v", err)
	}
	if _, _, err := svc.CreateInstruction(ctx, core.Instruction{Base: core.Base{ID: "ins1"}, WorkspaceID: "ws1", ApplicationID: "app1", Name: "transfer"}); err != nil {
		t.Fatalf("seed instruction: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLIPrintsApplicationView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.db")
	seedDatabase(t, path)
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "sqlite")
	t.Setenv("APPSTUDIO_SQLITE_PATH", path)

	code, stdout, stderr := runCLI(t, "-application", "app1")
	if code != 0 {
		t.Fatalf("exit %d stderr %q", code, stderr)
	}
	var view core.ApplicationView
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if view.Application.ID != "app1" || len(view.Instructions) != 1 {
		t.Fatalf("view %+v", view)
	}
}

func TestCLIPrintsInstructionView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.db")
	seedDatabase(t, path)
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "sqlite")
	t.Setenv("APPSTUDIO_SQLITE_PATH", path)

	code, stdout, stderr := runCLI(t, "-instruction", "ins1")
	if code != 0 {
		t.Fatalf("exit %d stderr %q", code, stderr)
	}
	var view core.InstructionView
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if view.Instruction.Name != "transfer" {
		t.Fatalf("view %+v", view)
	}
}

func TestCLIPrintsWorkspaceView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.db")
	seedDatabase(t, path)
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "sqlite")
	t.Setenv("APPSTUDIO_SQLITE_PATH", path)

	code, stdout, stderr := runCLI(t, "-workspace", "ws1")
	if code != 0 {
		t.Fatalf("exit %d stderr %q", code, stderr)
	}
	var view core.WorkspaceView
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if view.WorkspaceID != "ws1" || len(view.Applications) != 1 {
		t.Fatalf("view %+v", view)
	}
}

func TestCLIMissingApplication(t *testing.T) {
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "memory")

	code, _, stderr := runCLI(t, "-application", "ghost")
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stderr, "application ghost not found") {
		t.Fatalf("stderr %q", stderr)
	}
}

func TestCLIRequiresExactlyOneTarget(t *testing.T) {
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "memory")

	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no flags: exit %d", code)
	}
	if code, _, _ := runCLI(t, "-workspace", "ws1", "-application", "app1"); code != 2 {
		t.Fatalf("two flags: exit %d", code)
	}
}

func TestCLIUnknownDriver(t *testing.T) {
	t.Setenv("APPSTUDIO_STORAGE_DRIVER", "etcd")

	code, _, stderr := runCLI(t, "-workspace", "ws1")
	if code != 1 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stderr, "unknown storage driver") {
		t.Fatalf("stderr %q", stderr)
	}
}
