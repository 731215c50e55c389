// Command studio-inspect prints composed studio views from the configured
// storage backend as JSON. It reads the same environment variables as the
// service (APPSTUDIO_STORAGE_DRIVER and friends), so pointing it at a sqlite
// file or a postgres DSN is enough to inspect a studio offline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"appstudio/internal/core"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("studio-inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var workspaceID string
	var applicationID string
	var instructionID string
	fs.StringVar(&workspaceID, "workspace", "", "workspace id to compose")
	fs.StringVar(&applicationID, "application", "", "application id to compose")
	fs.StringVar(&instructionID, "instruction", "", "instruction id to compose")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	selected := 0
	for _, id := range []string{workspaceID, applicationID, instructionID} {
		if id != "" {
			selected++
		}
	}
	if selected != 1 {
		fmt.Fprintln(stderr, "exactly one of -workspace, -application or -instruction is required")
		fs.Usage()
		return 2
	}

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer func() {
		if closer, ok := store.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	svc := core.NewService(store)
	payload, err := composePayload(context.Background(), svc, workspaceID, applicationID, instructionID)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		fmt.Fprintf(stderr, "encode view: %v\n", err)
		return 1
	}
	return 0
}

// composePayload resolves the requested view against a single read snapshot.
func composePayload(ctx context.Context, svc *core.Service, workspaceID, applicationID, instructionID string) (any, error) {
	var payload any
	err := svc.View(ctx, func(view core.TransactionView) error {
		state := core.AllLoaded()
		switch {
		case workspaceID != "":
			composed, ok := core.ComposeWorkspace(view, state, workspaceID)
			if !ok {
				return fmt.Errorf("workspace %s not found", workspaceID)
			}
			payload = composed
		case applicationID != "":
			composed, ok := core.ComposeApplication(view, state, applicationID)
			if !ok {
				return fmt.Errorf("application %s not found", applicationID)
			}
			payload = composed
		default:
			composed, ok := core.ComposeInstruction(view, state, instructionID)
			if !ok {
				return fmt.Errorf("instruction %s not found", instructionID)
			}
			payload = composed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}
