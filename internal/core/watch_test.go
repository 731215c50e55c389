package core

import (
	"context"
	"testing"
	"time"
)

func receiveView(t *testing.T, ch <-chan ApplicationView) ApplicationView {
	t.Helper()
	select {
	case view, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before delivery")
		}
		return view
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view")
	}
	return ApplicationView{}
}

func TestWatchApplicationDeliversComposedViews(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	ch, cancel := svc.WatchApplication("app1")
	defer cancel()

	_, _, err := svc.CreateInstruction(context.Background(), Instruction{Base: Base{ID: "ins3"}, WorkspaceID: "ws1", ApplicationID: "app1", Name: "mint"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view := receiveView(t, ch)
	if view.Application.ID != "app1" {
		t.Fatalf("application %+v", view.Application)
	}
	if len(view.Instructions) != 3 {
		t.Fatalf("instructions %d", len(view.Instructions))
	}
}

func TestWatchApplicationLatestWins(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)
	ctx := context.Background()

	ch, cancel := svc.WatchApplication("app1")
	defer cancel()

	// Two mutations without a read in between: the buffered view is
	// replaced, the consumer sees only the latest state.
	_, _, err := svc.CreateInstruction(ctx, Instruction{Base: Base{ID: "ins3"}, WorkspaceID: "ws1", ApplicationID: "app1", Name: "mint"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _, err = svc.CreateInstruction(ctx, Instruction{Base: Base{ID: "ins4"}, WorkspaceID: "ws1", ApplicationID: "app1", Name: "burn"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view := receiveView(t, ch)
	if len(view.Instructions) != 4 {
		t.Fatalf("expected latest view with 4 instructions, got %d", len(view.Instructions))
	}
}

func TestWatchApplicationCancelClosesChannel(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	ch, cancel := svc.WatchApplication("app1")
	cancel()
	// Cancelling twice is safe.
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}

	// Mutations after cancel must not panic or deliver.
	_, _, err := svc.CreateInstruction(context.Background(), Instruction{Base: Base{ID: "ins3"}, WorkspaceID: "ws1", ApplicationID: "app1", Name: "mint"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestWatchOtherApplicationIsQuiet(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	ch, cancel := svc.WatchApplication("unrelated")
	defer cancel()

	_, _, err := svc.CreateSysvar(context.Background(), Sysvar{Base: Base{ID: "sv9"}, WorkspaceID: "ws1", Name: "rent"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case view := <-ch:
		t.Fatalf("unexpected delivery: %+v", view)
	case <-time.After(50 * time.Millisecond):
	}
}
