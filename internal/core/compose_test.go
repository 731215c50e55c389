package core

import (
	"context"
	"reflect"
	"testing"
)

func composeInView(t *testing.T, svc *Service, fn func(TransactionView)) {
	t.Helper()
	err := svc.View(context.Background(), func(view TransactionView) error {
		fn(view)
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestComposeInstructionJoinsOwnedItems(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	composeInView(t, svc, func(view TransactionView) {
		iv, ok := ComposeInstruction(view, AllLoaded(), "ins1")
		if !ok {
			t.Fatal("compose withheld")
		}
		if iv.Instruction.ID != "ins1" {
			t.Fatalf("instruction %+v", iv.Instruction)
		}
		if len(iv.Arguments) != 2 || iv.Arguments[0].ID != "arg1" {
			t.Fatalf("arguments %v", iv.Arguments)
		}
		if len(iv.Documents) != 3 || iv.Documents[0].Document.ID != "doc1" {
			t.Fatalf("documents %d", len(iv.Documents))
		}
		if iv.Documents[0].Collection == nil || iv.Documents[0].Collection.ID != "col1" {
			t.Fatalf("document collection %+v", iv.Documents[0].Collection)
		}
		if len(iv.Documents[0].Attributes) != 2 {
			t.Fatalf("document attributes %v", iv.Documents[0].Attributes)
		}
		if len(iv.Signers) != 1 || iv.Signers[0].ID != "sig1" {
			t.Fatalf("signers %v", iv.Signers)
		}
		if len(iv.Sysvars) != 1 || iv.Sysvars[0].Sysvar == nil || iv.Sysvars[0].Sysvar.Name != "clock" {
			t.Fatalf("sysvars %+v", iv.Sysvars)
		}
		if len(iv.Tasks) != 1 {
			t.Fatalf("tasks %d", len(iv.Tasks))
		}
	})
}

func TestComposeInstructionResolvesDocumentReferences(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	_, _, err := svc.UpdateInstructionDocument(context.Background(), "doc1", func(d *InstructionDocument) error {
		d.Seeds = []Reference{
			ValueReference{Type: TypeString, Value: "vault"},
			ArgumentReference{ArgumentID: "arg1"},
		}
		d.Payer = ArgumentReference{ArgumentID: "missing"}
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	composeInView(t, svc, func(view TransactionView) {
		iv, ok := ComposeInstruction(view, AllLoaded(), "ins1")
		if !ok {
			t.Fatal("compose withheld")
		}
		doc := iv.Documents[0]
		if len(doc.Seeds) != 2 {
			t.Fatalf("seeds %v", doc.Seeds)
		}
		if doc.Seeds[0].State != ResolutionLiteral || doc.Seeds[1].State != ResolutionResolved {
			t.Fatalf("seed states %s %s", doc.Seeds[0].State, doc.Seeds[1].State)
		}
		if doc.Bump.State != ResolutionNone {
			t.Fatalf("bump state %s", doc.Bump.State)
		}
		if doc.Payer.State != ResolutionUnresolved {
			t.Fatalf("payer state %s", doc.Payer.State)
		}
	})
}

func TestComposeInstructionTaskItems(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	_, _, err := svc.UpdateInstructionTask(context.Background(), "task1", func(task *InstructionTask) error {
		task.Items = append(task.Items, ItemReference{Kind: ItemDocument, ID: "stale"})
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	composeInView(t, svc, func(view TransactionView) {
		iv, ok := ComposeInstruction(view, AllLoaded(), "ins1")
		if !ok {
			t.Fatal("compose withheld")
		}
		items := iv.Tasks[0].Items
		if len(items) != 3 {
			t.Fatalf("items %v", items)
		}
		if !items[0].Resolved || items[0].Name != "vault" {
			t.Fatalf("item 0 %+v", items[0])
		}
		if !items[1].Resolved || items[1].Name != "amount" {
			t.Fatalf("item 1 %+v", items[1])
		}
		if items[2].Resolved || items[2].Name != "" {
			t.Fatalf("item 2 %+v", items[2])
		}
	})
}

func TestComposeWithholdsUntilEveryKindLoads(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	partial := NewLoadState().MarkLoaded(EntityInstruction, EntityArgument)
	composeInView(t, svc, func(view TransactionView) {
		if _, ok := ComposeInstruction(view, partial, "ins1"); ok {
			t.Fatal("compose should withhold with unloaded kinds")
		}
		if _, ok := ComposeApplication(view, partial, "app1"); ok {
			t.Fatal("application compose should withhold")
		}
		if _, ok := ComposeWorkspace(view, partial, "ws1"); ok {
			t.Fatal("workspace compose should withhold")
		}
	})
}

func TestComposeMissingInstruction(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	composeInView(t, svc, func(view TransactionView) {
		if _, ok := ComposeInstruction(view, AllLoaded(), "ghost"); ok {
			t.Fatal("compose of missing instruction should report false")
		}
	})
}

func TestComposeApplication(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	composeInView(t, svc, func(view TransactionView) {
		av, ok := ComposeApplication(view, AllLoaded(), "app1")
		if !ok {
			t.Fatal("compose withheld")
		}
		if len(av.Collections) != 1 || av.Collections[0].Collection.ID != "col1" {
			t.Fatalf("collections %v", av.Collections)
		}
		if len(av.Collections[0].Attributes) != 2 {
			t.Fatalf("attributes %v", av.Collections[0].Attributes)
		}
		if len(av.Instructions) != 2 || av.Instructions[0].Instruction.ID != "ins1" {
			t.Fatalf("instructions %d", len(av.Instructions))
		}
		if len(av.Sysvars) != 1 || av.Sysvars[0].ID != "sv1" {
			t.Fatalf("sysvars %v", av.Sysvars)
		}
	})
}

func TestComposeApplicationSysvarsAreWorkspaceScoped(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)
	ctx := context.Background()

	_, _, err := svc.CreateSysvar(ctx, Sysvar{Base: Base{ID: "sv2"}, WorkspaceID: "ws2", Name: "rent"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	composeInView(t, svc, func(view TransactionView) {
		av, ok := ComposeApplication(view, AllLoaded(), "app1")
		if !ok {
			t.Fatal("compose withheld")
		}
		for _, sv := range av.Sysvars {
			if sv.WorkspaceID != "ws1" {
				t.Fatalf("foreign sysvar %s in catalog", sv.ID)
			}
		}
		if len(av.Sysvars) != 1 {
			t.Fatalf("sysvars %v", av.Sysvars)
		}
	})
}

func TestComposeWorkspaceFiltersByWorkspace(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)
	ctx := context.Background()

	_, _, err := svc.CreateApplication(ctx, Application{Base: Base{ID: "other"}, WorkspaceID: "ws2", Name: "other"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, _, err = svc.CreateSysvar(ctx, Sysvar{Base: Base{ID: "sv2"}, WorkspaceID: "ws2", Name: "rent"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	composeInView(t, svc, func(view TransactionView) {
		wv, ok := ComposeWorkspace(view, AllLoaded(), "ws1")
		if !ok {
			t.Fatal("compose withheld")
		}
		if len(wv.Applications) != 1 || wv.Applications[0].Application.ID != "app1" {
			t.Fatalf("applications %d", len(wv.Applications))
		}
		if len(wv.Sysvars) != 1 || wv.Sysvars[0].ID != "sv1" {
			t.Fatalf("sysvars %v", wv.Sysvars)
		}
	})
}

func TestComposeIsPure(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	composeInView(t, svc, func(view TransactionView) {
		first, ok := ComposeApplication(view, AllLoaded(), "app1")
		if !ok {
			t.Fatal("compose withheld")
		}
		second, ok := ComposeApplication(view, AllLoaded(), "app1")
		if !ok {
			t.Fatal("compose withheld")
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatal("composing the same snapshot twice produced different trees")
		}
	})
}

func TestLoadStateMarkLoadedDoesNotMutateReceiver(t *testing.T) {
	base := NewLoadState()
	marked := base.MarkLoaded(EntityInstruction)
	if base.Loaded(EntityInstruction) {
		t.Fatal("MarkLoaded mutated its receiver")
	}
	if !marked.Loaded(EntityInstruction) {
		t.Fatal("MarkLoaded lost the kind")
	}
	if marked.Loaded(EntityInstruction, EntityArgument) {
		t.Fatal("Loaded should require every kind")
	}
}
