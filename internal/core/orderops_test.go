package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"appstudio/pkg/schema"
)

func TestReorderDocumentsMovesStably(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	updated, _, err := svc.ReorderDocuments(context.Background(), "ins1", 2, 0)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	want := []string{"doc3", "doc1", "doc2"}
	if !reflect.DeepEqual(updated.DocumentIDs, want) {
		t.Fatalf("got %v want %v", updated.DocumentIDs, want)
	}
	if got := findInstruction(t, svc, "ins1"); !reflect.DeepEqual(got.DocumentIDs, want) {
		t.Fatalf("persisted %v want %v", got.DocumentIDs, want)
	}
}

func TestReorderDocumentsOutOfRangeLeavesOrderIntact(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	if _, _, err := svc.ReorderDocuments(context.Background(), "ins1", 5, 0); err == nil {
		t.Fatal("expected out of range error")
	}
	got := findInstruction(t, svc, "ins1")
	if !reflect.DeepEqual(got.DocumentIDs, []string{"doc1", "doc2", "doc3"}) {
		t.Fatalf("order changed after failed reorder: %v", got.DocumentIDs)
	}
}

func TestReorderArguments(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	updated, _, err := svc.ReorderArguments(context.Background(), "ins1", 1, 0)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if !reflect.DeepEqual(updated.ArgumentIDs, []string{"arg2", "arg1"}) {
		t.Fatalf("got %v", updated.ArgumentIDs)
	}
}

func TestReorderAttributes(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	updated, _, err := svc.ReorderAttributes(context.Background(), "col1", 0, 1)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if !reflect.DeepEqual(updated.AttributeIDs, []string{"at2", "at1"}) {
		t.Fatalf("got %v", updated.AttributeIDs)
	}
}

func TestReorderSeeds(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)
	ctx := context.Background()

	_, _, err := svc.UpdateInstructionDocument(ctx, "doc1", func(d *InstructionDocument) error {
		d.Seeds = []Reference{
			ValueReference{Type: TypeString, Value: "vault"},
			ArgumentReference{ArgumentID: "arg1"},
			AttributeReference{DocumentID: "doc2", AttributeID: "at1"},
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed setup: %v", err)
	}

	updated, _, err := svc.ReorderSeeds(ctx, "doc1", 2, 0)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(updated.Seeds) != 3 {
		t.Fatalf("seed count %d", len(updated.Seeds))
	}
	if _, ok := updated.Seeds[0].(AttributeReference); !ok {
		t.Fatalf("seed 0 is %T", updated.Seeds[0])
	}
	if _, ok := updated.Seeds[1].(ValueReference); !ok {
		t.Fatalf("seed 1 is %T", updated.Seeds[1])
	}
}

func TestTransferDocumentRewritesBothOrders(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	updated, _, err := svc.TransferDocument(context.Background(), "doc3", "ins2", 0)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if updated.InstructionID != "ins2" {
		t.Fatalf("owner not repointed: %+v", updated)
	}

	source := findInstruction(t, svc, "ins1")
	if !reflect.DeepEqual(source.DocumentIDs, []string{"doc1", "doc2"}) {
		t.Fatalf("source order %v", source.DocumentIDs)
	}
	target := findInstruction(t, svc, "ins2")
	if !reflect.DeepEqual(target.DocumentIDs, []string{"doc3", "doc4"}) {
		t.Fatalf("target order %v", target.DocumentIDs)
	}
}

func TestTransferDocumentMissingTargetIsAtomic(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	_, _, err := svc.TransferDocument(context.Background(), "doc3", "ghost", 0)
	var notFound ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if notFound.Entity != schema.EntityInstruction {
		t.Fatalf("wrong entity in error: %+v", notFound)
	}

	source := findInstruction(t, svc, "ins1")
	if !reflect.DeepEqual(source.DocumentIDs, []string{"doc1", "doc2", "doc3"}) {
		t.Fatalf("failed transfer mutated source order: %v", source.DocumentIDs)
	}
}

func TestTransferDocumentMissingDocument(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	_, _, err := svc.TransferDocument(context.Background(), "ghost", "ins2", 0)
	var notFound ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if notFound.Entity != schema.EntityInstructionDocument {
		t.Fatalf("wrong entity in error: %+v", notFound)
	}
}

func TestTransferTask(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)
	ctx := context.Background()

	// task1 points at ins1 items, so moving it across would be blocked.
	// Transfer an item-free task instead.
	_, _, err := svc.CreateInstructionTask(ctx, InstructionTask{Base: Base{ID: "task2"}, InstructionID: "ins1", Name: "log"})
	if err != nil {
		t.Fatalf("seed task2: %v", err)
	}

	updated, _, err := svc.TransferTask(ctx, "task2", "ins2", 0)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if updated.InstructionID != "ins2" {
		t.Fatalf("owner not repointed: %+v", updated)
	}
	source := findInstruction(t, svc, "ins1")
	if !reflect.DeepEqual(source.TaskIDs, []string{"task1"}) {
		t.Fatalf("source order %v", source.TaskIDs)
	}
	target := findInstruction(t, svc, "ins2")
	if !reflect.DeepEqual(target.TaskIDs, []string{"task2"}) {
		t.Fatalf("target order %v", target.TaskIDs)
	}
}

func TestTransferTaskWithCrossItemsIsBlocked(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	_, _, err := svc.TransferTask(context.Background(), "task1", "ins2", 0)
	var ruleErr RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	target := findInstruction(t, svc, "ins2")
	if len(target.TaskIDs) != 0 {
		t.Fatalf("blocked transfer leaked state: %v", target.TaskIDs)
	}
}

func TestTransferDocumentSameOwnerRepositions(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	_, _, err := svc.TransferDocument(context.Background(), "doc1", "ins1", 2)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	got := findInstruction(t, svc, "ins1")
	if !reflect.DeepEqual(got.DocumentIDs, []string{"doc2", "doc3", "doc1"}) {
		t.Fatalf("order %v", got.DocumentIDs)
	}
}

func TestSwapTaskItems(t *testing.T) {
	svc := newTestService(t)
	seedStudio(t, svc)

	updated, _, err := svc.SwapTaskItems(context.Background(), "task1", 0, 1)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if updated.Items[0].Kind != ItemArgumentSource || updated.Items[1].Kind != ItemDocument {
		t.Fatalf("items %v", updated.Items)
	}

	if _, _, err := svc.SwapTaskItems(context.Background(), "task1", 0, 9); err == nil {
		t.Fatal("expected out of range error")
	}
}
