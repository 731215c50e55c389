package core

import "context"

// Reorder and transfer operations rewrite authoritative order arrays inside a
// single store transaction. Each computes the complete new array(s) first and
// writes once; a failure anywhere aborts the transaction with no partial state.

// ReorderDocuments moves a document within its instruction's order array from
// previousIndex to newIndex (stable move, not a swap).
func (s *Service) ReorderDocuments(ctx context.Context, instructionID string, previousIndex, newIndex int) (Instruction, Result, error) {
	return s.reorderInstructionList(ctx, "reorder_documents", instructionID, previousIndex, newIndex,
		func(i *Instruction) *[]string { return &i.DocumentIDs })
}

// ReorderTasks moves a task within its instruction's order array.
func (s *Service) ReorderTasks(ctx context.Context, instructionID string, previousIndex, newIndex int) (Instruction, Result, error) {
	return s.reorderInstructionList(ctx, "reorder_tasks", instructionID, previousIndex, newIndex,
		func(i *Instruction) *[]string { return &i.TaskIDs })
}

// ReorderArguments moves an argument within its instruction's order array.
func (s *Service) ReorderArguments(ctx context.Context, instructionID string, previousIndex, newIndex int) (Instruction, Result, error) {
	return s.reorderInstructionList(ctx, "reorder_arguments", instructionID, previousIndex, newIndex,
		func(i *Instruction) *[]string { return &i.ArgumentIDs })
}

func (s *Service) reorderInstructionList(
	ctx context.Context,
	operation, instructionID string,
	previousIndex, newIndex int,
	list func(*Instruction) *[]string,
) (Instruction, Result, error) {
	var updated Instruction
	res, _, err := s.run(ctx, operation, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstruction(instructionID, func(i *Instruction) error {
			target := list(i)
			moved, err := moveIndex(*target, previousIndex, newIndex)
			if err != nil {
				return err
			}
			*target = moved
			return nil
		})
		return err
	})
	return updated, res, err
}

// ReorderAttributes moves an attribute within its collection's order array.
func (s *Service) ReorderAttributes(ctx context.Context, collectionID string, previousIndex, newIndex int) (Collection, Result, error) {
	var updated Collection
	res, _, err := s.run(ctx, "reorder_attributes", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateCollection(collectionID, func(c *Collection) error {
			moved, err := moveIndex(c.AttributeIDs, previousIndex, newIndex)
			if err != nil {
				return err
			}
			c.AttributeIDs = moved
			return nil
		})
		return err
	})
	return updated, res, err
}

// ReorderSeeds moves a seed within a document's seed list. Seed order is
// semantically significant: it feeds address derivation.
func (s *Service) ReorderSeeds(ctx context.Context, documentID string, previousIndex, newIndex int) (InstructionDocument, Result, error) {
	var updated InstructionDocument
	res, _, err := s.run(ctx, "reorder_seeds", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstructionDocument(documentID, func(d *InstructionDocument) error {
			moved, err := moveIndex(d.Seeds, previousIndex, newIndex)
			if err != nil {
				return err
			}
			d.Seeds = moved
			return nil
		})
		return err
	})
	return updated, res, err
}

// TransferDocument moves a document from its current instruction to another,
// re-pointing the document's owner and rewriting both order arrays in one
// transaction. A missing document, source entry, or target instruction fails
// the whole operation with no partial write.
func (s *Service) TransferDocument(ctx context.Context, documentID, targetInstructionID string, newIndex int) (InstructionDocument, Result, error) {
	var updated InstructionDocument
	res, _, err := s.run(ctx, "transfer_document", func(tx Transaction) error {
		return transferItem(tx, transferSpec{
			itemID:      documentID,
			targetOwner: targetInstructionID,
			newIndex:    newIndex,
			entity:      EntityInstructionDocument,
			list:        func(i *Instruction) *[]string { return &i.DocumentIDs },
			sourceOwner: func() (string, error) {
				doc, ok := tx.Snapshot().FindInstructionDocument(documentID)
				if !ok {
					return "", ErrNotFound{Entity: EntityInstructionDocument, ID: documentID}
				}
				return doc.InstructionID, nil
			},
			repoint: func() error {
				var err error
				updated, err = tx.UpdateInstructionDocument(documentID, func(d *InstructionDocument) error {
					d.InstructionID = targetInstructionID
					return nil
				})
				return err
			},
		})
	})
	return updated, res, err
}

// TransferTask moves a task from its current instruction to another in one
// transaction, mirroring TransferDocument.
func (s *Service) TransferTask(ctx context.Context, taskID, targetInstructionID string, newIndex int) (InstructionTask, Result, error) {
	var updated InstructionTask
	res, _, err := s.run(ctx, "transfer_task", func(tx Transaction) error {
		return transferItem(tx, transferSpec{
			itemID:      taskID,
			targetOwner: targetInstructionID,
			newIndex:    newIndex,
			entity:      EntityInstructionTask,
			list:        func(i *Instruction) *[]string { return &i.TaskIDs },
			sourceOwner: func() (string, error) {
				task, ok := tx.Snapshot().FindInstructionTask(taskID)
				if !ok {
					return "", ErrNotFound{Entity: EntityInstructionTask, ID: taskID}
				}
				return task.InstructionID, nil
			},
			repoint: func() error {
				var err error
				updated, err = tx.UpdateInstructionTask(taskID, func(t *InstructionTask) error {
					t.InstructionID = targetInstructionID
					return nil
				})
				return err
			},
		})
	})
	return updated, res, err
}

type transferSpec struct {
	itemID      string
	targetOwner string
	newIndex    int
	entity      EntityType
	list        func(*Instruction) *[]string
	sourceOwner func() (string, error)
	repoint     func() error
}

func transferItem(tx Transaction, spec transferSpec) error {
	sourceID, err := spec.sourceOwner()
	if err != nil {
		return err
	}
	if _, ok := tx.Snapshot().FindInstruction(spec.targetOwner); !ok {
		return ErrNotFound{Entity: EntityInstruction, ID: spec.targetOwner}
	}

	if _, err := tx.UpdateInstruction(sourceID, func(i *Instruction) error {
		target := spec.list(i)
		pruned, found := removeID(*target, spec.itemID)
		if !found {
			return ErrNotFound{Entity: spec.entity, ID: spec.itemID}
		}
		*target = pruned
		return nil
	}); err != nil {
		return err
	}
	if err := spec.repoint(); err != nil {
		return err
	}
	// A same-owner transfer degenerates to prune followed by insert.
	_, err = tx.UpdateInstruction(spec.targetOwner, func(i *Instruction) error {
		target := spec.list(i)
		*target = insertAt(*target, spec.itemID, spec.newIndex)
		return nil
	})
	return err
}

// SwapTaskItems exchanges two item slots of a task by index.
func (s *Service) SwapTaskItems(ctx context.Context, taskID string, i, j int) (InstructionTask, Result, error) {
	var updated InstructionTask
	res, _, err := s.run(ctx, "swap_task_items", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstructionTask(taskID, func(t *InstructionTask) error {
			return swapAt(t.Items, i, j)
		})
		return err
	})
	return updated, res, err
}
