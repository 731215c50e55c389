package core

import (
	"context"
	"fmt"
)

// DropActive consumes the selection's active reference by dropping it onto an
// instruction: an active collection becomes an InstructionDocument (method
// read, named after the collection), an active catalog sysvar becomes an
// InstructionSysvar binding. The active reference is cleared only after the
// create commits, so a blocked or failed drop leaves the pick-up in place.
func (s *Service) DropActive(ctx context.Context, sel *Selection, instructionID string) (ItemReference, Result, error) {
	active := sel.Active()
	if active == nil {
		return ItemReference{}, Result{}, fmt.Errorf("nothing active to drop")
	}

	var created ItemReference
	var res Result
	switch active.Kind {
	case ItemCollection:
		var col Collection
		if err := s.View(ctx, func(view TransactionView) error {
			var ok bool
			col, ok = view.FindCollection(active.ID)
			if !ok {
				return ErrNotFound{Entity: EntityCollection, ID: active.ID}
			}
			return nil
		}); err != nil {
			return ItemReference{}, Result{}, err
		}
		doc, r, err := s.CreateInstructionDocument(ctx, InstructionDocument{
			InstructionID: instructionID,
			CollectionID:  col.ID,
			Name:          col.Name,
			Method:        MethodRead,
		})
		if err != nil {
			return ItemReference{}, r, err
		}
		created, res = ItemReference{Kind: ItemDocument, ID: doc.ID}, r
	case ItemCatalogSysvar:
		var sv Sysvar
		if err := s.View(ctx, func(view TransactionView) error {
			var ok bool
			sv, ok = view.FindSysvar(active.ID)
			if !ok {
				return ErrNotFound{Entity: EntitySysvar, ID: active.ID}
			}
			return nil
		}); err != nil {
			return ItemReference{}, Result{}, err
		}
		binding, r, err := s.CreateInstructionSysvar(ctx, InstructionSysvar{
			InstructionID: instructionID,
			SysvarID:      sv.ID,
			Name:          sv.Name,
		})
		if err != nil {
			return ItemReference{}, r, err
		}
		created, res = ItemReference{Kind: ItemSysvar, ID: binding.ID}, r
	default:
		return ItemReference{}, Result{}, fmt.Errorf("cannot drop %s onto an instruction", active.Kind)
	}

	sel.UseActive()
	return created, res, nil
}
