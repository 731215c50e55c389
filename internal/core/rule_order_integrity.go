package core

import (
	"context"
	"fmt"

	"appstudio/pkg/schema"
)

// NewOrderIntegrityRule returns the in-transaction rule enforcing that every
// order array is exactly the owned ID set, duplicate-free.
func NewOrderIntegrityRule() schema.Rule {
	return orderIntegrityRule{}
}

type orderIntegrityRule struct{}

func (orderIntegrityRule) Name() string { return "order_integrity" }

func (orderIntegrityRule) Evaluate(_ context.Context, view schema.RuleView, _ []schema.Change) (schema.Result, error) {
	res := schema.Result{}

	collectionsByApp := make(map[string]map[string]struct{})
	instructionsByApp := make(map[string]map[string]struct{})
	for _, col := range view.ListCollections() {
		addOwned(collectionsByApp, col.ApplicationID, col.ID)
	}
	for _, ins := range view.ListInstructions() {
		addOwned(instructionsByApp, ins.ApplicationID, ins.ID)
	}
	for _, app := range view.ListApplications() {
		checkOrder(&res, schema.EntityApplication, app.ID, "collections", app.CollectionIDs, collectionsByApp[app.ID])
		checkOrder(&res, schema.EntityApplication, app.ID, "instructions", app.InstructionIDs, instructionsByApp[app.ID])
	}

	attributesByCol := make(map[string]map[string]struct{})
	for _, attr := range view.ListAttributes() {
		addOwned(attributesByCol, attr.CollectionID, attr.ID)
	}
	for _, col := range view.ListCollections() {
		checkOrder(&res, schema.EntityCollection, col.ID, "attributes", col.AttributeIDs, attributesByCol[col.ID])
	}

	argsByIns := make(map[string]map[string]struct{})
	docsByIns := make(map[string]map[string]struct{})
	tasksByIns := make(map[string]map[string]struct{})
	signersByIns := make(map[string]map[string]struct{})
	sysvarsByIns := make(map[string]map[string]struct{})
	appsByIns := make(map[string]map[string]struct{})
	for _, arg := range view.ListArguments() {
		addOwned(argsByIns, arg.InstructionID, arg.ID)
	}
	for _, doc := range view.ListInstructionDocuments() {
		addOwned(docsByIns, doc.InstructionID, doc.ID)
	}
	for _, task := range view.ListInstructionTasks() {
		addOwned(tasksByIns, task.InstructionID, task.ID)
	}
	for _, signer := range view.ListInstructionSigners() {
		addOwned(signersByIns, signer.InstructionID, signer.ID)
	}
	for _, sysvar := range view.ListInstructionSysvars() {
		addOwned(sysvarsByIns, sysvar.InstructionID, sysvar.ID)
	}
	for _, ref := range view.ListInstructionApplications() {
		addOwned(appsByIns, ref.InstructionID, ref.ID)
	}
	for _, ins := range view.ListInstructions() {
		checkOrder(&res, schema.EntityInstruction, ins.ID, "arguments", ins.ArgumentIDs, argsByIns[ins.ID])
		checkOrder(&res, schema.EntityInstruction, ins.ID, "documents", ins.DocumentIDs, docsByIns[ins.ID])
		checkOrder(&res, schema.EntityInstruction, ins.ID, "tasks", ins.TaskIDs, tasksByIns[ins.ID])
		checkOrder(&res, schema.EntityInstruction, ins.ID, "signers", ins.SignerIDs, signersByIns[ins.ID])
		checkOrder(&res, schema.EntityInstruction, ins.ID, "sysvars", ins.SysvarIDs, sysvarsByIns[ins.ID])
		checkOrder(&res, schema.EntityInstruction, ins.ID, "applications", ins.ApplicationRefIDs, appsByIns[ins.ID])
	}
	return res, nil
}

func addOwned(byOwner map[string]map[string]struct{}, owner, id string) {
	set, ok := byOwner[owner]
	if !ok {
		set = make(map[string]struct{})
		byOwner[owner] = set
	}
	set[id] = struct{}{}
}

// checkOrder verifies that order is a duplicate-free permutation of owned.
func checkOrder(res *schema.Result, entity schema.EntityType, ownerID, list string, order []string, owned map[string]struct{}) {
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "order_integrity",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("%s order of %s lists %s twice", list, ownerID, id),
				Entity:   entity,
				EntityID: ownerID,
			})
			continue
		}
		seen[id] = struct{}{}
		if _, ok := owned[id]; !ok {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "order_integrity",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("%s order of %s lists %s which it does not own", list, ownerID, id),
				Entity:   entity,
				EntityID: ownerID,
			})
		}
	}
	for id := range owned {
		if _, ok := seen[id]; !ok {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "order_integrity",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("%s order of %s is missing owned id %s", list, ownerID, id),
				Entity:   entity,
				EntityID: ownerID,
			})
		}
	}
}
