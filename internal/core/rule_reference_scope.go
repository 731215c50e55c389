package core

import (
	"context"
	"fmt"

	"appstudio/pkg/schema"
)

// NewReferenceScopeRule returns the in-transaction rule blocking references
// that reach across instruction boundaries. Dangling targets are allowed (the
// resolver renders them as unresolved); a target owned by a different
// instruction is a contract violation and blocks the commit.
func NewReferenceScopeRule() schema.Rule {
	return referenceScopeRule{}
}

type referenceScopeRule struct{}

func (referenceScopeRule) Name() string { return "reference_scope" }

func (referenceScopeRule) Evaluate(_ context.Context, view schema.RuleView, _ []schema.Change) (schema.Result, error) {
	argOwner := make(map[string]string)
	for _, arg := range view.ListArguments() {
		argOwner[arg.ID] = arg.InstructionID
	}
	docOwner := make(map[string]string)
	for _, doc := range view.ListInstructionDocuments() {
		docOwner[doc.ID] = doc.InstructionID
	}
	signerOwner := make(map[string]string)
	for _, signer := range view.ListInstructionSigners() {
		signerOwner[signer.ID] = signer.InstructionID
	}
	sysvarOwner := make(map[string]string)
	for _, sysvar := range view.ListInstructionSysvars() {
		sysvarOwner[sysvar.ID] = sysvar.InstructionID
	}
	appRefOwner := make(map[string]string)
	for _, ref := range view.ListInstructionApplications() {
		appRefOwner[ref.ID] = ref.InstructionID
	}

	res := schema.Result{}
	for _, doc := range view.ListInstructionDocuments() {
		for i, seed := range doc.Seeds {
			checkReferenceScope(&res, argOwner, docOwner, doc.InstructionID, doc.ID,
				fmt.Sprintf("seed %d", i), seed)
		}
		checkReferenceScope(&res, argOwner, docOwner, doc.InstructionID, doc.ID, "bump", doc.Bump)
		checkReferenceScope(&res, argOwner, docOwner, doc.InstructionID, doc.ID, "payer", doc.Payer)
	}

	for _, task := range view.ListInstructionTasks() {
		for i, item := range task.Items {
			var owner string
			var known bool
			switch item.Kind {
			case schema.ItemDocument:
				owner, known = docOwner[item.ID], true
			case schema.ItemSigner:
				owner, known = signerOwner[item.ID], true
			case schema.ItemSysvar:
				owner, known = sysvarOwner[item.ID], true
			case schema.ItemApplication:
				owner, known = appRefOwner[item.ID], true
			case schema.ItemArgumentSource:
				owner, known = argOwner[item.ID], true
			default:
				known = false
			}
			if !known || owner == "" {
				continue
			}
			if owner != task.InstructionID {
				res.Violations = append(res.Violations, schema.Violation{
					Rule:     "reference_scope",
					Severity: schema.SeverityBlock,
					Message:  fmt.Sprintf("task %s item %d points at %s %s owned by instruction %s", task.ID, i, item.Kind, item.ID, owner),
					Entity:   schema.EntityInstructionTask,
					EntityID: task.ID,
				})
			}
		}
	}
	return res, nil
}

// checkReferenceScope flags argument and attribute references whose target
// lives in another instruction. Unknown target IDs are skipped: dangling is a
// display state, not a violation.
func checkReferenceScope(
	res *schema.Result,
	argOwner, docOwner map[string]string,
	instructionID, documentID, field string,
	ref schema.Reference,
) {
	switch r := ref.(type) {
	case schema.ArgumentReference:
		owner, ok := argOwner[r.ArgumentID]
		if ok && owner != instructionID {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "reference_scope",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("document %s %s points at argument %s owned by instruction %s", documentID, field, r.ArgumentID, owner),
				Entity:   schema.EntityInstructionDocument,
				EntityID: documentID,
			})
		}
	case schema.AttributeReference:
		owner, ok := docOwner[r.DocumentID]
		if ok && owner != instructionID {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "reference_scope",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("document %s %s routes through document %s owned by instruction %s", documentID, field, r.DocumentID, owner),
				Entity:   schema.EntityInstructionDocument,
				EntityID: documentID,
			})
		}
	}
}
