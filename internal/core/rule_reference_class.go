package core

import (
	"context"
	"fmt"

	"appstudio/pkg/schema"
)

// NewReferenceClassRule returns the in-transaction rule constraining what a
// document's bump and payer may point at. Both must be argument or attribute
// references, never a literal value; a bump whose target resolves must be of
// type u8. Dangling targets are allowed, same as in the scope rule.
func NewReferenceClassRule() schema.Rule {
	return referenceClassRule{}
}

type referenceClassRule struct{}

func (referenceClassRule) Name() string { return "reference_class" }

func (referenceClassRule) Evaluate(_ context.Context, view schema.RuleView, _ []schema.Change) (schema.Result, error) {
	argType := make(map[string]schema.AttributeType)
	for _, arg := range view.ListArguments() {
		argType[arg.ID] = arg.Type
	}
	attrType := make(map[string]schema.AttributeType)
	for _, attr := range view.ListAttributes() {
		attrType[attr.ID] = attr.Type
	}

	res := schema.Result{}
	for _, doc := range view.ListInstructionDocuments() {
		checkBump(&res, argType, attrType, doc)
		if _, ok := doc.Payer.(schema.ValueReference); ok {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "reference_class",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("document %s payer must reference an argument or attribute", doc.ID),
				Entity:   schema.EntityInstructionDocument,
				EntityID: doc.ID,
			})
		}
	}
	return res, nil
}

// checkBump flags a literal bump and a resolvable bump target that is not u8.
// Unknown target IDs are skipped: dangling is a display state, not a
// violation.
func checkBump(
	res *schema.Result,
	argType, attrType map[string]schema.AttributeType,
	doc schema.InstructionDocument,
) {
	switch r := doc.Bump.(type) {
	case nil:
	case schema.ValueReference:
		res.Violations = append(res.Violations, schema.Violation{
			Rule:     "reference_class",
			Severity: schema.SeverityBlock,
			Message:  fmt.Sprintf("document %s bump must reference an argument or attribute", doc.ID),
			Entity:   schema.EntityInstructionDocument,
			EntityID: doc.ID,
		})
	case schema.ArgumentReference:
		if typ, ok := argType[r.ArgumentID]; ok && typ != schema.TypeU8 {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "reference_class",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("document %s bump targets argument %s of type %s, want u8", doc.ID, r.ArgumentID, typ),
				Entity:   schema.EntityInstructionDocument,
				EntityID: doc.ID,
			})
		}
	case schema.AttributeReference:
		if typ, ok := attrType[r.AttributeID]; ok && typ != schema.TypeU8 {
			res.Violations = append(res.Violations, schema.Violation{
				Rule:     "reference_class",
				Severity: schema.SeverityBlock,
				Message:  fmt.Sprintf("document %s bump targets attribute %s of type %s, want u8", doc.ID, r.AttributeID, typ),
				Entity:   schema.EntityInstructionDocument,
				EntityID: doc.ID,
			})
		}
	}
}
