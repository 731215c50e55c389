package core

import "strings"

// ResolutionState distinguishes the four outcomes of resolving a reference.
// None ("no reference yet") and Unresolved (a dangling target ID) are distinct
// states and must never be conflated by callers.
type ResolutionState string

// Resolution states.
const (
	ResolutionNone       ResolutionState = "none"
	ResolutionLiteral    ResolutionState = "literal"
	ResolutionResolved   ResolutionState = "resolved"
	ResolutionUnresolved ResolutionState = "unresolved"
)

// ResolvedReference is a display-safe projection of a reference. Exactly one
// of the projection fields is populated, matching the state.
type ResolvedReference struct {
	State     ResolutionState      `json:"state"`
	Reference Reference            `json:"-"`
	Value     *ValueProjection     `json:"value,omitempty"`
	Argument  *ArgumentProjection  `json:"argument,omitempty"`
	Attribute *AttributeProjection `json:"attribute,omitempty"`
}

// ValueProjection carries a literal type/value pair.
type ValueProjection struct {
	Type  AttributeType `json:"type"`
	Value string        `json:"value"`
}

// ArgumentProjection names a resolved argument target.
type ArgumentProjection struct {
	Name string        `json:"name"`
	Type AttributeType `json:"type"`
}

// AttributeProjection names a resolved attribute target reached through a
// document of the same instruction.
type AttributeProjection struct {
	DocumentName  string        `json:"document_name"`
	AttributeName string        `json:"attribute_name"`
	AttributeType AttributeType `json:"attribute_type"`
}

// Scope is the resolution boundary of one instruction: its own arguments and
// documents, plus the collections and attributes those documents join against.
// Cross-instruction references are invalid by construction and resolve as
// unresolved.
type Scope struct {
	arguments     []Argument
	documents     []InstructionDocument
	argumentsByID map[string]Argument
	documentsByID map[string]InstructionDocument
	collections   map[string]Collection
	attributes    map[string]Attribute
}

// NewScope builds a resolution scope for one instruction from a snapshot.
func NewScope(view TransactionView, instructionID string) (Scope, error) {
	instruction, ok := view.FindInstruction(instructionID)
	if !ok {
		return Scope{}, ErrNotFound{Entity: EntityInstruction, ID: instructionID}
	}

	scope := Scope{
		argumentsByID: make(map[string]Argument),
		documentsByID: make(map[string]InstructionDocument),
		collections:   make(map[string]Collection),
		attributes:    make(map[string]Attribute),
	}
	for _, id := range instruction.ArgumentIDs {
		if arg, ok := view.FindArgument(id); ok {
			scope.arguments = append(scope.arguments, arg)
			scope.argumentsByID[id] = arg
		}
	}
	for _, id := range instruction.DocumentIDs {
		doc, ok := view.FindInstructionDocument(id)
		if !ok {
			continue
		}
		scope.documents = append(scope.documents, doc)
		scope.documentsByID[id] = doc
		col, ok := view.FindCollection(doc.CollectionID)
		if !ok {
			continue
		}
		scope.collections[col.ID] = col
		for _, attrID := range col.AttributeIDs {
			if attr, ok := view.FindAttribute(attrID); ok {
				scope.attributes[attrID] = attr
			}
		}
	}
	return scope, nil
}

// Resolve maps a reference to its projection. It never fails: dangling IDs
// yield the unresolved state and a nil reference yields the none state.
func (sc Scope) Resolve(ref Reference) ResolvedReference {
	if ref == nil {
		return ResolvedReference{State: ResolutionNone}
	}
	switch r := ref.(type) {
	case ValueReference:
		return ResolvedReference{
			State:     ResolutionLiteral,
			Reference: ref,
			Value:     &ValueProjection{Type: r.Type, Value: r.Value},
		}
	case ArgumentReference:
		arg, ok := sc.argumentsByID[r.ArgumentID]
		if !ok {
			return ResolvedReference{State: ResolutionUnresolved, Reference: ref}
		}
		return ResolvedReference{
			State:     ResolutionResolved,
			Reference: ref,
			Argument:  &ArgumentProjection{Name: arg.Name, Type: arg.Type},
		}
	case AttributeReference:
		doc, ok := sc.documentsByID[r.DocumentID]
		if !ok {
			return ResolvedReference{State: ResolutionUnresolved, Reference: ref}
		}
		attr, ok := sc.attributes[r.AttributeID]
		if !ok || attr.CollectionID != doc.CollectionID {
			return ResolvedReference{State: ResolutionUnresolved, Reference: ref}
		}
		return ResolvedReference{
			State:     ResolutionResolved,
			Reference: ref,
			Attribute: &AttributeProjection{
				DocumentName:  doc.Name,
				AttributeName: attr.Name,
				AttributeType: attr.Type,
			},
		}
	default:
		return ResolvedReference{State: ResolutionUnresolved, Reference: ref}
	}
}

// Candidate is one autocomplete suggestion produced by Search.
type Candidate struct {
	Reference Reference `json:"-"`
	Label     string    `json:"label"`
}

// searchLimit caps autocomplete results.
const searchLimit = 10

// Search filters in-scope argument and attribute candidates by
// case-insensitive substring match. Arguments come first in argument order,
// then attributes in document and collection order. When a primitive value
// type is requested and the query is non-empty, a literal candidate carrying
// the query is synthesised last.
func (sc Scope) Search(query string, valueType AttributeType) []Candidate {
	needle := strings.ToLower(strings.TrimSpace(query))
	var out []Candidate

	for _, arg := range sc.arguments {
		if len(out) >= searchLimit {
			return out
		}
		if needle != "" && !strings.Contains(strings.ToLower(arg.Name), needle) {
			continue
		}
		out = append(out, Candidate{
			Reference: ArgumentReference{ArgumentID: arg.ID},
			Label:     arg.Name,
		})
	}

	for _, doc := range sc.documents {
		col, ok := sc.collections[doc.CollectionID]
		if !ok {
			continue
		}
		collectionMatch := needle == "" || strings.Contains(strings.ToLower(col.Name), needle)
		for _, attrID := range col.AttributeIDs {
			if len(out) >= searchLimit {
				return out
			}
			attr, ok := sc.attributes[attrID]
			if !ok {
				continue
			}
			if !collectionMatch && needle != "" && !strings.Contains(strings.ToLower(attr.Name), needle) {
				continue
			}
			out = append(out, Candidate{
				Reference: AttributeReference{DocumentID: doc.ID, AttributeID: attr.ID},
				Label:     doc.Name + "." + attr.Name,
			})
		}
	}

	if len(out) < searchLimit && needle != "" && isPrimitive(valueType) {
		out = append(out, Candidate{
			Reference: ValueReference{Type: valueType, Value: strings.TrimSpace(query)},
			Label:     strings.TrimSpace(query),
		})
	}
	return out
}

func isPrimitive(t AttributeType) bool {
	switch t {
	case TypeU8, TypeU16, TypeU32, TypeU64, TypeString, TypePubkey:
		return true
	default:
		return false
	}
}
