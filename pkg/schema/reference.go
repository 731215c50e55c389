package schema

import (
	"encoding/json"
	"fmt"
)

// ReferenceKind discriminates the reference sum type.
type ReferenceKind string

// Reference kinds.
const (
	// RefValue is a literal typed value, no lookup required.
	RefValue ReferenceKind = "value"
	// RefArgument points at an instruction argument by ID.
	RefArgument ReferenceKind = "argument"
	// RefAttribute points at an attribute through a document of the same instruction.
	RefAttribute ReferenceKind = "attribute"
)

// Reference is a typed pointer from one entity field to another entity, or a
// literal value. A nil Reference means "no reference yet"; a non-nil Reference
// whose target ID no longer resolves is a distinct, unresolved state.
//
// The type is a closed sum: ValueReference, ArgumentReference, and
// AttributeReference are the only implementations, so resolution logic can
// switch exhaustively.
type Reference interface {
	RefKind() ReferenceKind
}

// ValueReference carries a literal typed value.
type ValueReference struct {
	Type  AttributeType `json:"type"`
	Value string        `json:"value"`
}

// RefKind implements Reference.
func (ValueReference) RefKind() ReferenceKind { return RefValue }

// ArgumentReference points at an argument of the owning instruction.
type ArgumentReference struct {
	ArgumentID string `json:"argument_id"`
}

// RefKind implements Reference.
func (ArgumentReference) RefKind() ReferenceKind { return RefArgument }

// AttributeReference points at a collection attribute through one of the
// owning instruction's documents.
type AttributeReference struct {
	DocumentID  string `json:"document_id"`
	AttributeID string `json:"attribute_id"`
}

// RefKind implements Reference.
func (AttributeReference) RefKind() ReferenceKind { return RefAttribute }

type referenceEnvelope struct {
	Kind        ReferenceKind `json:"kind"`
	Type        AttributeType `json:"type,omitempty"`
	Value       string        `json:"value,omitempty"`
	ArgumentID  string        `json:"argument_id,omitempty"`
	DocumentID  string        `json:"document_id,omitempty"`
	AttributeID string        `json:"attribute_id,omitempty"`
}

// MarshalReference encodes a reference as a kind-tagged JSON envelope.
// A nil reference encodes as JSON null.
func MarshalReference(ref Reference) ([]byte, error) {
	if ref == nil {
		return []byte("null"), nil
	}
	switch r := ref.(type) {
	case ValueReference:
		return json.Marshal(referenceEnvelope{Kind: RefValue, Type: r.Type, Value: r.Value})
	case ArgumentReference:
		return json.Marshal(referenceEnvelope{Kind: RefArgument, ArgumentID: r.ArgumentID})
	case AttributeReference:
		return json.Marshal(referenceEnvelope{Kind: RefAttribute, DocumentID: r.DocumentID, AttributeID: r.AttributeID})
	default:
		return nil, fmt.Errorf("unknown reference kind %q", ref.RefKind())
	}
}

// UnmarshalReference decodes a kind-tagged JSON envelope. JSON null decodes to
// a nil reference.
func UnmarshalReference(data []byte) (Reference, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var env referenceEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case RefValue:
		return ValueReference{Type: env.Type, Value: env.Value}, nil
	case RefArgument:
		return ArgumentReference{ArgumentID: env.ArgumentID}, nil
	case RefAttribute:
		return AttributeReference{DocumentID: env.DocumentID, AttributeID: env.AttributeID}, nil
	default:
		return nil, fmt.Errorf("unknown reference kind %q", env.Kind)
	}
}

type instructionDocumentAlias InstructionDocument

// MarshalJSON serialises seed, bump, and payer references via the kind-tagged envelope.
func (d InstructionDocument) MarshalJSON() ([]byte, error) {
	seeds := make([]json.RawMessage, 0, len(d.Seeds))
	for _, seed := range d.Seeds {
		raw, err := MarshalReference(seed)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, raw)
	}
	bump, err := MarshalReference(d.Bump)
	if err != nil {
		return nil, err
	}
	payer, err := MarshalReference(d.Payer)
	if err != nil {
		return nil, err
	}
	type payload struct {
		instructionDocumentAlias
		Seeds []json.RawMessage `json:"seeds"`
		Bump  json.RawMessage   `json:"bump"`
		Payer json.RawMessage   `json:"payer"`
	}
	return json.Marshal(payload{
		instructionDocumentAlias: instructionDocumentAlias(d),
		Seeds:                    seeds,
		Bump:                     bump,
		Payer:                    payer,
	})
}

// UnmarshalJSON hydrates seed, bump, and payer references from their envelopes.
func (d *InstructionDocument) UnmarshalJSON(data []byte) error {
	type payload struct {
		instructionDocumentAlias
		Seeds []json.RawMessage `json:"seeds"`
		Bump  json.RawMessage   `json:"bump"`
		Payer json.RawMessage   `json:"payer"`
	}
	var aux payload
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = InstructionDocument(aux.instructionDocumentAlias)
	d.Seeds = nil
	for _, raw := range aux.Seeds {
		seed, err := UnmarshalReference(raw)
		if err != nil {
			return err
		}
		d.Seeds = append(d.Seeds, seed)
	}
	if len(aux.Bump) > 0 {
		bump, err := UnmarshalReference(aux.Bump)
		if err != nil {
			return err
		}
		d.Bump = bump
	}
	if len(aux.Payer) > 0 {
		payer, err := UnmarshalReference(aux.Payer)
		if err != nil {
			return err
		}
		d.Payer = payer
	}
	return nil
}
