// Package schema defines the persistent entities, reference value types, and
// rule evaluation primitives used by appstudio.
package schema

import "time"

// EntityType identifies the type of record stored in the studio schema.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityApplication identifies a root application record.
	EntityApplication EntityType = "application"
	// EntityCollection identifies an account-shape collection record.
	EntityCollection EntityType = "collection"
	// EntityAttribute identifies an ordered collection attribute record.
	EntityAttribute EntityType = "attribute"
	// EntityInstruction identifies an instruction record.
	EntityInstruction EntityType = "instruction"
	// EntityArgument identifies an ordered instruction argument record.
	EntityArgument EntityType = "argument"
	// EntityInstructionDocument identifies an account usage within an instruction.
	EntityInstructionDocument EntityType = "instruction_document"
	// EntityInstructionTask identifies a step referencing other instruction items.
	EntityInstructionTask EntityType = "instruction_task"
	// EntityInstructionSigner identifies a signer usage within an instruction.
	EntityInstructionSigner EntityType = "instruction_signer"
	// EntityInstructionSysvar identifies a sysvar usage within an instruction.
	EntityInstructionSysvar EntityType = "instruction_sysvar"
	// EntityInstructionApplication identifies a cross-application usage record.
	EntityInstructionApplication EntityType = "instruction_application"
	// EntitySysvar identifies a workspace-global sysvar catalog record.
	EntitySysvar EntityType = "sysvar"
)

// AttributeType enumerates the primitive and composite types an attribute,
// argument, or literal reference may carry.
type AttributeType string

// Canonical attribute types.
const (
	TypeU8     AttributeType = "u8"
	TypeU16    AttributeType = "u16"
	TypeU32    AttributeType = "u32"
	TypeU64    AttributeType = "u64"
	TypeString AttributeType = "string"
	TypePubkey AttributeType = "pubkey"
	TypeStruct AttributeType = "struct"
)

// DocumentMethod enumerates how an instruction document accesses its account.
type DocumentMethod string

// Canonical document access methods.
const (
	MethodRead   DocumentMethod = "read"
	MethodCreate DocumentMethod = "create"
	MethodUpdate DocumentMethod = "update"
	MethodDelete DocumentMethod = "delete"
)

// Base contains common fields for all schema records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Application is the root grouping for collections and instructions within a
// workspace. CollectionIDs and InstructionIDs are the authoritative order
// arrays for its children.
type Application struct {
	Base
	WorkspaceID    string   `json:"workspace_id"`
	Name           string   `json:"name"`
	ThumbnailURL   string   `json:"thumbnail_url,omitempty"`
	CollectionIDs  []string `json:"collection_ids"`
	InstructionIDs []string `json:"instruction_ids"`
}

// Collection describes an account shape with ordered attributes.
type Collection struct {
	Base
	WorkspaceID   string   `json:"workspace_id"`
	ApplicationID string   `json:"application_id"`
	Name          string   `json:"name"`
	AttributeIDs  []string `json:"attribute_ids"`
}

// Attribute is an ordered field of a collection.
type Attribute struct {
	Base
	CollectionID string        `json:"collection_id"`
	Name         string        `json:"name"`
	Type         AttributeType `json:"type"`
	IsOption     bool          `json:"is_option"`
}

// Instruction captures one operation of an application, together with the
// order arrays for every item kind it owns.
type Instruction struct {
	Base
	WorkspaceID       string   `json:"workspace_id"`
	ApplicationID     string   `json:"application_id"`
	Name              string   `json:"name"`
	ThumbnailURL      string   `json:"thumbnail_url,omitempty"`
	Body              string   `json:"body,omitempty"`
	ArgumentIDs       []string `json:"argument_ids"`
	DocumentIDs       []string `json:"document_ids"`
	TaskIDs           []string `json:"task_ids"`
	SignerIDs         []string `json:"signer_ids"`
	SysvarIDs         []string `json:"sysvar_ids"`
	ApplicationRefIDs []string `json:"application_ref_ids"`
}

// Argument is an ordered input of an instruction.
type Argument struct {
	Base
	InstructionID string        `json:"instruction_id"`
	Name          string        `json:"name"`
	Type          AttributeType `json:"type"`
	IsOption      bool          `json:"is_option"`
}

// InstructionDocument represents an account usage inside an instruction.
// Seeds are order-sensitive; Bump and Payer are optional references and nil
// means "no reference yet".
type InstructionDocument struct {
	Base
	InstructionID string         `json:"instruction_id"`
	CollectionID  string         `json:"collection_id"`
	Name          string         `json:"name"`
	Method        DocumentMethod `json:"method"`
	Seeds         []Reference    `json:"-"`
	Bump          Reference      `json:"-"`
	Payer         Reference      `json:"-"`
}

// ItemKind enumerates the entity kinds an ItemReference may point at. Task
// slots use the instruction item kinds; selection and hotbar references may
// also carry the catalog kinds (a collection or a workspace sysvar picked up
// for placement).
type ItemKind string

// Task item kinds.
const (
	ItemDocument       ItemKind = "document"
	ItemSigner         ItemKind = "signer"
	ItemSysvar         ItemKind = "sysvar"
	ItemApplication    ItemKind = "application"
	ItemArgumentSource ItemKind = "argument"
)

// Catalog kinds, used by selection and hotbar references only.
const (
	ItemCollection    ItemKind = "collection"
	ItemCatalogSysvar ItemKind = "catalog_sysvar"
)

// ItemReference points at a same-instruction item by kind and ID. It is a
// pointer-only reference: consumers must re-resolve it against live data.
type ItemReference struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
}

// InstructionTask is a step of an instruction referencing other items it owns.
type InstructionTask struct {
	Base
	InstructionID string          `json:"instruction_id"`
	Name          string          `json:"name"`
	ThumbnailURL  string          `json:"thumbnail_url,omitempty"`
	Items         []ItemReference `json:"items"`
}

// InstructionSigner marks a signing account required by an instruction.
type InstructionSigner struct {
	Base
	InstructionID string `json:"instruction_id"`
	Name          string `json:"name"`
	SaveChanges   bool   `json:"save_changes"`
}

// InstructionSysvar binds a workspace sysvar into an instruction.
type InstructionSysvar struct {
	Base
	InstructionID string `json:"instruction_id"`
	SysvarID      string `json:"sysvar_id"`
	Name          string `json:"name"`
}

// InstructionApplication binds another application into an instruction.
type InstructionApplication struct {
	Base
	InstructionID string `json:"instruction_id"`
	ApplicationID string `json:"application_id"`
	Name          string `json:"name"`
}

// Sysvar is a workspace-global catalog entry.
type Sysvar struct {
	Base
	WorkspaceID  string `json:"workspace_id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
