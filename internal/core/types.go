package core

import "appstudio/pkg/schema"

type (
	EntityType             = schema.EntityType
	AttributeType          = schema.AttributeType
	DocumentMethod         = schema.DocumentMethod
	Severity               = schema.Severity
	Base                   = schema.Base
	Application            = schema.Application
	Collection             = schema.Collection
	Attribute              = schema.Attribute
	Instruction            = schema.Instruction
	Argument               = schema.Argument
	InstructionDocument    = schema.InstructionDocument
	InstructionTask        = schema.InstructionTask
	InstructionSigner      = schema.InstructionSigner
	InstructionSysvar      = schema.InstructionSysvar
	InstructionApplication = schema.InstructionApplication
	Sysvar                 = schema.Sysvar
	Reference              = schema.Reference
	ReferenceKind          = schema.ReferenceKind
	ValueReference         = schema.ValueReference
	ArgumentReference      = schema.ArgumentReference
	AttributeReference     = schema.AttributeReference
	ItemKind               = schema.ItemKind
	ItemReference          = schema.ItemReference
	Change                 = schema.Change
	Action                 = schema.Action
	Violation              = schema.Violation
	Result                 = schema.Result
	RuleViolationError     = schema.RuleViolationError
	Rule                   = schema.Rule
	RulesEngine            = schema.RulesEngine
	RuleView               = schema.RuleView
	Transaction            = schema.Transaction
	TransactionView        = schema.TransactionView
	PersistentStore        = schema.PersistentStore
)

const (
	EntityApplication            = schema.EntityApplication
	EntityCollection             = schema.EntityCollection
	EntityAttribute              = schema.EntityAttribute
	EntityInstruction            = schema.EntityInstruction
	EntityArgument               = schema.EntityArgument
	EntityInstructionDocument    = schema.EntityInstructionDocument
	EntityInstructionTask        = schema.EntityInstructionTask
	EntityInstructionSigner      = schema.EntityInstructionSigner
	EntityInstructionSysvar      = schema.EntityInstructionSysvar
	EntityInstructionApplication = schema.EntityInstructionApplication
	EntitySysvar                 = schema.EntitySysvar
)

const (
	TypeU8     = schema.TypeU8
	TypeU16    = schema.TypeU16
	TypeU32    = schema.TypeU32
	TypeU64    = schema.TypeU64
	TypeString = schema.TypeString
	TypePubkey = schema.TypePubkey
	TypeStruct = schema.TypeStruct
)

const (
	MethodRead   = schema.MethodRead
	MethodCreate = schema.MethodCreate
	MethodUpdate = schema.MethodUpdate
	MethodDelete = schema.MethodDelete
)

const (
	RefValue     = schema.RefValue
	RefArgument  = schema.RefArgument
	RefAttribute = schema.RefAttribute
)

const (
	ItemDocument       = schema.ItemDocument
	ItemSigner         = schema.ItemSigner
	ItemSysvar         = schema.ItemSysvar
	ItemApplication    = schema.ItemApplication
	ItemArgumentSource = schema.ItemArgumentSource
	ItemCollection     = schema.ItemCollection
	ItemCatalogSysvar  = schema.ItemCatalogSysvar
)

const (
	SeverityBlock = schema.SeverityBlock
	SeverityWarn  = schema.SeverityWarn
	SeverityLog   = schema.SeverityLog
)

const (
	ActionCreate = schema.ActionCreate
	ActionUpdate = schema.ActionUpdate
	ActionDelete = schema.ActionDelete
)

// NewRulesEngine re-exports the schema constructor for composition roots.
func NewRulesEngine() *RulesEngine { return schema.NewRulesEngine() }

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewOrderIntegrityRule())
	engine.Register(NewReferenceScopeRule())
	engine.Register(NewReferenceClassRule())
	return engine
}
