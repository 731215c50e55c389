package schema

import "context"

// Transaction exposes the schema operations that a persistence implementation
// must support within an atomic scope. Create operations assign IDs when empty
// and append the new entity to its owner's order array; Delete operations
// remove the entity and prune it from the owner's order array and from direct
// item references.
type Transaction interface {
	Snapshot() RuleView

	CreateApplication(Application) (Application, error)
	UpdateApplication(id string, mutator func(*Application) error) (Application, error)
	DeleteApplication(id string) error

	CreateCollection(Collection) (Collection, error)
	UpdateCollection(id string, mutator func(*Collection) error) (Collection, error)
	DeleteCollection(id string) error

	CreateAttribute(Attribute) (Attribute, error)
	UpdateAttribute(id string, mutator func(*Attribute) error) (Attribute, error)
	DeleteAttribute(id string) error

	CreateInstruction(Instruction) (Instruction, error)
	UpdateInstruction(id string, mutator func(*Instruction) error) (Instruction, error)
	DeleteInstruction(id string) error

	CreateArgument(Argument) (Argument, error)
	UpdateArgument(id string, mutator func(*Argument) error) (Argument, error)
	DeleteArgument(id string) error

	CreateInstructionDocument(InstructionDocument) (InstructionDocument, error)
	UpdateInstructionDocument(id string, mutator func(*InstructionDocument) error) (InstructionDocument, error)
	DeleteInstructionDocument(id string) error

	CreateInstructionTask(InstructionTask) (InstructionTask, error)
	UpdateInstructionTask(id string, mutator func(*InstructionTask) error) (InstructionTask, error)
	DeleteInstructionTask(id string) error

	CreateInstructionSigner(InstructionSigner) (InstructionSigner, error)
	UpdateInstructionSigner(id string, mutator func(*InstructionSigner) error) (InstructionSigner, error)
	DeleteInstructionSigner(id string) error

	CreateInstructionSysvar(InstructionSysvar) (InstructionSysvar, error)
	UpdateInstructionSysvar(id string, mutator func(*InstructionSysvar) error) (InstructionSysvar, error)
	DeleteInstructionSysvar(id string) error

	CreateInstructionApplication(InstructionApplication) (InstructionApplication, error)
	UpdateInstructionApplication(id string, mutator func(*InstructionApplication) error) (InstructionApplication, error)
	DeleteInstructionApplication(id string) error

	CreateSysvar(Sysvar) (Sysvar, error)
	UpdateSysvar(id string, mutator func(*Sysvar) error) (Sysvar, error)
	DeleteSysvar(id string) error
}

// TransactionView provides read-only access to snapshot data. It is the same
// surface rules evaluate against.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, []Change, error)
	View(ctx context.Context, fn func(TransactionView) error) error
}
