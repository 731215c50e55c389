package core

import (
	"context"
	"fmt"
	"time"
)

// Service exposes higher-level transactional operations over a persistent
// store: per-kind CRUD, ordered-list reorder and transfer, view composition,
// and view subscriptions. All mutations run inside a single store transaction
// and are observed through the configured logger, metrics recorder, and tracer.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   func() time.Time

	watchers *watcherSet
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   noopLogger{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
		clock:    func() time.Time { return time.Now().UTC() },
		watchers: newWatcherSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *Service) Store() PersistentStore {
	return s.store
}

// View runs fn against a read-only snapshot of current state.
func (s *Service) View(ctx context.Context, fn func(TransactionView) error) error {
	return s.store.View(ctx, fn)
}

// run wraps a transaction with tracing, metrics, logging, and watcher
// notification on success.
func (s *Service) run(ctx context.Context, operation string, fn func(Transaction) error) (Result, []Change, error) {
	started := s.clock()
	ctx, span := s.tracer.Start(ctx, operation)
	res, changes, err := s.store.RunInTransaction(ctx, fn)
	duration := s.clock().Sub(started)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	span.End(err)
	if err != nil {
		s.logger.Error("transaction failed", "operation", operation, "error", err.Error())
		return res, changes, err
	}
	s.logger.Debug("transaction committed", "operation", operation, "changes", len(changes))
	s.notifyWatchers(ctx, changes)
	return res, changes, nil
}

// ErrNotFound is returned when an operation references an ID absent from the
// expected collection.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Applications.

// CreateApplication persists a new application.
func (s *Service) CreateApplication(ctx context.Context, application Application) (Application, Result, error) {
	var created Application
	res, _, err := s.run(ctx, "create_application", func(tx Transaction) error {
		var err error
		created, err = tx.CreateApplication(application)
		return err
	})
	return created, res, err
}

// UpdateApplication mutates an application using the provided mutator.
func (s *Service) UpdateApplication(ctx context.Context, id string, mutator func(*Application) error) (Application, Result, error) {
	var updated Application
	res, _, err := s.run(ctx, "update_application", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateApplication(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteApplication removes an application and everything it owns.
func (s *Service) DeleteApplication(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_application", func(tx Transaction) error {
		return tx.DeleteApplication(id)
	})
	return res, err
}

// Collections.

// CreateCollection persists a new collection under its application.
func (s *Service) CreateCollection(ctx context.Context, collection Collection) (Collection, Result, error) {
	var created Collection
	res, _, err := s.run(ctx, "create_collection", func(tx Transaction) error {
		var err error
		created, err = tx.CreateCollection(collection)
		return err
	})
	return created, res, err
}

// UpdateCollection mutates a collection.
func (s *Service) UpdateCollection(ctx context.Context, id string, mutator func(*Collection) error) (Collection, Result, error) {
	var updated Collection
	res, _, err := s.run(ctx, "update_collection", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateCollection(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteCollection removes a collection and its attributes.
func (s *Service) DeleteCollection(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_collection", func(tx Transaction) error {
		return tx.DeleteCollection(id)
	})
	return res, err
}

// Attributes.

// CreateAttribute persists a new attribute under its collection.
func (s *Service) CreateAttribute(ctx context.Context, attribute Attribute) (Attribute, Result, error) {
	var created Attribute
	res, _, err := s.run(ctx, "create_attribute", func(tx Transaction) error {
		var err error
		created, err = tx.CreateAttribute(attribute)
		return err
	})
	return created, res, err
}

// UpdateAttribute mutates an attribute.
func (s *Service) UpdateAttribute(ctx context.Context, id string, mutator func(*Attribute) error) (Attribute, Result, error) {
	var updated Attribute
	res, _, err := s.run(ctx, "update_attribute", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateAttribute(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteAttribute removes an attribute.
func (s *Service) DeleteAttribute(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_attribute", func(tx Transaction) error {
		return tx.DeleteAttribute(id)
	})
	return res, err
}

// Instructions.

// CreateInstruction persists a new instruction under its application.
func (s *Service) CreateInstruction(ctx context.Context, instruction Instruction) (Instruction, Result, error) {
	var created Instruction
	res, _, err := s.run(ctx, "create_instruction", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstruction(instruction)
		return err
	})
	return created, res, err
}

// UpdateInstruction mutates an instruction.
func (s *Service) UpdateInstruction(ctx context.Context, id string, mutator func(*Instruction) error) (Instruction, Result, error) {
	var updated Instruction
	res, _, err := s.run(ctx, "update_instruction", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstruction(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteInstruction removes an instruction and everything it owns.
func (s *Service) DeleteInstruction(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_instruction", func(tx Transaction) error {
		return tx.DeleteInstruction(id)
	})
	return res, err
}

// Arguments.

// CreateArgument persists a new argument under its instruction.
func (s *Service) CreateArgument(ctx context.Context, argument Argument) (Argument, Result, error) {
	var created Argument
	res, _, err := s.run(ctx, "create_argument", func(tx Transaction) error {
		var err error
		created, err = tx.CreateArgument(argument)
		return err
	})
	return created, res, err
}

// UpdateArgument mutates an argument.
func (s *Service) UpdateArgument(ctx context.Context, id string, mutator func(*Argument) error) (Argument, Result, error) {
	var updated Argument
	res, _, err := s.run(ctx, "update_argument", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateArgument(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteArgument removes an argument.
func (s *Service) DeleteArgument(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_argument", func(tx Transaction) error {
		return tx.DeleteArgument(id)
	})
	return res, err
}

// Documents.

// CreateInstructionDocument persists a new document under its instruction.
func (s *Service) CreateInstructionDocument(ctx context.Context, document InstructionDocument) (InstructionDocument, Result, error) {
	var created InstructionDocument
	res, _, err := s.run(ctx, "create_document", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstructionDocument(document)
		return err
	})
	return created, res, err
}

// UpdateInstructionDocument mutates a document.
func (s *Service) UpdateInstructionDocument(ctx context.Context, id string, mutator func(*InstructionDocument) error) (InstructionDocument, Result, error) {
	var updated InstructionDocument
	res, _, err := s.run(ctx, "update_document", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstructionDocument(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteInstructionDocument removes a document.
func (s *Service) DeleteInstructionDocument(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_document", func(tx Transaction) error {
		return tx.DeleteInstructionDocument(id)
	})
	return res, err
}

// Tasks.

// CreateInstructionTask persists a new task under its instruction.
func (s *Service) CreateInstructionTask(ctx context.Context, task InstructionTask) (InstructionTask, Result, error) {
	var created InstructionTask
	res, _, err := s.run(ctx, "create_task", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstructionTask(task)
		return err
	})
	return created, res, err
}

// UpdateInstructionTask mutates a task.
func (s *Service) UpdateInstructionTask(ctx context.Context, id string, mutator func(*InstructionTask) error) (InstructionTask, Result, error) {
	var updated InstructionTask
	res, _, err := s.run(ctx, "update_task", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstructionTask(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteInstructionTask removes a task.
func (s *Service) DeleteInstructionTask(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_task", func(tx Transaction) error {
		return tx.DeleteInstructionTask(id)
	})
	return res, err
}

// Signers.

// CreateInstructionSigner persists a new signer under its instruction.
func (s *Service) CreateInstructionSigner(ctx context.Context, signer InstructionSigner) (InstructionSigner, Result, error) {
	var created InstructionSigner
	res, _, err := s.run(ctx, "create_signer", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstructionSigner(signer)
		return err
	})
	return created, res, err
}

// UpdateInstructionSigner mutates a signer.
func (s *Service) UpdateInstructionSigner(ctx context.Context, id string, mutator func(*InstructionSigner) error) (InstructionSigner, Result, error) {
	var updated InstructionSigner
	res, _, err := s.run(ctx, "update_signer", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateInstructionSigner(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteInstructionSigner removes a signer.
func (s *Service) DeleteInstructionSigner(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_signer", func(tx Transaction) error {
		return tx.DeleteInstructionSigner(id)
	})
	return res, err
}

// Instruction sysvars.

// CreateInstructionSysvar binds a workspace sysvar into an instruction.
func (s *Service) CreateInstructionSysvar(ctx context.Context, sysvar InstructionSysvar) (InstructionSysvar, Result, error) {
	var created InstructionSysvar
	res, _, err := s.run(ctx, "create_instruction_sysvar", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstructionSysvar(sysvar)
		return err
	})
	return created, res, err
}

// DeleteInstructionSysvar removes a sysvar binding.
func (s *Service) DeleteInstructionSysvar(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_instruction_sysvar", func(tx Transaction) error {
		return tx.DeleteInstructionSysvar(id)
	})
	return res, err
}

// Instruction applications.

// CreateInstructionApplication binds another application into an instruction.
func (s *Service) CreateInstructionApplication(ctx context.Context, ref InstructionApplication) (InstructionApplication, Result, error) {
	var created InstructionApplication
	res, _, err := s.run(ctx, "create_instruction_application", func(tx Transaction) error {
		var err error
		created, err = tx.CreateInstructionApplication(ref)
		return err
	})
	return created, res, err
}

// DeleteInstructionApplication removes a cross-application binding.
func (s *Service) DeleteInstructionApplication(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_instruction_application", func(tx Transaction) error {
		return tx.DeleteInstructionApplication(id)
	})
	return res, err
}

// Sysvars.

// CreateSysvar persists a workspace sysvar catalog entry.
func (s *Service) CreateSysvar(ctx context.Context, sysvar Sysvar) (Sysvar, Result, error) {
	var created Sysvar
	res, _, err := s.run(ctx, "create_sysvar", func(tx Transaction) error {
		var err error
		created, err = tx.CreateSysvar(sysvar)
		return err
	})
	return created, res, err
}

// UpdateSysvar mutates a sysvar catalog entry.
func (s *Service) UpdateSysvar(ctx context.Context, id string, mutator func(*Sysvar) error) (Sysvar, Result, error) {
	var updated Sysvar
	res, _, err := s.run(ctx, "update_sysvar", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateSysvar(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteSysvar removes a sysvar catalog entry.
func (s *Service) DeleteSysvar(ctx context.Context, id string) (Result, error) {
	res, _, err := s.run(ctx, "delete_sysvar", func(tx Transaction) error {
		return tx.DeleteSysvar(id)
	})
	return res, err
}
