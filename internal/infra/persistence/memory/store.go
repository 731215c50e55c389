// Package memory provides an in-memory implementation of the studio
// persistence store used for tests and ephemeral environments.
package memory

import (
	"sync"
	"time"

	"appstudio/pkg/schema"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the schema persistence interfaces.
var _ schema.PersistentStore = (*Store)(nil)

type (
	// Base aliases schema.Base shared by all entities.
	Base = schema.Base
	// Application aliases schema.Application for in-memory persistence operations.
	Application = schema.Application
	// Collection aliases schema.Collection.
	Collection = schema.Collection
	// Attribute aliases schema.Attribute.
	Attribute = schema.Attribute
	// Instruction aliases schema.Instruction.
	Instruction = schema.Instruction
	// Argument aliases schema.Argument.
	Argument = schema.Argument
	// InstructionDocument aliases schema.InstructionDocument.
	InstructionDocument = schema.InstructionDocument
	// InstructionTask aliases schema.InstructionTask.
	InstructionTask = schema.InstructionTask
	// InstructionSigner aliases schema.InstructionSigner.
	InstructionSigner = schema.InstructionSigner
	// InstructionSysvar aliases schema.InstructionSysvar.
	InstructionSysvar = schema.InstructionSysvar
	// InstructionApplication aliases schema.InstructionApplication.
	InstructionApplication = schema.InstructionApplication
	// Sysvar aliases schema.Sysvar.
	Sysvar = schema.Sysvar
	// Change aliases schema.Change captured in transactions.
	Change = schema.Change
	// Result aliases schema.Result summarizing rule evaluation.
	Result = schema.Result
	// RulesEngine aliases schema.RulesEngine used to evaluate rules.
	RulesEngine = schema.RulesEngine
	// Transaction aliases schema.Transaction representing a mutable unit of work.
	Transaction = schema.Transaction
	// TransactionView aliases schema.TransactionView providing read-only state.
	TransactionView = schema.TransactionView
)

type memoryState struct {
	applications    map[string]Application
	collections     map[string]Collection
	attributes      map[string]Attribute
	instructions    map[string]Instruction
	arguments       map[string]Argument
	documents       map[string]InstructionDocument
	tasks           map[string]InstructionTask
	signers         map[string]InstructionSigner
	insSysvars      map[string]InstructionSysvar
	insApplications map[string]InstructionApplication
	sysvars         map[string]Sysvar
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Applications    map[string]Application            `json:"applications"`
	Collections     map[string]Collection             `json:"collections"`
	Attributes      map[string]Attribute              `json:"attributes"`
	Instructions    map[string]Instruction            `json:"instructions"`
	Arguments       map[string]Argument               `json:"arguments"`
	Documents       map[string]InstructionDocument    `json:"documents"`
	Tasks           map[string]InstructionTask        `json:"tasks"`
	Signers         map[string]InstructionSigner      `json:"signers"`
	InsSysvars      map[string]InstructionSysvar      `json:"instruction_sysvars"`
	InsApplications map[string]InstructionApplication `json:"instruction_applications"`
	Sysvars         map[string]Sysvar                 `json:"sysvars"`
}

func newMemoryState() memoryState {
	return memoryState{
		applications:    make(map[string]Application),
		collections:     make(map[string]Collection),
		attributes:      make(map[string]Attribute),
		instructions:    make(map[string]Instruction),
		arguments:       make(map[string]Argument),
		documents:       make(map[string]InstructionDocument),
		tasks:           make(map[string]InstructionTask),
		signers:         make(map[string]InstructionSigner),
		insSysvars:      make(map[string]InstructionSysvar),
		insApplications: make(map[string]InstructionApplication),
		sysvars:         make(map[string]Sysvar),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.applications {
		cloned.applications[k] = cloneApplication(v)
	}
	for k, v := range s.collections {
		cloned.collections[k] = cloneCollection(v)
	}
	for k, v := range s.attributes {
		cloned.attributes[k] = v
	}
	for k, v := range s.instructions {
		cloned.instructions[k] = cloneInstruction(v)
	}
	for k, v := range s.arguments {
		cloned.arguments[k] = v
	}
	for k, v := range s.documents {
		cloned.documents[k] = cloneDocument(v)
	}
	for k, v := range s.tasks {
		cloned.tasks[k] = cloneTask(v)
	}
	for k, v := range s.signers {
		cloned.signers[k] = v
	}
	for k, v := range s.insSysvars {
		cloned.insSysvars[k] = v
	}
	for k, v := range s.insApplications {
		cloned.insApplications[k] = v
	}
	for k, v := range s.sysvars {
		cloned.sysvars[k] = v
	}
	return cloned
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append([]string(nil), ids...)
}

func cloneApplication(a Application) Application {
	cp := a
	cp.CollectionIDs = cloneIDs(a.CollectionIDs)
	cp.InstructionIDs = cloneIDs(a.InstructionIDs)
	return cp
}

func cloneCollection(c Collection) Collection {
	cp := c
	cp.AttributeIDs = cloneIDs(c.AttributeIDs)
	return cp
}

func cloneInstruction(i Instruction) Instruction {
	cp := i
	cp.ArgumentIDs = cloneIDs(i.ArgumentIDs)
	cp.DocumentIDs = cloneIDs(i.DocumentIDs)
	cp.TaskIDs = cloneIDs(i.TaskIDs)
	cp.SignerIDs = cloneIDs(i.SignerIDs)
	cp.SysvarIDs = cloneIDs(i.SysvarIDs)
	cp.ApplicationRefIDs = cloneIDs(i.ApplicationRefIDs)
	return cp
}

// Reference values are immutable, so a shallow slice copy is sufficient.
func cloneDocument(d InstructionDocument) InstructionDocument {
	cp := d
	if d.Seeds != nil {
		cp.Seeds = append([]schema.Reference(nil), d.Seeds...)
	}
	return cp
}

func cloneTask(t InstructionTask) InstructionTask {
	cp := t
	if t.Items != nil {
		cp.Items = append([]schema.ItemReference(nil), t.Items...)
	}
	return cp
}

// Store provides an in-memory transactional store for the studio schema.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	newID  func() string
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = schema.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// ExportState returns a deep snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces committed state with the provided snapshot after
// repairing order arrays and dropping records whose owner is missing.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{
		Applications:    make(map[string]Application, len(state.applications)),
		Collections:     make(map[string]Collection, len(state.collections)),
		Attributes:      make(map[string]Attribute, len(state.attributes)),
		Instructions:    make(map[string]Instruction, len(state.instructions)),
		Arguments:       make(map[string]Argument, len(state.arguments)),
		Documents:       make(map[string]InstructionDocument, len(state.documents)),
		Tasks:           make(map[string]InstructionTask, len(state.tasks)),
		Signers:         make(map[string]InstructionSigner, len(state.signers)),
		InsSysvars:      make(map[string]InstructionSysvar, len(state.insSysvars)),
		InsApplications: make(map[string]InstructionApplication, len(state.insApplications)),
		Sysvars:         make(map[string]Sysvar, len(state.sysvars)),
	}
	for k, v := range state.applications {
		snap.Applications[k] = cloneApplication(v)
	}
	for k, v := range state.collections {
		snap.Collections[k] = cloneCollection(v)
	}
	for k, v := range state.attributes {
		snap.Attributes[k] = v
	}
	for k, v := range state.instructions {
		snap.Instructions[k] = cloneInstruction(v)
	}
	for k, v := range state.arguments {
		snap.Arguments[k] = v
	}
	for k, v := range state.documents {
		snap.Documents[k] = cloneDocument(v)
	}
	for k, v := range state.tasks {
		snap.Tasks[k] = cloneTask(v)
	}
	for k, v := range state.signers {
		snap.Signers[k] = v
	}
	for k, v := range state.insSysvars {
		snap.InsSysvars[k] = v
	}
	for k, v := range state.insApplications {
		snap.InsApplications[k] = v
	}
	for k, v := range state.sysvars {
		snap.Sysvars[k] = v
	}
	return snap
}

func memoryStateFromSnapshot(snap Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range snap.Applications {
		state.applications[k] = cloneApplication(v)
	}
	for k, v := range snap.Collections {
		state.collections[k] = cloneCollection(v)
	}
	for k, v := range snap.Attributes {
		state.attributes[k] = v
	}
	for k, v := range snap.Instructions {
		state.instructions[k] = cloneInstruction(v)
	}
	for k, v := range snap.Arguments {
		state.arguments[k] = v
	}
	for k, v := range snap.Documents {
		state.documents[k] = cloneDocument(v)
	}
	for k, v := range snap.Tasks {
		state.tasks[k] = cloneTask(v)
	}
	for k, v := range snap.Signers {
		state.signers[k] = v
	}
	for k, v := range snap.InsSysvars {
		state.insSysvars[k] = v
	}
	for k, v := range snap.InsApplications {
		state.insApplications[k] = v
	}
	for k, v := range snap.Sysvars {
		state.sysvars[k] = v
	}
	return state
}

// repairOrder filters missing IDs and duplicates out of an order array, then
// appends owned IDs the array does not list yet so the array is exactly the
// owned set.
func repairOrder(order []string, owned map[string]struct{}) []string {
	out := make([]string, 0, len(owned))
	seen := make(map[string]struct{}, len(owned))
	for _, id := range order {
		if _, ok := owned[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for id := range owned {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

//nolint:gocyclo // migrateSnapshot aggregates all snapshot repair concerns in one pass.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Applications == nil {
		snapshot.Applications = map[string]Application{}
	}
	if snapshot.Collections == nil {
		snapshot.Collections = map[string]Collection{}
	}
	if snapshot.Attributes == nil {
		snapshot.Attributes = map[string]Attribute{}
	}
	if snapshot.Instructions == nil {
		snapshot.Instructions = map[string]Instruction{}
	}
	if snapshot.Arguments == nil {
		snapshot.Arguments = map[string]Argument{}
	}
	if snapshot.Documents == nil {
		snapshot.Documents = map[string]InstructionDocument{}
	}
	if snapshot.Tasks == nil {
		snapshot.Tasks = map[string]InstructionTask{}
	}
	if snapshot.Signers == nil {
		snapshot.Signers = map[string]InstructionSigner{}
	}
	if snapshot.InsSysvars == nil {
		snapshot.InsSysvars = map[string]InstructionSysvar{}
	}
	if snapshot.InsApplications == nil {
		snapshot.InsApplications = map[string]InstructionApplication{}
	}
	if snapshot.Sysvars == nil {
		snapshot.Sysvars = map[string]Sysvar{}
	}

	applicationExists := func(id string) bool {
		_, ok := snapshot.Applications[id]
		return ok
	}
	collectionExists := func(id string) bool {
		_, ok := snapshot.Collections[id]
		return ok
	}
	instructionExists := func(id string) bool {
		_, ok := snapshot.Instructions[id]
		return ok
	}

	for id, collection := range snapshot.Collections {
		if collection.ApplicationID == "" || !applicationExists(collection.ApplicationID) {
			delete(snapshot.Collections, id)
		}
	}
	for id, attribute := range snapshot.Attributes {
		if attribute.CollectionID == "" || !collectionExists(attribute.CollectionID) {
			delete(snapshot.Attributes, id)
		}
	}
	for id, instruction := range snapshot.Instructions {
		if instruction.ApplicationID == "" || !applicationExists(instruction.ApplicationID) {
			delete(snapshot.Instructions, id)
		}
	}
	for id, argument := range snapshot.Arguments {
		if argument.InstructionID == "" || !instructionExists(argument.InstructionID) {
			delete(snapshot.Arguments, id)
		}
	}
	for id, document := range snapshot.Documents {
		if document.InstructionID == "" || !instructionExists(document.InstructionID) {
			delete(snapshot.Documents, id)
		}
	}
	for id, task := range snapshot.Tasks {
		if task.InstructionID == "" || !instructionExists(task.InstructionID) {
			delete(snapshot.Tasks, id)
		}
	}
	for id, signer := range snapshot.Signers {
		if signer.InstructionID == "" || !instructionExists(signer.InstructionID) {
			delete(snapshot.Signers, id)
		}
	}
	for id, sysvar := range snapshot.InsSysvars {
		if sysvar.InstructionID == "" || !instructionExists(sysvar.InstructionID) {
			delete(snapshot.InsSysvars, id)
		}
	}
	for id, ref := range snapshot.InsApplications {
		if ref.InstructionID == "" || !instructionExists(ref.InstructionID) {
			delete(snapshot.InsApplications, id)
		}
	}

	for id, application := range snapshot.Applications {
		collections := make(map[string]struct{})
		instructions := make(map[string]struct{})
		for cid, collection := range snapshot.Collections {
			if collection.ApplicationID == id {
				collections[cid] = struct{}{}
			}
		}
		for iid, instruction := range snapshot.Instructions {
			if instruction.ApplicationID == id {
				instructions[iid] = struct{}{}
			}
		}
		application.CollectionIDs = repairOrder(application.CollectionIDs, collections)
		application.InstructionIDs = repairOrder(application.InstructionIDs, instructions)
		snapshot.Applications[id] = application
	}

	for id, collection := range snapshot.Collections {
		attributes := make(map[string]struct{})
		for aid, attribute := range snapshot.Attributes {
			if attribute.CollectionID == id {
				attributes[aid] = struct{}{}
			}
		}
		collection.AttributeIDs = repairOrder(collection.AttributeIDs, attributes)
		snapshot.Collections[id] = collection
	}

	for id, instruction := range snapshot.Instructions {
		owned := func(bucket string) map[string]struct{} {
			set := make(map[string]struct{})
			switch bucket {
			case "arguments":
				for aid, a := range snapshot.Arguments {
					if a.InstructionID == id {
						set[aid] = struct{}{}
					}
				}
			case "documents":
				for did, d := range snapshot.Documents {
					if d.InstructionID == id {
						set[did] = struct{}{}
					}
				}
			case "tasks":
				for tid, t := range snapshot.Tasks {
					if t.InstructionID == id {
						set[tid] = struct{}{}
					}
				}
			case "signers":
				for sid, sg := range snapshot.Signers {
					if sg.InstructionID == id {
						set[sid] = struct{}{}
					}
				}
			case "sysvars":
				for vid, sv := range snapshot.InsSysvars {
					if sv.InstructionID == id {
						set[vid] = struct{}{}
					}
				}
			case "applications":
				for rid, ar := range snapshot.InsApplications {
					if ar.InstructionID == id {
						set[rid] = struct{}{}
					}
				}
			}
			return set
		}
		instruction.ArgumentIDs = repairOrder(instruction.ArgumentIDs, owned("arguments"))
		instruction.DocumentIDs = repairOrder(instruction.DocumentIDs, owned("documents"))
		instruction.TaskIDs = repairOrder(instruction.TaskIDs, owned("tasks"))
		instruction.SignerIDs = repairOrder(instruction.SignerIDs, owned("signers"))
		instruction.SysvarIDs = repairOrder(instruction.SysvarIDs, owned("sysvars"))
		instruction.ApplicationRefIDs = repairOrder(instruction.ApplicationRefIDs, owned("applications"))
		snapshot.Instructions[id] = instruction
	}

	return snapshot
}
