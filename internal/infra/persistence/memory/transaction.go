package memory

import (
	"context"
	"fmt"
	"time"

	"appstudio/pkg/schema"
)

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

var _ Transaction = (*transaction)(nil)

type transactionView struct {
	state *memoryState
}

var _ TransactionView = transactionView{}

func newTransactionView(state *memoryState) transactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// On success the mutated copy replaces committed state atomically; on any
// error or blocking rule violation the committed state is untouched.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, []Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, nil, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, nil, err
		}
		result = res
		if res.HasBlocking() {
			return res, nil, schema.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, tx.changes, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Order array helpers --------------------------------------------------------

func appendID(ids []string, id string) []string {
	return append(cloneIDs(ids), id)
}

func pruneID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// Applications ---------------------------------------------------------------

// CreateApplication stores a new application record.
func (tx *transaction) CreateApplication(a Application) (Application, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.applications[a.ID]; exists {
		return Application{}, fmt.Errorf("application %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	a.CollectionIDs = nil
	a.InstructionIDs = nil
	tx.state.applications[a.ID] = cloneApplication(a)
	tx.recordChange(Change{Entity: schema.EntityApplication, Action: schema.ActionCreate, After: cloneApplication(a)})
	return cloneApplication(a), nil
}

// UpdateApplication mutates an application using the provided mutator function.
func (tx *transaction) UpdateApplication(id string, mutator func(*Application) error) (Application, error) {
	current, ok := tx.state.applications[id]
	if !ok {
		return Application{}, fmt.Errorf("application %q not found", id)
	}
	before := cloneApplication(current)
	if err := mutator(&current); err != nil {
		return Application{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.applications[id] = cloneApplication(current)
	tx.recordChange(Change{Entity: schema.EntityApplication, Action: schema.ActionUpdate, Before: before, After: cloneApplication(current)})
	return cloneApplication(current), nil
}

// DeleteApplication removes an application and cascades over its collections
// and instructions.
func (tx *transaction) DeleteApplication(id string) error {
	current, ok := tx.state.applications[id]
	if !ok {
		return fmt.Errorf("application %q not found", id)
	}
	for _, cid := range cloneIDs(current.CollectionIDs) {
		if err := tx.DeleteCollection(cid); err != nil {
			return err
		}
	}
	for _, iid := range cloneIDs(current.InstructionIDs) {
		if err := tx.DeleteInstruction(iid); err != nil {
			return err
		}
	}
	delete(tx.state.applications, id)
	tx.recordChange(Change{Entity: schema.EntityApplication, Action: schema.ActionDelete, Before: cloneApplication(current)})
	return nil
}

// Collections ----------------------------------------------------------------

// CreateCollection stores a new collection and appends it to its application's
// order array.
func (tx *transaction) CreateCollection(c Collection) (Collection, error) {
	app, ok := tx.state.applications[c.ApplicationID]
	if !ok {
		return Collection{}, fmt.Errorf("application %q not found", c.ApplicationID)
	}
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.collections[c.ID]; exists {
		return Collection{}, fmt.Errorf("collection %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	c.AttributeIDs = nil
	tx.state.collections[c.ID] = cloneCollection(c)
	app.CollectionIDs = appendID(app.CollectionIDs, c.ID)
	app.UpdatedAt = tx.now
	tx.state.applications[app.ID] = app
	tx.recordChange(Change{Entity: schema.EntityCollection, Action: schema.ActionCreate, After: cloneCollection(c)})
	return cloneCollection(c), nil
}

// UpdateCollection mutates an existing collection.
func (tx *transaction) UpdateCollection(id string, mutator func(*Collection) error) (Collection, error) {
	current, ok := tx.state.collections[id]
	if !ok {
		return Collection{}, fmt.Errorf("collection %q not found", id)
	}
	before := cloneCollection(current)
	if err := mutator(&current); err != nil {
		return Collection{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.collections[id] = cloneCollection(current)
	tx.recordChange(Change{Entity: schema.EntityCollection, Action: schema.ActionUpdate, Before: before, After: cloneCollection(current)})
	return cloneCollection(current), nil
}

// DeleteCollection removes a collection, its attributes, and its entry in the
// owning application's order array. Documents pointing at the collection keep
// their now-dangling CollectionID; the resolver reports them as unresolved.
func (tx *transaction) DeleteCollection(id string) error {
	current, ok := tx.state.collections[id]
	if !ok {
		return fmt.Errorf("collection %q not found", id)
	}
	for _, aid := range cloneIDs(current.AttributeIDs) {
		if err := tx.DeleteAttribute(aid); err != nil {
			return err
		}
	}
	if app, ok := tx.state.applications[current.ApplicationID]; ok {
		app.CollectionIDs = pruneID(app.CollectionIDs, id)
		app.UpdatedAt = tx.now
		tx.state.applications[app.ID] = app
	}
	delete(tx.state.collections, id)
	tx.recordChange(Change{Entity: schema.EntityCollection, Action: schema.ActionDelete, Before: cloneCollection(current)})
	return nil
}

// Attributes -----------------------------------------------------------------

// CreateAttribute stores a new attribute and appends it to its collection's
// order array.
func (tx *transaction) CreateAttribute(a Attribute) (Attribute, error) {
	col, ok := tx.state.collections[a.CollectionID]
	if !ok {
		return Attribute{}, fmt.Errorf("collection %q not found", a.CollectionID)
	}
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.attributes[a.ID]; exists {
		return Attribute{}, fmt.Errorf("attribute %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.attributes[a.ID] = a
	col.AttributeIDs = appendID(col.AttributeIDs, a.ID)
	col.UpdatedAt = tx.now
	tx.state.collections[col.ID] = col
	tx.recordChange(Change{Entity: schema.EntityAttribute, Action: schema.ActionCreate, After: a})
	return a, nil
}

// UpdateAttribute mutates an existing attribute.
func (tx *transaction) UpdateAttribute(id string, mutator func(*Attribute) error) (Attribute, error) {
	current, ok := tx.state.attributes[id]
	if !ok {
		return Attribute{}, fmt.Errorf("attribute %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Attribute{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.attributes[id] = current
	tx.recordChange(Change{Entity: schema.EntityAttribute, Action: schema.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteAttribute removes an attribute from the store and from its
// collection's order array, and clears bump/payer references pointing at it.
// Seed references are deliberately left in place for the resolver to report
// as unresolved.
func (tx *transaction) DeleteAttribute(id string) error {
	current, ok := tx.state.attributes[id]
	if !ok {
		return fmt.Errorf("attribute %q not found", id)
	}
	if col, ok := tx.state.collections[current.CollectionID]; ok {
		col.AttributeIDs = pruneID(col.AttributeIDs, id)
		col.UpdatedAt = tx.now
		tx.state.collections[col.ID] = col
	}
	for did, doc := range tx.state.documents {
		changed := false
		if ref, ok := doc.Bump.(schema.AttributeReference); ok && ref.AttributeID == id {
			doc.Bump = nil
			changed = true
		}
		if ref, ok := doc.Payer.(schema.AttributeReference); ok && ref.AttributeID == id {
			doc.Payer = nil
			changed = true
		}
		if changed {
			doc.UpdatedAt = tx.now
			tx.state.documents[did] = doc
		}
	}
	delete(tx.state.attributes, id)
	tx.recordChange(Change{Entity: schema.EntityAttribute, Action: schema.ActionDelete, Before: current})
	return nil
}

// Instructions ---------------------------------------------------------------

// CreateInstruction stores a new instruction and appends it to its
// application's order array.
func (tx *transaction) CreateInstruction(i Instruction) (Instruction, error) {
	app, ok := tx.state.applications[i.ApplicationID]
	if !ok {
		return Instruction{}, fmt.Errorf("application %q not found", i.ApplicationID)
	}
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.instructions[i.ID]; exists {
		return Instruction{}, fmt.Errorf("instruction %q already exists", i.ID)
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	i.ArgumentIDs = nil
	i.DocumentIDs = nil
	i.TaskIDs = nil
	i.SignerIDs = nil
	i.SysvarIDs = nil
	i.ApplicationRefIDs = nil
	tx.state.instructions[i.ID] = cloneInstruction(i)
	app.InstructionIDs = appendID(app.InstructionIDs, i.ID)
	app.UpdatedAt = tx.now
	tx.state.applications[app.ID] = app
	tx.recordChange(Change{Entity: schema.EntityInstruction, Action: schema.ActionCreate, After: cloneInstruction(i)})
	return cloneInstruction(i), nil
}

// UpdateInstruction mutates an existing instruction.
func (tx *transaction) UpdateInstruction(id string, mutator func(*Instruction) error) (Instruction, error) {
	current, ok := tx.state.instructions[id]
	if !ok {
		return Instruction{}, fmt.Errorf("instruction %q not found", id)
	}
	before := cloneInstruction(current)
	if err := mutator(&current); err != nil {
		return Instruction{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.instructions[id] = cloneInstruction(current)
	tx.recordChange(Change{Entity: schema.EntityInstruction, Action: schema.ActionUpdate, Before: before, After: cloneInstruction(current)})
	return cloneInstruction(current), nil
}

// DeleteInstruction removes an instruction and cascades over every item it owns.
func (tx *transaction) DeleteInstruction(id string) error {
	current, ok := tx.state.instructions[id]
	if !ok {
		return fmt.Errorf("instruction %q not found", id)
	}
	for _, tid := range cloneIDs(current.TaskIDs) {
		if err := tx.DeleteInstructionTask(tid); err != nil {
			return err
		}
	}
	for _, did := range cloneIDs(current.DocumentIDs) {
		if err := tx.DeleteInstructionDocument(did); err != nil {
			return err
		}
	}
	for _, aid := range cloneIDs(current.ArgumentIDs) {
		if err := tx.DeleteArgument(aid); err != nil {
			return err
		}
	}
	for _, sid := range cloneIDs(current.SignerIDs) {
		if err := tx.DeleteInstructionSigner(sid); err != nil {
			return err
		}
	}
	for _, vid := range cloneIDs(current.SysvarIDs) {
		if err := tx.DeleteInstructionSysvar(vid); err != nil {
			return err
		}
	}
	for _, rid := range cloneIDs(current.ApplicationRefIDs) {
		if err := tx.DeleteInstructionApplication(rid); err != nil {
			return err
		}
	}
	if app, ok := tx.state.applications[current.ApplicationID]; ok {
		app.InstructionIDs = pruneID(app.InstructionIDs, id)
		app.UpdatedAt = tx.now
		tx.state.applications[app.ID] = app
	}
	delete(tx.state.instructions, id)
	tx.recordChange(Change{Entity: schema.EntityInstruction, Action: schema.ActionDelete, Before: cloneInstruction(current)})
	return nil
}

// Arguments ------------------------------------------------------------------

// CreateArgument stores a new argument and appends it to its instruction's
// order array.
func (tx *transaction) CreateArgument(a Argument) (Argument, error) {
	ins, ok := tx.state.instructions[a.InstructionID]
	if !ok {
		return Argument{}, fmt.Errorf("instruction %q not found", a.InstructionID)
	}
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.arguments[a.ID]; exists {
		return Argument{}, fmt.Errorf("argument %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.arguments[a.ID] = a
	ins.ArgumentIDs = appendID(ins.ArgumentIDs, a.ID)
	ins.UpdatedAt = tx.now
	tx.state.instructions[ins.ID] = ins
	tx.recordChange(Change{Entity: schema.EntityArgument, Action: schema.ActionCreate, After: a})
	return a, nil
}

// UpdateArgument mutates an existing argument.
func (tx *transaction) UpdateArgument(id string, mutator func(*Argument) error) (Argument, error) {
	current, ok := tx.state.arguments[id]
	if !ok {
		return Argument{}, fmt.Errorf("argument %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Argument{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.arguments[id] = current
	tx.recordChange(Change{Entity: schema.EntityArgument, Action: schema.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteArgument removes an argument, prunes it from the instruction order
// array and from task item slots, and clears bump/payer references pointing
// at it. Seed references stay for the resolver to report as unresolved.
func (tx *transaction) DeleteArgument(id string) error {
	current, ok := tx.state.arguments[id]
	if !ok {
		return fmt.Errorf("argument %q not found", id)
	}
	if ins, ok := tx.state.instructions[current.InstructionID]; ok {
		ins.ArgumentIDs = pruneID(ins.ArgumentIDs, id)
		ins.UpdatedAt = tx.now
		tx.state.instructions[ins.ID] = ins
	}
	tx.pruneTaskItems(schema.ItemArgumentSource, id)
	for did, doc := range tx.state.documents {
		changed := false
		if ref, ok := doc.Bump.(schema.ArgumentReference); ok && ref.ArgumentID == id {
			doc.Bump = nil
			changed = true
		}
		if ref, ok := doc.Payer.(schema.ArgumentReference); ok && ref.ArgumentID == id {
			doc.Payer = nil
			changed = true
		}
		if changed {
			doc.UpdatedAt = tx.now
			tx.state.documents[did] = doc
		}
	}
	delete(tx.state.arguments, id)
	tx.recordChange(Change{Entity: schema.EntityArgument, Action: schema.ActionDelete, Before: current})
	return nil
}

// Documents ------------------------------------------------------------------

// CreateInstructionDocument stores a new document and appends it to its
// instruction's order array.
func (tx *transaction) CreateInstructionDocument(d InstructionDocument) (InstructionDocument, error) {
	ins, ok := tx.state.instructions[d.InstructionID]
	if !ok {
		return InstructionDocument{}, fmt.Errorf("instruction %q not found", d.InstructionID)
	}
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.documents[d.ID]; exists {
		return InstructionDocument{}, fmt.Errorf("document %q already exists", d.ID)
	}
	if d.Method == "" {
		d.Method = schema.MethodRead
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.documents[d.ID] = cloneDocument(d)
	ins.DocumentIDs = appendID(ins.DocumentIDs, d.ID)
	ins.UpdatedAt = tx.now
	tx.state.instructions[ins.ID] = ins
	tx.recordChange(Change{Entity: schema.EntityInstructionDocument, Action: schema.ActionCreate, After: cloneDocument(d)})
	return cloneDocument(d), nil
}

// UpdateInstructionDocument mutates an existing document.
func (tx *transaction) UpdateInstructionDocument(id string, mutator func(*InstructionDocument) error) (InstructionDocument, error) {
	current, ok := tx.state.documents[id]
	if !ok {
		return InstructionDocument{}, fmt.Errorf("document %q not found", id)
	}
	before := cloneDocument(current)
	if err := mutator(&current); err != nil {
		return InstructionDocument{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.documents[id] = cloneDocument(current)
	tx.recordChange(Change{Entity: schema.EntityInstructionDocument, Action: schema.ActionUpdate, Before: before, After: cloneDocument(current)})
	return cloneDocument(current), nil
}

// DeleteInstructionDocument removes a document, prunes it from the instruction
// order array and task item slots, and clears attribute references routed
// through it.
func (tx *transaction) DeleteInstructionDocument(id string) error {
	current, ok := tx.state.documents[id]
	if !ok {
		return fmt.Errorf("document %q not found", id)
	}
	if ins, ok := tx.state.instructions[current.InstructionID]; ok {
		ins.DocumentIDs = pruneID(ins.DocumentIDs, id)
		ins.UpdatedAt = tx.now
		tx.state.instructions[ins.ID] = ins
	}
	tx.pruneTaskItems(schema.ItemDocument, id)
	for did, doc := range tx.state.documents {
		if did == id {
			continue
		}
		changed := false
		if ref, ok := doc.Bump.(schema.AttributeReference); ok && ref.DocumentID == id {
			doc.Bump = nil
			changed = true
		}
		if ref, ok := doc.Payer.(schema.AttributeReference); ok && ref.DocumentID == id {
			doc.Payer = nil
			changed = true
		}
		if changed {
			doc.UpdatedAt = tx.now
			tx.state.documents[did] = doc
		}
	}
	delete(tx.state.documents, id)
	tx.recordChange(Change{Entity: schema.EntityInstructionDocument, Action: schema.ActionDelete, Before: cloneDocument(current)})
	return nil
}

// Tasks ----------------------------------------------------------------------

// CreateInstructionTask stores a new task and appends it to its instruction's
// order array.
func (tx *transaction) CreateInstructionTask(t InstructionTask) (InstructionTask, error) {
	ins, ok := tx.state.instructions[t.InstructionID]
	if !ok {
		return InstructionTask{}, fmt.Errorf("instruction %q not found", t.InstructionID)
	}
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tasks[t.ID]; exists {
		return InstructionTask{}, fmt.Errorf("task %q already exists", t.ID)
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.tasks[t.ID] = cloneTask(t)
	ins.TaskIDs = appendID(ins.TaskIDs, t.ID)
	ins.UpdatedAt = tx.now
	tx.state.instructions[ins.ID] = ins
	tx.recordChange(Change{Entity: schema.EntityInstructionTask, Action: schema.ActionCreate, After: cloneTask(t)})
	return cloneTask(t), nil
}

// UpdateInstructionTask mutates an existing task.
func (tx *transaction) UpdateInstructionTask(id string, mutator func(*InstructionTask) error) (InstructionTask, error) {
	current, ok := tx.state.tasks[id]
	if !ok {
		return InstructionTask{}, fmt.Errorf("task %q not found", id)
	}
	before := cloneTask(current)
	if err := mutator(&current); err != nil {
		return InstructionTask{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.tasks[id] = cloneTask(current)
	tx.recordChange(Change{Entity: schema.EntityInstructionTask, Action: schema.ActionUpdate, Before: before, After: cloneTask(current)})
	return cloneTask(current), nil
}

// DeleteInstructionTask removes a task and prunes it from the instruction
// order array.
func (tx *transaction) DeleteInstructionTask(id string) error {
	current, ok := tx.state.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	if ins, ok := tx.state.instructions[current.InstructionID]; ok {
		ins.TaskIDs = pruneID(ins.TaskIDs, id)
		ins.UpdatedAt = tx.now
		tx.state.instructions[ins.ID] = ins
	}
	delete(tx.state.tasks, id)
	tx.recordChange(Change{Entity: schema.EntityInstructionTask, Action: schema.ActionDelete, Before: cloneTask(current)})
	return nil
}

// pruneTaskItems drops task item slots pointing at a deleted entity.
func (tx *transaction) pruneTaskItems(kind schema.ItemKind, id string) {
	for tid, task := range tx.state.tasks {
		kept := task.Items[:0:0]
		for _, item := range task.Items {
			if item.Kind == kind && item.ID == id {
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) != len(task.Items) {
			task.Items = kept
			task.UpdatedAt = tx.now
			tx.state.tasks[tid] = task
		}
	}
}

// Signers --------------------------------------------------------------------

// CreateInstructionSigner stores a new signer and appends it to its
// instruction's order array.
func (tx *transaction) CreateInstructionSigner(s InstructionSigner) (InstructionSigner, error) {
	ins, ok := tx.state.instructions[s.InstructionID]
	if !ok {
		return InstructionSigner{}, fmt.Errorf("instruction %q not found", s.InstructionID)
	}
	if s.ID == "" {
		s.ID = tx.store.newID()
	}
	if _, exists := tx.state.signers[s.ID]; exists {
		return InstructionSigner{}, fmt.Errorf("signer %q already exists", s.ID)
	}
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.signers[s.ID] = s
	ins.SignerIDs = appendID(ins.SignerIDs, s.ID)
	ins.UpdatedAt = tx.now
	tx.state.instructions[ins.ID] = ins
	tx.recordChange(Change{Entity: schema.EntityInstructionSigner, Action: schema.ActionCreate, After: s})
	return s, nil
}

// UpdateInstructionSigner mutates an existing signer.
func (tx *transaction) UpdateInstructionSigner(id string, mutator func(*InstructionSigner) error) (InstructionSigner, error) {
	current, ok := tx.state.signers[id]
	if !ok {
		return InstructionSigner{}, fmt.Errorf("signer %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return InstructionSigner{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.signers[id] = current
	tx.recordChange(Change{Entity: schema.EntityInstructionSigner, Action: schema.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteInstructionSigner removes a signer, prunes the instruction order
// array, and drops task item slots pointing at it.
func (tx *transaction) DeleteInstructionSigner(id string) error {
	current, ok := tx.state.signers[id]
	if !ok {
		return fmt.Errorf("signer %q not found", id)
	}
	if ins, ok := tx.state.instructions[current.InstructionID]; ok {
		ins.SignerIDs = pruneID(ins.SignerIDs, id)
		ins.UpdatedAt = tx.now
		tx.state.instructions[ins.ID] = ins
	}
	tx.pruneTaskItems(schema.ItemSigner, id)
	delete(tx.state.signers, id)
	tx.recordChange(Change{Entity: schema.EntityInstructionSigner, Action: schema.ActionDelete, Before: current})
	return nil
}

// Instruction sysvars --------------------------------------------------------

// CreateInstructionSysvar stores a new instruction sysvar binding.
func (tx *transaction) CreateInstructionSysvar(v InstructionSysvar) (InstructionSysvar, error) {
	ins, ok := tx.state.instructions[v.InstructionID]
	if !ok {
		return InstructionSysvar{}, fmt.Errorf("instruction %q not found", v.InstructionID)
	}
	if v.ID == "" {
		v.ID = tx.store.newID()
	}
	if _, exists := tx.state.insSysvars[v.ID]; exists {
		return InstructionSysvar{}, fmt.Errorf("instruction sysvar %q already exists", v.ID)
	}
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	tx.state.insSysvars[v.ID] = v
	ins.SysvarIDs = appendID(ins.SysvarIDs, v.ID)
	ins.UpdatedAt = tx.now
	tx.state.instructions[ins.ID] = ins
	tx.recordChange(Change{Entity: schema.EntityInstructionSysvar, Action: schema.ActionCreate, After: v})
	return v, nil
}

// UpdateInstructionSysvar mutates an existing instruction sysvar binding.
func (tx *transaction) UpdateInstructionSysvar(id string, mutator func(*InstructionSysvar) error) (InstructionSysvar, error) {
	current, ok := tx.state.insSysvars[id]
	if !ok {
		return InstructionSysvar{}, fmt.Errorf("instruction sysvar %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return InstructionSysvar{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.insSysvars[id] = current
	tx.recordChange(Change{Entity: schema.EntityInstructionSysvar, Action: schema.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteInstructionSysvar removes a sysvar binding, prunes the instruction
// order array, and drops task item slots pointing at it.
func (tx *transaction) DeleteInstructionSysvar(id string) error {
	current, ok := tx.state.insSysvars[id]
	if !ok {
		return fmt.Errorf("instruction sysvar %q not found", id)
	}
	if ins, ok := tx.state.instructions[current.InstructionID]; ok {
		ins.SysvarIDs = pruneID(ins.SysvarIDs, id)
		ins.UpdatedAt = tx.now
		tx.state.instructions[ins.ID] = ins
	}
	tx.pruneTaskItems(schema.ItemSysvar, id)
	delete(tx.state.insSysvars, id)
	tx.recordChange(Change{Entity: schema.EntityInstructionSysvar, Action: schema.ActionDelete, Before: current})
	return nil
}

// Instruction applications ---------------------------------------------------

// CreateInstructionApplication stores a new cross-application binding.
func (tx *transaction) CreateInstructionApplication(r InstructionApplication) (InstructionApplication, error) {
	ins, ok := tx.state.instructions[r.InstructionID]
	if !ok {
		return InstructionApplication{}, fmt.Errorf("instruction %q not found", r.InstructionID)
	}
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.insApplications[r.ID]; exists {
		return InstructionApplication{}, fmt.Errorf("instruction application %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.insApplications[r.ID] = r
	ins.ApplicationRefIDs = appendID(ins.ApplicationRefIDs, r.ID)
	ins.UpdatedAt = tx.now
	tx.state.instructions[ins.ID] = ins
	tx.recordChange(Change{Entity: schema.EntityInstructionApplication, Action: schema.ActionCreate, After: r})
	return r, nil
}

// UpdateInstructionApplication mutates an existing cross-application binding.
func (tx *transaction) UpdateInstructionApplication(id string, mutator func(*InstructionApplication) error) (InstructionApplication, error) {
	current, ok := tx.state.insApplications[id]
	if !ok {
		return InstructionApplication{}, fmt.Errorf("instruction application %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return InstructionApplication{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.insApplications[id] = current
	tx.recordChange(Change{Entity: schema.EntityInstructionApplication, Action: schema.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteInstructionApplication removes a cross-application binding.
func (tx *transaction) DeleteInstructionApplication(id string) error {
	current, ok := tx.state.insApplications[id]
	if !ok {
		return fmt.Errorf("instruction application %q not found", id)
	}
	if ins, ok := tx.state.instructions[current.InstructionID]; ok {
		ins.ApplicationRefIDs = pruneID(ins.ApplicationRefIDs, id)
		ins.UpdatedAt = tx.now
		tx.state.instructions[ins.ID] = ins
	}
	tx.pruneTaskItems(schema.ItemApplication, id)
	delete(tx.state.insApplications, id)
	tx.recordChange(Change{Entity: schema.EntityInstructionApplication, Action: schema.ActionDelete, Before: current})
	return nil
}

// Sysvars --------------------------------------------------------------------

// CreateSysvar stores a new workspace sysvar catalog entry.
func (tx *transaction) CreateSysvar(v Sysvar) (Sysvar, error) {
	if v.ID == "" {
		v.ID = tx.store.newID()
	}
	if _, exists := tx.state.sysvars[v.ID]; exists {
		return Sysvar{}, fmt.Errorf("sysvar %q already exists", v.ID)
	}
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	tx.state.sysvars[v.ID] = v
	tx.recordChange(Change{Entity: schema.EntitySysvar, Action: schema.ActionCreate, After: v})
	return v, nil
}

// UpdateSysvar mutates an existing sysvar catalog entry.
func (tx *transaction) UpdateSysvar(id string, mutator func(*Sysvar) error) (Sysvar, error) {
	current, ok := tx.state.sysvars[id]
	if !ok {
		return Sysvar{}, fmt.Errorf("sysvar %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Sysvar{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.sysvars[id] = current
	tx.recordChange(Change{Entity: schema.EntitySysvar, Action: schema.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteSysvar removes a catalog entry. Instruction sysvar bindings keep their
// now-dangling SysvarID; the resolver reports them as unresolved.
func (tx *transaction) DeleteSysvar(id string) error {
	current, ok := tx.state.sysvars[id]
	if !ok {
		return fmt.Errorf("sysvar %q not found", id)
	}
	delete(tx.state.sysvars, id)
	tx.recordChange(Change{Entity: schema.EntitySysvar, Action: schema.ActionDelete, Before: current})
	return nil
}
