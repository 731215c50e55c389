package core

// The composer joins flat entity snapshots into nested read-only view trees.
// Composition is a pure function of the snapshot and load state: inputs are
// never mutated and the same snapshot always yields a structurally identical
// tree, so recomputing after every store change is safe.

// LoadState tracks which entity kinds have finished their initial load. A
// kind that has never been marked loaded withholds any view it contributes
// to; "not yet loaded" is distinct from "loaded empty".
type LoadState struct {
	loaded map[EntityType]bool
}

// NewLoadState starts with every kind unloaded.
func NewLoadState() LoadState {
	return LoadState{loaded: make(map[EntityType]bool)}
}

// AllLoaded reports every kind as loaded, for fully hydrated stores.
func AllLoaded() LoadState {
	state := NewLoadState()
	for _, kind := range []EntityType{
		EntityApplication, EntityCollection, EntityAttribute, EntityInstruction,
		EntityArgument, EntityInstructionDocument, EntityInstructionTask,
		EntityInstructionSigner, EntityInstructionSysvar,
		EntityInstructionApplication, EntitySysvar,
	} {
		state.loaded[kind] = true
	}
	return state
}

// MarkLoaded records that the given kinds finished loading.
func (s LoadState) MarkLoaded(kinds ...EntityType) LoadState {
	out := LoadState{loaded: make(map[EntityType]bool, len(s.loaded)+len(kinds))}
	for kind, ok := range s.loaded {
		out.loaded[kind] = ok
	}
	for _, kind := range kinds {
		out.loaded[kind] = true
	}
	return out
}

// Loaded reports whether every given kind finished loading.
func (s LoadState) Loaded(kinds ...EntityType) bool {
	for _, kind := range kinds {
		if !s.loaded[kind] {
			return false
		}
	}
	return true
}

// CollectionView is a collection joined with its ordered attributes.
type CollectionView struct {
	Collection Collection  `json:"collection"`
	Attributes []Attribute `json:"attributes"`
}

// DocumentView is a document joined with its collection shape and resolved
// seed, bump, and payer references.
type DocumentView struct {
	Document   InstructionDocument `json:"document"`
	Collection *Collection         `json:"collection,omitempty"`
	Attributes []Attribute         `json:"attributes,omitempty"`
	Seeds      []ResolvedReference `json:"seeds"`
	Bump       ResolvedReference   `json:"bump"`
	Payer      ResolvedReference   `json:"payer"`
}

// TaskItemView is one task slot with its live display name. Resolved is false
// when the slot points at an item that no longer exists in the instruction.
type TaskItemView struct {
	Item     ItemReference `json:"item"`
	Resolved bool          `json:"resolved"`
	Name     string        `json:"name,omitempty"`
}

// TaskView is a task joined with its resolved item slots.
type TaskView struct {
	Task  InstructionTask `json:"task"`
	Items []TaskItemView  `json:"items"`
}

// SysvarBindingView joins an instruction sysvar binding with its catalog entry.
type SysvarBindingView struct {
	Binding InstructionSysvar `json:"binding"`
	Sysvar  *Sysvar           `json:"sysvar,omitempty"`
}

// InstructionView is an instruction joined with everything it owns, in order.
type InstructionView struct {
	Instruction  Instruction              `json:"instruction"`
	Arguments    []Argument               `json:"arguments"`
	Documents    []DocumentView           `json:"documents"`
	Tasks        []TaskView               `json:"tasks"`
	Signers      []InstructionSigner      `json:"signers"`
	Sysvars      []SysvarBindingView      `json:"sysvars"`
	Applications []InstructionApplication `json:"applications"`
}

// ApplicationView is an application joined with its ordered collections,
// fully composed instructions, and the sysvar catalog of its workspace.
type ApplicationView struct {
	Application  Application       `json:"application"`
	Collections  []CollectionView  `json:"collections"`
	Instructions []InstructionView `json:"instructions"`
	Sysvars      []Sysvar          `json:"sysvars"`
}

// WorkspaceView groups every application of a workspace with the workspace
// sysvar catalog.
type WorkspaceView struct {
	WorkspaceID  string            `json:"workspace_id"`
	Applications []ApplicationView `json:"applications"`
	Sysvars      []Sysvar          `json:"sysvars"`
}

// instructionKinds are the entity kinds an instruction view joins against.
var instructionKinds = []EntityType{
	EntityInstruction, EntityArgument, EntityInstructionDocument,
	EntityInstructionTask, EntityInstructionSigner, EntityInstructionSysvar,
	EntityInstructionApplication, EntityCollection, EntityAttribute, EntitySysvar,
}

// applicationKinds are the entity kinds an application view joins against.
var applicationKinds = append([]EntityType{EntityApplication}, instructionKinds...)

// ComposeInstruction builds the joined view of one instruction. It returns
// (nil, false) when any contributing kind has not loaded yet or the
// instruction does not exist.
func ComposeInstruction(view TransactionView, state LoadState, instructionID string) (*InstructionView, bool) {
	if !state.Loaded(instructionKinds...) {
		return nil, false
	}
	instruction, ok := view.FindInstruction(instructionID)
	if !ok {
		return nil, false
	}
	return composeInstruction(view, instruction), true
}

func composeInstruction(view TransactionView, instruction Instruction) *InstructionView {
	scope, err := NewScope(view, instruction.ID)
	if err != nil {
		return &InstructionView{Instruction: instruction}
	}

	out := &InstructionView{Instruction: instruction}
	out.Arguments = append(out.Arguments, scope.arguments...)

	for _, doc := range scope.documents {
		dv := DocumentView{Document: doc}
		if col, ok := scope.collections[doc.CollectionID]; ok {
			c := col
			dv.Collection = &c
			for _, attrID := range col.AttributeIDs {
				if attr, ok := scope.attributes[attrID]; ok {
					dv.Attributes = append(dv.Attributes, attr)
				}
			}
		}
		for _, seed := range doc.Seeds {
			dv.Seeds = append(dv.Seeds, scope.Resolve(seed))
		}
		dv.Bump = scope.Resolve(doc.Bump)
		dv.Payer = scope.Resolve(doc.Payer)
		out.Documents = append(out.Documents, dv)
	}

	signersByID := make(map[string]InstructionSigner)
	for _, id := range instruction.SignerIDs {
		if signer, ok := view.FindInstructionSigner(id); ok {
			out.Signers = append(out.Signers, signer)
			signersByID[id] = signer
		}
	}
	sysvarsByID := make(map[string]InstructionSysvar)
	for _, id := range instruction.SysvarIDs {
		binding, ok := view.FindInstructionSysvar(id)
		if !ok {
			continue
		}
		sysvarsByID[id] = binding
		bv := SysvarBindingView{Binding: binding}
		if catalog, ok := view.FindSysvar(binding.SysvarID); ok {
			c := catalog
			bv.Sysvar = &c
		}
		out.Sysvars = append(out.Sysvars, bv)
	}
	applicationsByID := make(map[string]InstructionApplication)
	for _, id := range instruction.ApplicationRefIDs {
		if ref, ok := view.FindInstructionApplication(id); ok {
			out.Applications = append(out.Applications, ref)
			applicationsByID[id] = ref
		}
	}

	for _, id := range instruction.TaskIDs {
		task, ok := view.FindInstructionTask(id)
		if !ok {
			continue
		}
		tv := TaskView{Task: task}
		for _, item := range task.Items {
			tv.Items = append(tv.Items, resolveTaskItem(item, scope, signersByID, sysvarsByID, applicationsByID))
		}
		out.Tasks = append(out.Tasks, tv)
	}
	return out
}

func resolveTaskItem(
	item ItemReference,
	scope Scope,
	signers map[string]InstructionSigner,
	sysvars map[string]InstructionSysvar,
	applications map[string]InstructionApplication,
) TaskItemView {
	out := TaskItemView{Item: item}
	switch item.Kind {
	case ItemDocument:
		if doc, ok := scope.documentsByID[item.ID]; ok {
			out.Resolved = true
			out.Name = doc.Name
		}
	case ItemSigner:
		if signer, ok := signers[item.ID]; ok {
			out.Resolved = true
			out.Name = signer.Name
		}
	case ItemSysvar:
		if binding, ok := sysvars[item.ID]; ok {
			out.Resolved = true
			out.Name = binding.Name
		}
	case ItemApplication:
		if ref, ok := applications[item.ID]; ok {
			out.Resolved = true
			out.Name = ref.Name
		}
	case ItemArgumentSource:
		if arg, ok := scope.argumentsByID[item.ID]; ok {
			out.Resolved = true
			out.Name = arg.Name
		}
	}
	return out
}

// ComposeApplication builds the joined view of one application. It returns
// (nil, false) when any contributing kind has not loaded yet or the
// application does not exist.
func ComposeApplication(view TransactionView, state LoadState, applicationID string) (*ApplicationView, bool) {
	if !state.Loaded(applicationKinds...) {
		return nil, false
	}
	application, ok := view.FindApplication(applicationID)
	if !ok {
		return nil, false
	}
	return composeApplication(view, application), true
}

func composeApplication(view TransactionView, application Application) *ApplicationView {
	out := &ApplicationView{Application: application}
	for _, id := range application.CollectionIDs {
		col, ok := view.FindCollection(id)
		if !ok {
			continue
		}
		cv := CollectionView{Collection: col}
		for _, attrID := range col.AttributeIDs {
			if attr, ok := view.FindAttribute(attrID); ok {
				cv.Attributes = append(cv.Attributes, attr)
			}
		}
		out.Collections = append(out.Collections, cv)
	}
	for _, id := range application.InstructionIDs {
		instruction, ok := view.FindInstruction(id)
		if !ok {
			continue
		}
		out.Instructions = append(out.Instructions, *composeInstruction(view, instruction))
	}
	// The sysvar catalog is workspace-global; every application of the
	// workspace sees the same catalog in its composed view.
	for _, sysvar := range view.ListSysvars() {
		if sysvar.WorkspaceID == application.WorkspaceID {
			out.Sysvars = append(out.Sysvars, sysvar)
		}
	}
	return out
}

// ComposeWorkspace builds views for every application of a workspace plus the
// workspace sysvar catalog. It returns (nil, false) when any contributing
// kind has not loaded yet.
func ComposeWorkspace(view TransactionView, state LoadState, workspaceID string) (*WorkspaceView, bool) {
	if !state.Loaded(applicationKinds...) {
		return nil, false
	}
	out := &WorkspaceView{WorkspaceID: workspaceID}
	for _, application := range view.ListApplications() {
		if application.WorkspaceID != workspaceID {
			continue
		}
		out.Applications = append(out.Applications, *composeApplication(view, application))
	}
	for _, sysvar := range view.ListSysvars() {
		if sysvar.WorkspaceID == workspaceID {
			out.Sysvars = append(out.Sysvars, sysvar)
		}
	}
	return out, true
}
