package memory

import "sort"

// The view hands out clones so rule implementations and read callbacks cannot
// mutate store state. Lists are sorted by ID for deterministic iteration.

func (v transactionView) ListApplications() []Application {
	out := make([]Application, 0, len(v.state.applications))
	for _, a := range v.state.applications {
		out = append(out, cloneApplication(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListCollections() []Collection {
	out := make([]Collection, 0, len(v.state.collections))
	for _, c := range v.state.collections {
		out = append(out, cloneCollection(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListAttributes() []Attribute {
	out := make([]Attribute, 0, len(v.state.attributes))
	for _, a := range v.state.attributes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListInstructions() []Instruction {
	out := make([]Instruction, 0, len(v.state.instructions))
	for _, i := range v.state.instructions {
		out = append(out, cloneInstruction(i))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListArguments() []Argument {
	out := make([]Argument, 0, len(v.state.arguments))
	for _, a := range v.state.arguments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListInstructionDocuments() []InstructionDocument {
	out := make([]InstructionDocument, 0, len(v.state.documents))
	for _, d := range v.state.documents {
		out = append(out, cloneDocument(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListInstructionTasks() []InstructionTask {
	out := make([]InstructionTask, 0, len(v.state.tasks))
	for _, t := range v.state.tasks {
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListInstructionSigners() []InstructionSigner {
	out := make([]InstructionSigner, 0, len(v.state.signers))
	for _, s := range v.state.signers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListInstructionSysvars() []InstructionSysvar {
	out := make([]InstructionSysvar, 0, len(v.state.insSysvars))
	for _, s := range v.state.insSysvars {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListInstructionApplications() []InstructionApplication {
	out := make([]InstructionApplication, 0, len(v.state.insApplications))
	for _, r := range v.state.insApplications {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListSysvars() []Sysvar {
	out := make([]Sysvar, 0, len(v.state.sysvars))
	for _, s := range v.state.sysvars {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) FindApplication(id string) (Application, bool) {
	a, ok := v.state.applications[id]
	if !ok {
		return Application{}, false
	}
	return cloneApplication(a), true
}

func (v transactionView) FindCollection(id string) (Collection, bool) {
	c, ok := v.state.collections[id]
	if !ok {
		return Collection{}, false
	}
	return cloneCollection(c), true
}

func (v transactionView) FindAttribute(id string) (Attribute, bool) {
	a, ok := v.state.attributes[id]
	return a, ok
}

func (v transactionView) FindInstruction(id string) (Instruction, bool) {
	i, ok := v.state.instructions[id]
	if !ok {
		return Instruction{}, false
	}
	return cloneInstruction(i), true
}

func (v transactionView) FindArgument(id string) (Argument, bool) {
	a, ok := v.state.arguments[id]
	return a, ok
}

func (v transactionView) FindInstructionDocument(id string) (InstructionDocument, bool) {
	d, ok := v.state.documents[id]
	if !ok {
		return InstructionDocument{}, false
	}
	return cloneDocument(d), true
}

func (v transactionView) FindInstructionTask(id string) (InstructionTask, bool) {
	t, ok := v.state.tasks[id]
	if !ok {
		return InstructionTask{}, false
	}
	return cloneTask(t), true
}

func (v transactionView) FindInstructionSigner(id string) (InstructionSigner, bool) {
	s, ok := v.state.signers[id]
	return s, ok
}

func (v transactionView) FindInstructionSysvar(id string) (InstructionSysvar, bool) {
	s, ok := v.state.insSysvars[id]
	return s, ok
}

func (v transactionView) FindInstructionApplication(id string) (InstructionApplication, bool) {
	r, ok := v.state.insApplications[id]
	return r, ok
}

func (v transactionView) FindSysvar(id string) (Sysvar, bool) {
	s, ok := v.state.sysvars[id]
	return s, ok
}
