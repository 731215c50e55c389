package schema

import "context"

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// RuleView provides read-only access to schema entities for rule evaluation.
type RuleView interface {
	ListApplications() []Application
	ListCollections() []Collection
	ListAttributes() []Attribute
	ListInstructions() []Instruction
	ListArguments() []Argument
	ListInstructionDocuments() []InstructionDocument
	ListInstructionTasks() []InstructionTask
	ListInstructionSigners() []InstructionSigner
	ListInstructionSysvars() []InstructionSysvar
	ListInstructionApplications() []InstructionApplication
	ListSysvars() []Sysvar
	FindApplication(id string) (Application, bool)
	FindCollection(id string) (Collection, bool)
	FindAttribute(id string) (Attribute, bool)
	FindInstruction(id string) (Instruction, bool)
	FindArgument(id string) (Argument, bool)
	FindInstructionDocument(id string) (InstructionDocument, bool)
	FindInstructionTask(id string) (InstructionTask, bool)
	FindInstructionSigner(id string) (InstructionSigner, bool)
	FindInstructionSysvar(id string) (InstructionSysvar, bool)
	FindInstructionApplication(id string) (InstructionApplication, bool)
	FindSysvar(id string) (Sysvar, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
