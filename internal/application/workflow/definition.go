package workflow

import (
	"fmt"

	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
)

// StepFunc performs one unit of work, recording progress through the engine
type StepFunc func(e *Engine) error

// Step is one entry of a workflow's step sequence
type Step struct {
	Name string
	Run  StepFunc
}

// Definition is implemented by every concrete do-nothing workflow
type Definition interface {
	// Name identifies the workflow type in file names and comments
	Name() string
	// Description is shown by the command-line interface
	Description() string
	// Schema declares the progress fields and their defaults
	Schema() *progress.Schema
	// Steps returns the ordered step sequence
	Steps() []Step
}

// Static is a Definition assembled from plain values
type Static struct {
	WorkflowName string
	Desc         string
	Fields       *progress.Schema
	Sequence     []Step
}

func (s *Static) Name() string             { return s.WorkflowName }
func (s *Static) Description() string      { return s.Desc }
func (s *Static) Schema() *progress.Schema { return s.Fields }
func (s *Static) Steps() []Step            { return s.Sequence }

// stepName labels unnamed steps by position
func stepName(step Step, index int) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("step_%d", index)
}

// stepNames lists the labels of a step sequence
func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = stepName(s, i)
	}
	return names
}

// validateDefinition checks a definition is usable before any state is created
func validateDefinition(def Definition) error {
	if def == nil {
		return fmt.Errorf("workflow: definition is nil")
	}
	if def.Name() == "" {
		return fmt.Errorf("workflow: name is required")
	}
	if def.Schema() == nil {
		return fmt.Errorf("workflow %s: schema is required", def.Name())
	}
	for i, s := range def.Steps() {
		if s.Run == nil {
			return fmt.Errorf("workflow %s: step %d (%s) has no function", def.Name(), i, stepName(s, i))
		}
	}
	return nil
}
