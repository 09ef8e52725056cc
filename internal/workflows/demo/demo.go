// Package demo is a minimal do-nothing workflow exercising an automatic
// step and a prompted step.
package demo

import (
	"time"

	"github.com/YoshitsuguKoike/donothing/internal/application/workflow"
	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
)

const (
	Var1 = "var_1"
	Var2 = "var_2"
)

var schema = progress.MustSchema(
	progress.Int(Var1, 0),
	progress.String(Var2, "").OrNull(),
)

// Demo records the day of the month and a user choice
type Demo struct {
	now func() time.Time
}

// New returns the demo workflow using the wall clock
func New() *Demo {
	return &Demo{now: time.Now}
}

// NewWithClock returns the demo workflow reading the day from now
func NewWithClock(now func() time.Time) *Demo {
	return &Demo{now: now}
}

func (d *Demo) Name() string             { return "Demo" }
func (d *Demo) Description() string      { return "Demo workflow for donothing" }
func (d *Demo) Schema() *progress.Schema { return schema }

func (d *Demo) Steps() []workflow.Step {
	return []workflow.Step{
		{Name: "set_var_1", Run: d.setVar1},
		{Name: "set_var_2", Run: d.setVar2},
	}
}

func (d *Demo) setVar1(e *workflow.Engine) error {
	return e.Set(Var1, d.now().Day())
}

func (d *Demo) setVar2(e *workflow.Engine) error {
	return e.SetValueFromInput(Var2, "Input a string", "Either A or B or C", workflow.OneOf("A", "B", "C"))
}
