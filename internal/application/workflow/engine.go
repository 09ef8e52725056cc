package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YoshitsuguKoike/donothing/internal/app"
	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
	"github.com/YoshitsuguKoike/donothing/internal/infra/persistence/checkpoint"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

// ErrDryRun is returned when running an engine built only to write a template
var ErrDryRun = errors.New("workflow: dry-run engine cannot run steps")

// StepError reports a step that failed; its index was not marked complete
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Name, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Options configures engine construction
type Options struct {
	Fs           afero.Fs
	Paths        app.Paths
	Console      *Console
	ConsoleOut   io.Writer // console log lines
	ConsoleLevel app.LogLevel
	FileLevel    app.LogLevel
	Now          func() time.Time
}

// DefaultOptions uses the OS filesystem, the process streams and NOTHING_HOME
func DefaultOptions() Options {
	return Options{
		Fs:           afero.NewOsFs(),
		Paths:        app.ResolvePaths(),
		Console:      StdConsole(),
		ConsoleOut:   os.Stdout,
		ConsoleLevel: app.LogLevelInfo,
		FileLevel:    app.LogLevelDebug,
		Now:          time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Paths.Home == "" {
		o.Paths = app.ResolvePaths()
	}
	if o.Console == nil {
		o.Console = StdConsole()
	}
	if o.ConsoleOut == nil {
		o.ConsoleOut = os.Stdout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// runtime holds run-time handles; none of it is ever persisted
type runtime struct {
	dryRun   bool
	ready    bool
	filePath string
	logFile  afero.File
	runID    ulid.ULID
}

// Engine drives a workflow's steps and checkpoints every tracked mutation
type Engine struct {
	def      Definition
	steps    []Step
	comments checkpoint.Comments
	snapshot *progress.Snapshot
	store    *checkpoint.Store
	console  *Console
	logger   app.Logger
	rt       runtime
}

// New starts a fresh run with every field at its declared default
func New(def Definition, opts Options) (*Engine, error) {
	if err := validateDefinition(def); err != nil {
		return nil, err
	}
	return start(def, def.Schema().Defaults(), opts, "")
}

// Load starts a run from a saved checkpoint, typically one edited by hand.
// Progress is written to a new checkpoint; the loaded file is left untouched.
func Load(def Definition, path string, opts Options) (*Engine, error) {
	if err := validateDefinition(def); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	snap, err := checkpoint.NewStore(opts.Fs, nil).Load(path, def.Schema())
	if err != nil {
		return nil, err
	}
	return start(def, snap, opts, path)
}

// NewDry builds an engine that never saves on mutation and cannot run.
// Only an explicit Save writes its template checkpoint.
func NewDry(def Definition, opts Options) (*Engine, error) {
	if err := validateDefinition(def); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if err := opts.Paths.EnsureHome(opts.Fs); err != nil {
		return nil, err
	}

	logger := app.NewRunLogger(app.ConsoleSink(opts.ConsoleOut, app.LogLevelWarn))
	logger.SetClock(opts.Now)
	e := newEngine(def, def.Schema().Defaults(), opts, logger)
	e.rt.dryRun = true
	e.rt.filePath = opts.Paths.TemplatePath(def.Name())
	e.rt.ready = true
	return e, nil
}

// WriteTemplate saves a blank, editable checkpoint without running any step
func WriteTemplate(def Definition, opts Options) (string, error) {
	e, err := NewDry(def, opts)
	if err != nil {
		return "", err
	}
	if err := e.Save(); err != nil {
		return "", err
	}
	return e.FilePath(), nil
}

func newEngine(def Definition, snap *progress.Snapshot, opts Options, logger app.Logger) *Engine {
	steps := def.Steps()
	return &Engine{
		def:      def,
		steps:    steps,
		comments: checkpoint.NewComments(def.Name(), stepNames(steps)),
		snapshot: snap,
		store:    checkpoint.NewStore(opts.Fs, logger),
		console:  opts.Console,
		logger:   logger,
		rt: runtime{
			runID: ulid.MustNew(ulid.Timestamp(opts.Now()), ulid.Monotonic(rand.Reader, 0)),
		},
	}
}

// start acquires the log sink and checkpoint path, then persists the initial snapshot
func start(def Definition, snap *progress.Snapshot, opts Options, origin string) (*Engine, error) {
	opts = opts.withDefaults()
	if err := opts.Paths.EnsureHome(opts.Fs); err != nil {
		return nil, err
	}

	stem := opts.Paths.FileStem(def.Name(), opts.Now())
	logFile, err := opts.Fs.OpenFile(app.LogPath(stem), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := app.NewRunLogger(
		app.FileSink(logFile, opts.FileLevel),
		app.ConsoleSink(opts.ConsoleOut, opts.ConsoleLevel),
	)
	logger.SetClock(opts.Now)
	e := newEngine(def, snap, opts, logger)
	e.rt.logFile = logFile
	e.rt.filePath = app.CheckpointPath(stem)
	e.rt.ready = true

	e.logger.Info("Run %s of %s started", e.rt.runID, def.Name())
	if origin != "" {
		e.logger.Info("Loaded progress from: %s (latest complete step %d)", origin, snap.LatestCompleteStep())
	}
	e.logger.Info("Progress will be saved to: %s", e.rt.filePath)

	if err := e.Save(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Save checkpoints the current snapshot and verifies the file reloads
func (e *Engine) Save() error {
	if !e.rt.ready {
		return fmt.Errorf("workflow %s: cannot save before the checkpoint path is set", e.def.Name())
	}
	return e.store.Save(e.rt.filePath, e.snapshot, e.comments)
}

// Set updates a progress field and checkpoints it before returning.
// Dry engines and engines still under construction only update memory.
func (e *Engine) Set(name string, value any) error {
	if _, err := e.snapshot.Set(name, value); err != nil {
		return err
	}
	if e.rt.dryRun || !e.rt.ready {
		return nil
	}
	return e.Save()
}

// Run executes the steps after latest_complete_step in order.
// The context is checked between steps; a running step is never interrupted.
func (e *Engine) Run(ctx context.Context) error {
	if e.rt.dryRun {
		return ErrDryRun
	}

	// compare before adding one; a hand-edited pointer may be near MaxInt
	latest := e.snapshot.LatestCompleteStep()
	if latest >= len(e.steps) {
		e.logger.Warn("Latest complete step %d is beyond the last step %d", latest, len(e.steps)-1)
		e.logger.Info("*** WORKFLOW COMPLETE ***")
		return nil
	}

	for i := latest + 1; i < len(e.steps); i++ {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("Workflow stopped before step %d: %v", i, err)
			return err
		}

		step := e.steps[i]
		name := stepName(step, i)
		before := e.snapshot.Clone()

		e.Print("")
		e.logger.Info("*** STEP %d STARTING ***", i)
		e.logger.Debug("Step %d is %s", i, name)
		if err := step.Run(e); err != nil {
			e.logger.Error("*** STEP %d FAILED *** %v", i, err)
			if key, equal := before.Diff(e.snapshot); !equal {
				e.logger.Warn("Step %d changed %q before failing; the saved value is kept but the step runs again on resume", i, key)
			}
			return &StepError{Index: i, Name: name, Err: err}
		}
		e.logger.Info("*** STEP %d COMPLETE ***", i)

		if err := e.Set(progress.LatestCompleteStepKey, i); err != nil {
			return err
		}
	}

	e.logger.Info("*** WORKFLOW COMPLETE ***")
	return nil
}

// Close releases the log sink
func (e *Engine) Close() error {
	if e.rt.logFile == nil {
		return nil
	}
	err := e.rt.logFile.Close()
	e.rt.logFile = nil
	return err
}

// Value returns a copy of the current value of a progress field.
// Lists are []any and objects map[string]any; nested numbers are int64 when
// integral and float64 otherwise, for fresh and loaded runs alike. Changing
// the copy has no effect; call Set to record a new value.
func (e *Engine) Value(name string) (any, bool) {
	return e.snapshot.Get(name)
}

// IntValue returns an int field, or 0 when unset or null
func (e *Engine) IntValue(name string) int64 {
	v, _ := e.snapshot.Get(name)
	n, _ := v.(int64)
	return n
}

// FloatValue returns a float field, or 0 when unset or null
func (e *Engine) FloatValue(name string) float64 {
	v, _ := e.snapshot.Get(name)
	f, _ := v.(float64)
	return f
}

// StringValue returns a string field, or "" when unset or null
func (e *Engine) StringValue(name string) string {
	v, _ := e.snapshot.Get(name)
	s, _ := v.(string)
	return s
}

// BoolValue returns a bool field, or false when unset or null
func (e *Engine) BoolValue(name string) bool {
	v, _ := e.snapshot.Get(name)
	b, _ := v.(bool)
	return b
}

// IsNull reports whether a field holds null
func (e *Engine) IsNull(name string) bool {
	v, ok := e.snapshot.Get(name)
	return ok && v == nil
}

// Print shows a paced message
func (e *Engine) Print(message string) {
	e.console.Print(message)
}

// ReportProblem writes a paced message to the error stream
func (e *Engine) ReportProblem(message string) {
	e.console.Warn(message)
}

// Input asks the user for one line of input
func (e *Engine) Input(message, hint string) (string, error) {
	return e.console.Input(message, hint)
}

// WaitForDone blocks until the user confirms the manual action is complete
func (e *Engine) WaitForDone(message string) error {
	return e.console.WaitForDone(message)
}

// SetValueFromInput prompts until parse accepts the input or the user
// presses enter to keep the current non-null value, then sets the field.
// A nil parse keeps the raw input.
func (e *Engine) SetValueFromInput(key, message, hint string, parse ParseFunc) error {
	current, ok := e.snapshot.Get(key)
	if !ok {
		return fmt.Errorf("unknown progress field %q", key)
	}
	if parse == nil {
		parse = func(input string) (any, bool) { return input, true }
	}

	finalHint := hint
	if current != nil {
		finalHint = fmt.Sprintf("%s\nOR input nothing for `%v`", hint, current)
	}

	for {
		input, err := e.console.Input(message, finalHint)
		if err != nil {
			return err
		}
		if input == "" {
			if current != nil {
				return e.Set(key, current)
			}
			continue
		}
		if value, ok := parse(input); ok {
			return e.Set(key, value)
		}
		e.logger.Debug("Rejected input %q for %s", input, key)
	}
}

// FilePath is the checkpoint this engine writes
func (e *Engine) FilePath() string {
	return e.rt.filePath
}

// RunID identifies this run in the log
func (e *Engine) RunID() string {
	return e.rt.runID.String()
}

// LatestCompleteStep returns the resume pointer
func (e *Engine) LatestCompleteStep() int {
	return e.snapshot.LatestCompleteStep()
}

// Snapshot returns a copy of the current progress
func (e *Engine) Snapshot() *progress.Snapshot {
	return e.snapshot.Clone()
}

// Definition returns the workflow being run
func (e *Engine) Definition() Definition {
	return e.def
}

// Logger returns the run logger for step authors
func (e *Engine) Logger() app.Logger {
	return e.logger
}

// DryRun reports whether the engine only writes a template
func (e *Engine) DryRun() bool {
	return e.rt.dryRun
}
