// Package checkpoint persists workflow progress snapshots as editable JSON files.
package checkpoint

import (
	"encoding/json"
	"fmt"

	"github.com/YoshitsuguKoike/donothing/internal/app"
	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
	"github.com/YoshitsuguKoike/donothing/internal/infra/persistence/file"
	"github.com/spf13/afero"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Comments are stored in a checkpoint but never loaded.
// Each entry is one multi-line block, kept as []string to stay JSON-friendly.
type Comments [][]string

// NewComments describes the checkpoint file and lists the step names by index
func NewComments(workflowName string, stepNames []string) Comments {
	steps := make([]string, 0, len(stepNames)+1)
	steps = append(steps, "Step names:")
	for i, name := range stepNames {
		steps = append(steps, fmt.Sprintf("%d: %s", i, name))
	}
	return Comments{
		{
			fmt.Sprintf("This file stores the progress of the %s do-nothing workflow.", workflowName),
			"It can be loaded to resume progress, and edited to resume from",
			"an alternative step or use alternative values.",
		},
		steps,
	}
}

// Store reads and writes checkpoint files
type Store struct {
	fs     afero.Fs
	logger app.Logger
}

// NewStore creates a store over fs; a nil logger discards diagnostics
func NewStore(fs afero.Fs, logger app.Logger) *Store {
	if logger == nil {
		logger = app.NopLogger{}
	}
	return &Store{fs: fs, logger: logger}
}

// Encode renders comments followed by the snapshot fields as indented JSON
func Encode(snap *progress.Snapshot, comments Comments) ([]byte, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = Comments{}
	}

	doc := orderedmap.New[string, any]()
	doc.Set(progress.CommentsKey, comments)
	snap.Each(func(name string, value any) {
		doc.Set(name, value)
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, progress.NewSerializationError("", "failed to encode checkpoint", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a checkpoint document against schema, ignoring comments
func Decode(data []byte, schema *progress.Schema) (*progress.Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, progress.NewDeserializationError("", "invalid JSON format", err)
	}
	if raw == nil {
		return nil, progress.NewDeserializationError("", "checkpoint must be a JSON object", nil)
	}
	delete(raw, progress.CommentsKey)
	return schema.Decode(raw)
}

// Load reads a checkpoint file
func (s *Store) Load(path string, schema *progress.Schema) (*progress.Snapshot, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, progress.NewDeserializationError("", fmt.Sprintf("failed to read checkpoint %s", path), err)
	}
	snap, err := Decode(data, schema)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return snap, nil
}

// Save writes snap to path, overwriting any previous checkpoint, and then
// proves the written file reloads to the same values.
func (s *Store) Save(path string, snap *progress.Snapshot, comments Comments) error {
	s.logger.Debug("Saving state: %s", snap)

	data, err := Encode(snap, comments)
	if err != nil {
		return s.fail(path, err)
	}

	// Reject content that could not be loaded before replacing the previous checkpoint
	if _, err := Decode(data, snap.Schema()); err != nil {
		return s.fail(path, err)
	}

	if err := file.WriteFileAtomic(s.fs, path, data, 0o644); err != nil {
		return s.fail(path, err)
	}
	s.logger.Debug("Save complete.")

	if err := s.verify(path, snap); err != nil {
		return s.fail(path, err)
	}
	return nil
}

// verify loads path back and compares it with snap
func (s *Store) verify(path string, snap *progress.Snapshot) error {
	reloaded, err := s.Load(path, snap.Schema())
	if err != nil {
		return err
	}
	if key, equal := snap.Diff(reloaded); !equal {
		return progress.NewSerializationError(key, "reloaded value differs from saved value", nil)
	}
	return nil
}

func (s *Store) fail(path string, cause error) error {
	message := fmt.Sprintf("progress saves to an unloadable file %s - exception below:\n\n%v", path, cause)
	s.logger.Error("%s", message)
	if progress.IsSerialization(cause) {
		return cause
	}
	return progress.NewSerializationError("", fmt.Sprintf("checkpoint %s is not reloadable", path), cause)
}
