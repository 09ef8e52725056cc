package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
	"github.com/spf13/afero"
)

// DefaultHome is the checkpoint directory relative to the working directory
const DefaultHome = ".nothing"

// HomeEnv overrides the checkpoint directory
const HomeEnv = "NOTHING_HOME"

// stemLayout dates checkpoint and log files
const stemLayout = "20060102-150405"

// Paths holds the resolved checkpoint locations
type Paths struct {
	Home    string // checkpoint directory
	Setting string // <home>/setting.yaml
}

// ResolvePaths returns all paths based on the NOTHING_HOME environment variable
func ResolvePaths() Paths {
	home := os.Getenv(HomeEnv)
	if home == "" {
		home = DefaultHome
	}
	return PathsFor(home)
}

// PathsFor builds paths rooted at home
func PathsFor(home string) Paths {
	return Paths{
		Home:    home,
		Setting: filepath.Join(home, "setting.yaml"),
	}
}

// EnsureHome creates the checkpoint directory if missing.
// A non-directory at that path is a configuration error.
func (p Paths) EnsureHome(fs afero.Fs) error {
	info, err := fs.Stat(p.Home)
	switch {
	case err == nil && !info.IsDir():
		return progress.NewConfigurationError(fmt.Sprintf("%s exists but is not a directory", p.Home), nil)
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return progress.NewConfigurationError(fmt.Sprintf("cannot inspect %s", p.Home), err)
	}

	if err := fs.MkdirAll(p.Home, 0o755); err != nil {
		return progress.NewConfigurationError(fmt.Sprintf("cannot create %s", p.Home), err)
	}
	return nil
}

// FileStem returns the date-stamped stem shared by a run's checkpoint and log
func (p Paths) FileStem(workflowName string, now time.Time) string {
	return filepath.Join(p.Home, fmt.Sprintf("%s_%s", workflowName, now.Format(stemLayout)))
}

// CheckpointPath returns the checkpoint file for a stem
func CheckpointPath(stem string) string {
	return stem + ".json"
}

// LogPath returns the log file for a stem
func LogPath(stem string) string {
	return stem + ".log"
}

// TemplatePath returns the blank checkpoint written by the template command
func (p Paths) TemplatePath(workflowName string) string {
	return filepath.Join(p.Home, workflowName+"_template.json")
}
