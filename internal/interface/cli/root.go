package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/YoshitsuguKoike/donothing/internal/app"
	"github.com/YoshitsuguKoike/donothing/internal/app/config"
	"github.com/YoshitsuguKoike/donothing/internal/application/workflow"
	infraConfig "github.com/YoshitsuguKoike/donothing/internal/infra/config"
	"github.com/YoshitsuguKoike/donothing/internal/interface/cli/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isInteractive reports whether prompts will be answered from a terminal
var isInteractive = func(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// rootState is shared by the subcommands of one root command
type rootState struct {
	def workflow.Definition
	fs  afero.Fs
	now func() time.Time
	cfg config.Config
}

// NewRoot builds the command line for one workflow definition
func NewRoot(def workflow.Definition) *cobra.Command {
	return newRoot(def, afero.NewOsFs(), time.Now)
}

func newRoot(def workflow.Definition, fs afero.Fs, now func() time.Time) *cobra.Command {
	st := &rootState{def: def, fs: fs, now: now}

	cmd := &cobra.Command{
		Use:          "donothing",
		Short:        def.Description(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load configuration before any command runs
			// Priority: setting.yaml > defaults
			cfg, err := infraConfig.LoadSettings(st.fs, app.ResolvePaths().Home)
			if err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.AddCommand(newNewCmd(st))
	cmd.AddCommand(newLoadCmd(st))
	cmd.AddCommand(newTemplateCmd(st))
	cmd.AddCommand(version.NewCommand())
	return cmd
}

// options wires the loaded configuration and the command's streams into an engine
func (st *rootState) options(cmd *cobra.Command) workflow.Options {
	return workflow.Options{
		Fs:           st.fs,
		Paths:        app.PathsFor(st.cfg.Home()),
		Console:      workflow.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), st.cfg.PrintPause(), st.cfg.WarnPause()),
		ConsoleOut:   cmd.OutOrStdout(),
		ConsoleLevel: app.LogLevelFromString(st.cfg.ConsoleLevel()),
		FileLevel:    app.LogLevelFromString(st.cfg.FileLevel()),
		Now:          st.now,
	}
}

func warnIfPiped(cmd *cobra.Command) {
	if !isInteractive(cmd.InOrStdin()) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: stdin is not a terminal; prompts will read piped input")
	}
}
