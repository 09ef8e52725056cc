package cli

import (
	"fmt"

	"github.com/YoshitsuguKoike/donothing/internal/application/workflow"
	"github.com/spf13/cobra"
)

func newNewCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a fresh run",
		Long: `Start a fresh run with every progress field at its default.
Progress is checkpointed to a new timestamped file after every change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			warnIfPiped(cmd)
			engine, err := workflow.New(st.def, st.options(cmd))
			if err != nil {
				return err
			}
			defer engine.Close()
			return engine.Run(cmd.Context())
		},
	}
}

func newLoadCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file_path>",
		Short: "Resume a run from a checkpoint file",
		Long: `Resume a run from a checkpoint file, starting after its latest_complete_step.
The file may be hand-edited to skip ahead or change values. It is left
untouched; progress is written to a new timestamped file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnIfPiped(cmd)
			engine, err := workflow.Load(st.def, args[0], st.options(cmd))
			if err != nil {
				return err
			}
			defer engine.Close()
			return engine.Run(cmd.Context())
		},
	}
}

func newTemplateCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Write a blank checkpoint without running any step",
		Long: `Write a checkpoint holding every default value, ready to be edited and
passed to load. No step runs and no log file is created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := workflow.WriteTemplate(st.def, st.options(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to: %s\n", path)
			return nil
		},
	}
}
