package version

import (
	"fmt"
	"runtime"

	"github.com/YoshitsuguKoike/donothing/internal/buildinfo"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version, build information, and runtime details",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "donothing version %s\n", buildinfo.GetVersion())
			fmt.Fprintf(out, "  Commit:        %s\n", buildinfo.GetCommit())
			if buildinfo.BuildDate != "" {
				fmt.Fprintf(out, "  Built:         %s\n", buildinfo.BuildDate)
			}
			fmt.Fprintf(out, "  Go version:    %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
