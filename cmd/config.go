package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vsfs/internal/disk"
)

// configView renders the effective configuration
type configView struct {
	disk.Config `yaml:",inline"`
}

func (c configView) WriteTable(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "default_inodes:\t%d\n", c.DefaultInodes)
	fmt.Fprintf(w, "lock_image:\t%t\n", c.LockImage)
	fmt.Fprintf(w, "log_level:\t%s\n", c.LogLevel)
	fmt.Fprintf(w, "mount_debug:\t%t\n", c.MountDebug)
	fmt.Fprintf(w, "allow_other:\t%t\n", c.AllowOther)
	fmt.Fprintf(w, "output:\t%s\n", c.Output)
	return w.Flush()
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging defaults, vsfs-config.yaml and
VSFS_* environment variables.`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return appCtx.Render(configView{*cfg})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
