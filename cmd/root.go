package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-vsfs/internal/disk"
	"github.com/deploymenttheory/go-vsfs/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string

	// Populated before any subcommand runs
	cfg    *disk.Config
	appCtx *app.Context
)

var rootCmd = &cobra.Command{
	Use:   "vsfs",
	Short: "Format, inspect and mount vsfs images",
	Long: `vsfs is a tiny single-directory file system stored in a fixed-size image
file. Images are created and formatted with mkfs, served through FUSE with
mount, and can be read and modified directly with the file commands.

Commands:
  mkfs        Format an image
  mount       Mount an image with FUSE
  stat        Show volume or file attributes
  ls          List the root directory
  check       Verify image consistency
  cat, put    Copy file contents out of and into an image
  rm, touch   Remove or touch files
  truncate    Resize a file
  config      Show the effective configuration`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: search for vsfs-config.yaml)")
}

// setup loads the configuration and builds the application context.
// Flags given on the command line win over configured values.
func setup(cmd *cobra.Command, args []string) error {
	v := disk.NewConfigLoader()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	loaded, err := disk.LoadConfig(v)
	if err != nil {
		return err
	}
	cfg = loaded

	appCtx = app.NewContext()
	appCtx.Out = cmd.OutOrStdout()
	appCtx.Log.SetOutput(cmd.ErrOrStderr())
	appCtx.Verbose = verbose
	appCtx.Quiet = quiet
	appCtx.OutputFormat = cfg.Output
	if cmd.Flags().Changed("output") {
		appCtx.OutputFormat = outputFormat
	}
	return appCtx.ConfigureLogging(cfg.LogLevel)
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}
