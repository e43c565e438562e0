package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/canonical/go-xdp/shared/logger"
	"github.com/canonical/go-xdp/shared/version"
)

type cmdGlobal struct {
	flagHelp    bool
	flagVersion bool
	flagVerbose bool
	flagDebug   bool
}

func main() {
	app := &cobra.Command{}
	app.Use = "xdp-loader"
	app.Short = "XDP program loader"
	app.Long = `Description:
  XDP program loader

  This tool installs, removes and inspects XDP programs on network
  interfaces. Multiple programs on one interface are composed into a
  dispatcher chain ordered by the programs' declared run priority.
`
	app.SilenceUsage = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	// Global flags
	globalCmd := cmdGlobal{}
	app.PersistentFlags().BoolVar(&globalCmd.flagVersion, "version", false, "Print version number")
	app.PersistentFlags().BoolVarP(&globalCmd.flagHelp, "help", "h", false, "Print help")
	app.PersistentFlags().BoolVarP(&globalCmd.flagVerbose, "verbose", "v", false, "Show all information messages")
	app.PersistentFlags().BoolVarP(&globalCmd.flagDebug, "debug", "d", false, "Show all debug messages")

	app.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.InitLogger(globalCmd.flagVerbose, globalCmd.flagDebug)
	}

	// load sub-command
	loadCmd := cmdLoad{global: &globalCmd}
	app.AddCommand(loadCmd.Command())

	// unload sub-command
	unloadCmd := cmdUnload{global: &globalCmd}
	app.AddCommand(unloadCmd.Command())

	// status sub-command
	statusCmd := cmdStatus{global: &globalCmd}
	app.AddCommand(statusCmd.Command())

	// version sub-command
	versionCmd := cmdVersion{global: &globalCmd}
	app.AddCommand(versionCmd.Command())

	// Version handling
	app.SetVersionTemplate("{{.Version}}\n")
	app.Version = version.Version

	// Run the main command and handle errors
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
