package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "multibox",
		Short: "Coordinate several game clients through their memory",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "multibox.yaml", "settings file")
	root.AddCommand(runCmd())
	root.AddCommand(offsetsCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
