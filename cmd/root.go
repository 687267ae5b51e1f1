package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/structwire/structwire/cmd/bench"
	"github.com/structwire/structwire/cmd/util"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "structwire",
		Short: "schema-compiled binary serialization",
		Long: fmt.Sprintf(`structwire (v%s)

A binary serialization library for Go that compiles declared object
schemas into dedicated codec functions, encoding nullable members
through a packed presence bit-mask.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of structwire",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("structwire v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "encoder"
	RootCmd.PersistentFlags().String(key, "msgpack", util.WrapString("baseline encoder to compare against (json, gob, msgpack)"))
	key = "verbose"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("enable verbose logging"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
