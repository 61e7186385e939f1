package cmd

import (
	"fmt"
	"github.com/ValentinKolb/vKV/cmd/check"
	"github.com/ValentinKolb/vKV/cmd/perf"
	"github.com/ValentinKolb/vKV/cmd/shell"
	"github.com/ValentinKolb/vKV/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "vkv",
		Short: "validated in-memory key-value store",
		Long: fmt.Sprintf(`vKV (v%s)

An in-memory key-value store written in Go. Every value is validated by
a pluggable rule engine (lua or native) before it is stored and formatted
by it when it is read.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of vKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vKV v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(shell.ShellCmd)
	RootCmd.AddCommand(check.CheckCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupRulesFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
