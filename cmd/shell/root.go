package shell

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/vKV/cmd/util"
	"github.com/ValentinKolb/vKV/lib/common"
	"github.com/ValentinKolb/vKV/lib/repl"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"syscall"
)

var (
	shellCmdConfig = &common.ShellConfig{}
	ShellCmd       = &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive vKV session",
		Long: `Start an interactive session reading commands from stdin (ADD <key> <value>, GET <key>, LIST, STATS, RELOAD, HELP, EXIT).

Every value is validated by the configured rule engine before it is stored and formatted by it when it is read. The configuration can be set via command line flags or environment variables. The format of the environment variables is VKV_<flag> (e.g. VKV_RULES_ENGINE=native)`,
		Args:    cobra.NoArgs,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "watch"
	ShellCmd.Flags().Bool(key, false, util.WrapString("Reload the rule file whenever it changes (requires --rules-file)"))

	key = "initial-capacity"
	ShellCmd.Flags().Int(key, 0, util.WrapString("Expected number of keys, used to presize the in-memory database"))

	key = "quiet"
	ShellCmd.Flags().Bool(key, false, util.WrapString("Do not print the greeting and the prompt (for piped input)"))
}

// processConfig reads the configuration from the command line flags and environment variables
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf, err := util.GetShellConfig()
	if err != nil {
		return err
	}
	*shellCmdConfig = *conf

	return common.InitLoggers(shellCmdConfig.LogLevel)
}

// run loads the rules and starts the session, a failure to load the rules aborts before the first command is read
func run(cmd *cobra.Command, _ []string) error {
	util.Logger.Debugf("configuration:\n%s", shellCmdConfig.String())

	d, err := util.NewDispatcher(shellCmdConfig)
	if err != nil {
		util.Logger.Errorf("startup failed: %v", err)
		return err
	}

	instrumented := rules.NewInstrumented(d)
	defer util.CloseDispatcher(instrumented)
	kvStore := util.NewStore(shellCmdConfig, instrumented)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if shellCmdConfig.Watch {
		go func() {
			if err := rules.Watch(ctx, shellCmdConfig.RulesFile, instrumented, nil); err != nil {
				util.Logger.Errorf("failed to watch %s: %v", shellCmdConfig.RulesFile, err)
			}
		}()
	}

	opts := &repl.Options{Banner: true, Prompt: "> "}
	if viper.GetBool("quiet") {
		opts = nil
	}

	session := repl.NewSession(kvStore, instrumented, cmd.OutOrStdout(), opts)
	if err := session.Run(ctx, cmd.InOrStdin()); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
