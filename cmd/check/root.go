package check

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/vKV/cmd/util"
	"github.com/ValentinKolb/vKV/lib/common"
	"github.com/ValentinKolb/vKV/lib/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io"
)

// ErrRejected is returned when the rules reject the checked value
var ErrRejected = errors.New("value rejected")

var (
	checkCmdConfig = &common.ShellConfig{}
	CheckCmd       = &cobra.Command{
		Use:   "check [key] [value]",
		Short: "Validate and format a single value with the configured rules",
		Long: `Dispatch ADD for the given key and value and, if the value is accepted, GET for the same pair. Both outcomes are printed.
With --action only the given action is dispatched.

The command exits with a non-zero status if the value is rejected, which makes it usable for testing rule files in scripts.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: processConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := util.NewDispatcher(checkCmdConfig)
			if err != nil {
				return err
			}
			defer util.CloseDispatcher(d)

			if name := viper.GetString("action"); name != "" {
				action, err := rules.ParseAction(name)
				if err != nil {
					return err
				}
				_, err = CheckAction(cmd.OutOrStdout(), d, action, args[0], args[1])
				return err
			}
			return Check(cmd.OutOrStdout(), d, args[0], args[1])
		},
	}
)

func init() {
	key := "action"
	CheckCmd.Flags().String(key, "", util.WrapString("Dispatch only this action (add or get) instead of ADD followed by GET"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	conf, err := util.GetShellConfig()
	if err != nil {
		return err
	}
	*checkCmdConfig = *conf
	return common.InitLoggers(conf.LogLevel)
}

// Check dispatches ADD and, on success, GET for key and value and writes both outcomes to out.
func Check(out io.Writer, d rules.Dispatcher, key, value string) error {
	if _, err := CheckAction(out, d, rules.ActionAdd, key, value); err != nil {
		return err
	}
	get, err := CheckAction(out, d, rules.ActionGet, key, value)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "stored %q, displayed %q\n", value, get.ResultOr(value))
	return nil
}

// CheckAction dispatches a single action and writes its outcome to out.
// A rejection is returned as ErrRejected together with the outcome.
func CheckAction(out io.Writer, d rules.Dispatcher, action rules.Action, key, value string) (rules.Outcome, error) {
	o, err := d.Dispatch(action, key, value)
	if err != nil {
		return o, fmt.Errorf("rule engine failure: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%-4s%s\n", action, o)
	if !o.OK() {
		return o, ErrRejected
	}
	return o, nil
}
