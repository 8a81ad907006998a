package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	var once bool

	root := &cobra.Command{
		Use:           "gradewatch [start-date]",
		Short:         "Watch a school portal for newly published grades",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var start time.Time
			if len(args) == 1 {
				t, err := parseStartDate(args[0])
				if err != nil {
					return err
				}
				start = t
				once = true
			}
			return run(cmd.Context(), runOptions{
				ConfigPath: cfgPath,
				StartDate:  start,
				Once:       once,
			})
		},
	}

	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	root.Flags().StringVar(&cfgPath, "config", defaultCfg, "path to the YAML config file")
	root.Flags().BoolVar(&once, "once", false, "run a single cycle and exit")
	return root
}

// parseStartDate accepts RFC3339 or a plain YYYY-MM-DD date, read as UTC
// midnight.
func parseStartDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
