// Command streamsketch feeds lines of text into the sketches of the
// streamsketch package and prints what they report.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jcalabro/streamsketch/internal/config"
	"github.com/jcalabro/streamsketch/internal/logger"
)

type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "streamsketch",
		Short:         "Approximate membership and distinct counts over line streams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newBloomCmd(a), newDistinctCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
