package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kartiksrathod/Eduu/internal/config"
	"github.com/kartiksrathod/Eduu/internal/logging"
)

var (
	// flags
	configPath string
	env        string

	cfg    *config.Config
	logger logrus.FieldLogger
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	RootCmd.PersistentFlags().StringVar(&env, "env", "", "environment name, overrides ENV")
}

var RootCmd = cobra.Command{
	Use:           "eduu",
	Short:         "EduResources academic resource backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if env != "" {
			loaded.Env = env
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		logger = logging.New(cfg.Env, cfg.LogLevel)
		return nil
	},
}
