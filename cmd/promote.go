package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/kartiksrathod/Eduu/internal/server"
	"github.com/kartiksrathod/Eduu/internal/services"
)

var (
	promoteEmail string
	revoke       bool
)

func init() {
	PromoteCommand.Flags().StringVar(&promoteEmail, "email", "", "email of the user to change")
	PromoteCommand.Flags().BoolVar(&revoke, "revoke", false, "revoke admin instead of granting it")
	RootCmd.AddCommand(&PromoteCommand)
}

// PromoteCommand is the only way to create the first admin, since
// registration always creates students.
var PromoteCommand = cobra.Command{
	Use:   "promote",
	Short: "Grant or revoke admin on a registered user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if promoteEmail == "" {
			return errors.New("promote wants --email")
		}

		stores, err := server.OpenStores(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = stores.Close(context.Background()) }()

		user, err := services.NewAdminService(stores.Users, logger).SetAdmin(cmd.Context(), promoteEmail, !revoke)
		if err != nil {
			return err
		}
		logger.WithField("email", user.Email).WithField("is_admin", user.IsAdmin).Info("user updated")
		return nil
	},
}
