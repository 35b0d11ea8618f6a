package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/travel-booking-api/internal/database"
	"github.com/iliyamo/travel-booking-api/internal/model"
	"github.com/iliyamo/travel-booking-api/internal/repository"
	"github.com/iliyamo/travel-booking-api/internal/service"
	"github.com/iliyamo/travel-booking-api/internal/utils"
	"github.com/iliyamo/travel-booking-api/internal/validation"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Add an administrator account",
	Long: `Create a user with the admin role. Admins can only be created here or by
another admin through POST /users.

Example:
  tourctl create-admin --username root --email root@example.com --password s3cret!`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		users := repository.NewUserRepo(database.FromDB(db))
		auth := service.NewAuthService(users, utils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL), validation.New(), cfg.BcryptCost)
		u, err := auth.CreateUser(cmd.Context(), model.CreateUserInput{
			RegisterInput: model.RegisterInput{Username: adminUsername, Email: adminEmail, Password: adminPassword},
			Role:          model.RoleAdmin,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username (required)")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password, at least 6 characters (required)")
	for _, f := range []string{"username", "email", "password"} {
		_ = createAdminCmd.MarkFlagRequired(f)
	}
}
