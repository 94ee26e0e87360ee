package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"bookstore/database"
	"bookstore/internal/microservices/http-api/repository"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage staff rights",
	Long:  `Staff users may update and delete any book, not only the ones they own.`,
}

var staffGrantCmd = &cobra.Command{
	Use:     "grant <username>",
	Short:   "Make a user staff",
	Example: "bookstore-admin staff grant ivan",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetStaff(cmd, args[0], true)
	},
}

var staffRevokeCmd = &cobra.Command{
	Use:     "revoke <username>",
	Short:   "Remove a user's staff rights",
	Example: "bookstore-admin staff revoke ivan",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetStaff(cmd, args[0], false)
	},
}

func init() {
	staffCmd.AddCommand(staffGrantCmd, staffRevokeCmd)
	rootCmd.AddCommand(staffCmd)
}

func runSetStaff(cmd *cobra.Command, username string, staff bool) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	return setStaff(ctx, repository.NewUserRepository(db), username, staff, cmd.OutOrStdout())
}

func setStaff(ctx context.Context, users repository.UserRepository, username string, staff bool, out io.Writer) error {
	if err := users.SetStaff(ctx, username, staff); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user named %q", username)
		}
		return err
	}

	if staff {
		fmt.Fprintf(out, "%s is now staff\n", username)
	} else {
		fmt.Fprintf(out, "%s is no longer staff\n", username)
	}
	return nil
}
