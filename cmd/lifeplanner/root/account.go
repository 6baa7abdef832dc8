package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lifeplanner/internal/backend"
)

func newSignUpCmd() *cobra.Command {
	var password string
	var name string

	cmd := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account and send its confirmation link",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("email is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			client := a.server().NewClient()
			err = client.SignUp(cmd.Context(), backend.SignUpRequest{
				Email:      args[0],
				Password:   password,
				FullName:   name,
				RedirectTo: a.cfg.BaseURL,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Account %s created. The confirmation link is in the log.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (min 6 characters)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Confirm an account with the token from its confirmation link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.server().Verify(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Email confirmed.")
			return nil
		},
	}
}

func newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired sign-in sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := a.server().PurgeExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🧹 %d expired sessions deleted.\n", n)
			return nil
		},
	}
}
