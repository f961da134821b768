package main

import (
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/server/services"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println("Running migrations...")
			rt, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "open store").Wrap(err)
			}
			rt.Close()
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func newRegisterCmd(opts *options) *cobra.Command {
	var req services.RegistrationRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		Long: `Register a new unverified account. The verification token is published
as an event, never printed. The password is prompted for when not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				pw, err := promptPassword(cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return err
				}
				confirm, err := promptPassword(cmd.OutOrStdout(), "Confirm password: ")
				if err != nil {
					return err
				}
				req.Password, req.ConfirmPassword = pw, &confirm
			}

			rt, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			msg, err := rt.services.Accounts.Register(cmd.Context(), req)
			if err != nil {
				return describe(err)
			}
			cmd.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.DisplayName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Role, "role", "CUSTOMER", "role (ADMIN|MERCHANT|CUSTOMER)")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Redeem an email verification token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			msg, err := rt.services.Accounts.Verify(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "validate <username>",
		Short: "Check the credentials of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword(cmd.OutOrStdout(), "Password: ")
				if err != nil {
					return err
				}
				password = pw
			}

			rt, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			identity, err := rt.services.Accounts.ValidateCredentials(cmd.Context(), args[0], password)
			if err != nil {
				return describe(err)
			}
			cmd.Printf("account=%s role=%s verified=%t email=%s\n", identity.AccountID, identity.Role, identity.Verified, identity.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

// describe turns an account error into a coded CLI error.
func describe(err error) error {
	return oops.Code(string(common.KindOf(err))).Errorf("%s", common.MessageOf(err))
}
