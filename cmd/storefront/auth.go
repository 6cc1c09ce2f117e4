package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront/internal/backend"
)

func newLoginCommand() *cobra.Command {
	var req backend.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if !a.session.RequireAnonymous(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already signed in.")
				return nil
			}
			res, err := a.session.LogIn(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", displayUser(res.User))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	return cmd
}

func newRegisterCommand() *cobra.Command {
	var req backend.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if !a.session.RequireAnonymous(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already signed in.")
				return nil
			}
			res, err := a.session.SignUp(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s.\n", displayUser(res.User))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Role, "role", "", "account role")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			appFrom(cmd).session.SignOut(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if !a.session.IsAuthenticated(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			user := a.session.CurrentUser(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", displayUser(user))
			if user != nil && user.Role != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "role: %s\n", user.Role)
			}
			return nil
		},
	}
}

func newResetPasswordCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).session.ResetPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset email is on its way.")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func displayUser(u *backend.User) string {
	if u == nil {
		return "unknown user"
	}
	switch {
	case u.Username != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.Username, u.Email)
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	}
	return u.ID
}
