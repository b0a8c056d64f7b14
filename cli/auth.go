package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"vehicle-marketplace/client"
)

func newLoginCmd(a *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.required("Email", email)
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = a.promptSecret("Password"); err != nil {
					return err
				}
			}
			user, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			name := email
			if user != nil && user.Name != "" {
				name = user.Name
			}
			fmt.Fprintf(a.out, "Welcome back, %s.\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := a.sessions.User()
			if !a.sessions.IsAuthenticated() || u == nil {
				fmt.Fprintln(a.out, "Not logged in.")
				return nil
			}
			role := u.Role
			if role == "" {
				role = "user"
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.Name, u.Email, role)
			return nil
		},
	}
}

func newRegisterCmd(a *App) *cobra.Command {
	var reg client.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if reg.FullName, err = a.required("Full name", reg.FullName); err != nil {
				return err
			}
			if reg.Email, err = a.required("Email", reg.Email); err != nil {
				return err
			}
			if reg.Password == "" {
				if reg.Password, err = a.promptSecret("Password"); err != nil {
					return err
				}
			}
			if _, err := a.api.Register(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account created. Signed in as %s.\n", reg.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newPasswordCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset a forgotten password",
		Long: `Password reset runs in three steps:
  marketplace password forgot --email you@example.com
  marketplace password verify --email you@example.com --otp 123456
  marketplace password reset  --email you@example.com`,
	}

	var email, otp, newPassword string
	cmd.PersistentFlags().StringVar(&email, "email", "", "account email")

	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Email a one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.required("Email", email)
			if err != nil {
				return err
			}
			if err := a.api.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "A one-time code has been sent to %s.\n", email)
			return nil
		},
	}

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Check the one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.required("Email", email)
			if err != nil {
				return err
			}
			code, err := a.required("Code", otp)
			if err != nil {
				return err
			}
			if err := a.api.VerifyOTP(cmd.Context(), email, code); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Code verified. You can now set a new password.")
			return nil
		},
	}
	verify.Flags().StringVar(&otp, "otp", "", "one-time code from the email")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.required("Email", email)
			if err != nil {
				return err
			}
			pw := newPassword
			if pw == "" {
				if pw, err = a.promptSecret("New password"); err != nil {
					return err
				}
			}
			if err := a.api.ResetPassword(cmd.Context(), email, pw); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password updated. Log in with the new password.")
			return nil
		},
	}
	reset.Flags().StringVar(&newPassword, "password", "", "new password (prompted when omitted)")

	cmd.AddCommand(forgot, verify, reset)
	return cmd
}
