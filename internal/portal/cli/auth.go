package cli

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
	"github.com/spf13/cobra"
)

func newLoginCommand(e *env) *cobra.Command {
	var req portalsdk.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and open your dashboard",
		Long: `Sign in and open your dashboard.

Without --password the password is read from the terminal, or from stdin
when it is not a terminal.`,
		Example: `  immo login --email agence@example.com
  printf '%s\n' "$PASS" | immo login --email agence@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := newSecrets(cmd).get(req.Password, "Password")
			if err != nil {
				return err
			}
			req.Password = password

			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			user, err := a.Session.Login(cmd.Context(), req)
			switch {
			case errors.Is(err, portalsdk.ErrInvalidCredentials):
				return errors.New("login failed: wrong email or password")
			case errors.Is(err, portalsdk.ErrEmailNotVerified):
				return errors.New("login failed: confirm your email address first (see resend-verification)")
			case err != nil:
				return fmt.Errorf("login failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Signed in as %s (%s)\n", user.DisplayName(), user.Role().DisplayName())

			nav, err := a.Router.Visit(cmd.Context(), domain.DashboardFor(user.Role()))
			if err != nil {
				return err
			}
			printNavigation(cmd, nav)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			if err := a.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newRegisterCommand(e *env) *cobra.Command {
	var (
		req      portalsdk.RegisterRequest
		userType string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Example: `  immo register --type AGENCE_IMMOBILIERE --nom Trabelsi --prenom Amel \
    --email agence@example.com --telephone 20123456 \
    --adresse "Sousse" --agence "Immo Sahel" --licence LIC-2291`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := domain.ParseRole(userType)
			if err != nil {
				return err
			}
			req.UserType = role

			password, err := newSecrets(cmd).get(req.Password, "Password")
			if err != nil {
				return err
			}
			req.Password = password

			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			resp, err := a.Session.Register(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			if resp.EmailVerificationRequired {
				fmt.Fprintln(out, "Check your inbox for the confirmation link, then run verify-email.")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&userType, "type", string(domain.RoleUser), "account type: UTILISATEUR, CLIENT_ABONNE, AGENCE_IMMOBILIERE or ADMINISTRATEUR")
	f.StringVar(&req.Nom, "nom", "", "family name")
	f.StringVar(&req.Prenom, "prenom", "", "given name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "password, at least 6 characters (prompted when omitted)")
	f.StringVar(&req.Telephone, "telephone", "", "8 digit phone number")
	f.StringVar(&req.Adresse, "adresse", "", "postal address")
	f.StringVar(&req.NomAgence, "agence", "", "agency name (agencies)")
	f.StringVar(&req.NumeroLicence, "licence", "", "licence number (agencies)")
	f.StringVar(&req.SiteWeb, "site-web", "", "agency website")
	f.IntVar(&req.NombreEmployes, "employes", 0, "agency head count")
	f.StringVar(&req.ZonesCouverture, "zones", "", "areas the agency covers")
	f.StringVar(&req.SubscriptionType, "subscription", "", "BASIC, PREMIUM or VIP (subscribed clients)")
	f.StringVar(&req.AdminLevel, "admin-level", "", "SUPER_ADMIN, MODERATOR or SUPPORT (administrators)")
	return cmd
}

func newVerifyEmailCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm an email address with the token from the confirmation link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			resp, err := a.Session.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newResendVerificationCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "resend-verification <email>",
		Short: "Send the email confirmation link again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			resp, err := a.Session.ResendVerification(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newForgotPasswordCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			resp, err := a.Session.RequestPasswordReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

func newChangePasswordCommand(e *env) *cobra.Command {
	var req portalsdk.ChangePasswordRequest

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the password of the signed-in account",
		Long: `Change the password of the signed-in account.

Passwords not given as flags are read from the terminal, or one per line
from stdin: current, new, then confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := newSecrets(cmd)
			promptConfirm := req.NewPassword == ""
			var err error
			if req.CurrentPassword, err = in.get(req.CurrentPassword, "Current password"); err != nil {
				return err
			}
			if req.NewPassword, err = in.get(req.NewPassword, "New password"); err != nil {
				return err
			}
			if promptConfirm {
				if req.ConfirmNewPassword, err = in.get(req.ConfirmNewPassword, "Confirm new password"); err != nil {
					return err
				}
			}

			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			resp, err := a.Session.ChangePassword(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.CurrentPassword, "current", "", "current password (prompted when omitted)")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "new password (prompted when omitted)")
	cmd.Flags().StringVar(&req.ConfirmNewPassword, "confirm", "", "new password again")
	return cmd
}
