package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/aussiebroadwan/immo/internal/portal/domain"
	"github.com/aussiebroadwan/immo/internal/portal/session"
	"github.com/aussiebroadwan/immo/pkg/portalsdk"
	"github.com/spf13/cobra"
)

func newWhoamiCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the signed-in profile from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			user, err := a.Session.RefreshProfile(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func newStatusCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			snap := a.Session.Snapshot(ctx)
			out := cmd.OutOrStdout()

			if !snap.Authenticated {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			printUser(out, snap.User)
			if claims := a.Session.Claims(ctx); claims != nil {
				left := claims.TimeToExpiry(time.Now()).Truncate(time.Second)
				fmt.Fprintf(out, "Token expires: %s (in %s)\n", claims.ExpiresAtTime().Local().Format(time.RFC1123), left)
			}
			printSnapshot(out, snap)
			return nil
		},
	}
}

func newUpdateProfileCommand(e *env) *cobra.Command {
	var (
		nom, prenom, email, telephone, adresse string
		agence, site, zones                    string
		employes                               int
	)

	cmd := &cobra.Command{
		Use:   "update-profile",
		Short: "Change fields of the signed-in profile",
		Example: `  immo update-profile --telephone 20999888 --adresse "Tunis"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			var req portalsdk.UpdateProfileRequest
			set := func(name string, v *string, dst **string) {
				if f.Changed(name) {
					*dst = v
				}
			}
			set("nom", &nom, &req.Nom)
			set("prenom", &prenom, &req.Prenom)
			set("email", &email, &req.Email)
			set("telephone", &telephone, &req.Telephone)
			set("adresse", &adresse, &req.Adresse)
			set("agence", &agence, &req.NomAgence)
			set("site-web", &site, &req.SiteWeb)
			set("zones", &zones, &req.ZonesCouverture)
			if f.Changed("employes") {
				req.NombreEmployes = &employes
			}
			if req.Empty() {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			user, err := a.Session.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&nom, "nom", "", "family name")
	f.StringVar(&prenom, "prenom", "", "given name")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&telephone, "telephone", "", "phone number")
	f.StringVar(&adresse, "adresse", "", "postal address")
	f.StringVar(&agence, "agence", "", "agency name")
	f.StringVar(&site, "site-web", "", "agency website")
	f.StringVar(&zones, "zones", "", "areas the agency covers")
	f.IntVar(&employes, "employes", 0, "agency head count")
	return cmd
}

func printUser(w io.Writer, u *domain.User) {
	if u == nil {
		fmt.Fprintln(w, "No profile cached")
		return
	}
	fmt.Fprintf(w, "%s <%s>\n", u.DisplayName(), u.Email)
	fmt.Fprintf(w, "Account type:  %s\n", u.Role().DisplayName())
	fmt.Fprintf(w, "Email:         %s\n", verifiedLabel(u.EmailVerified))

	if c, ok := u.Client(); ok && c.SubscriptionType != "" {
		fmt.Fprintf(w, "Subscription:  %s\n", c.SubscriptionType)
	}
	if ag, ok := u.Agency(); ok {
		fmt.Fprintf(w, "Agency:        %s (%s)\n", ag.NomAgence, verifiedLabel(ag.Verified))
	}
	if ad, ok := u.Admin(); ok && ad.AdminLevel != "" {
		fmt.Fprintf(w, "Admin level:   %s\n", ad.AdminLevel)
	}
}

func printSnapshot(w io.Writer, s session.Snapshot) {
	fmt.Fprintf(w, "Account enabled:               %t\n", s.AccountEnabled)
	fmt.Fprintf(w, "Email confirmation pending:    %t\n", s.EmailVerificationRequired)
	fmt.Fprintf(w, "Agency verification pending:   %t\n", s.DomainVerificationRequired)
	fmt.Fprintf(w, "Admin area:                    %t\n", s.CanAccessAdmin)
	fmt.Fprintf(w, "Agency area:                   %t\n", s.CanAccessAgency)
	fmt.Fprintf(w, "Premium features:              %t\n", s.CanAccessPremium)
}

func verifiedLabel(ok bool) string {
	if ok {
		return "verified"
	}
	return "not verified"
}
