package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/oauth"
	"github.com/jonathan/resume-autofill/internal/types"
)

var checkAuthCmd = &cobra.Command{
	Use:   "check-auth",
	Short: "Show whether a resume service session is active",
	Long:  "Show whether a resume service session is active. Sessions older than 23 hours are removed.",
	Args:  cobra.NoArgs,
	RunE:  withApp(runCheckAuth),
}

var (
	loginEmail          string
	loginPassword       string
	loginToken          string
	loginGoogleToken    string
	loginGoogleRedirect string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the resume service and cache the resume",
	Long: `Log in with exactly one of:
  --email and --password     email/password login
  --token                    an auth token copied from the web app
  --google-token             a Google access token
  --google-redirect          the URL Google redirected to after sign-in`,
	Args: cobra.NoArgs,
	RunE: withApp(runLogin),
}

var (
	googleRedirectURL string
	googleState       string
)

var googleAuthURLCmd = &cobra.Command{
	Use:   "google-auth-url",
	Short: "Print the Google sign-in URL",
	Long:  "Print the Google sign-in URL. Open it, sign in, then pass the final URL to 'autofill login --google-redirect'.",
	Args:  cobra.NoArgs,
	RunE:  runGoogleAuthURL,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the session and the cached resume",
	Args:  cobra.NoArgs,
	RunE:  withApp(runLogout),
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Auth token from the web app")
	loginCmd.Flags().StringVar(&loginGoogleToken, "google-token", "", "Google access token")
	loginCmd.Flags().StringVar(&loginGoogleRedirect, "google-redirect", "", "Redirect URL returned by Google sign-in")

	googleAuthURLCmd.Flags().StringVar(&googleRedirectURL, "redirect-url", "", "OAuth redirect URL (overrides AUTOFILL_GOOGLE_REDIRECT_URL)")
	googleAuthURLCmd.Flags().StringVar(&googleState, "state", "", "OAuth state value (random when empty)")

	rootCmd.AddCommand(checkAuthCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(googleAuthURLCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runCheckAuth(ctx context.Context, a *app, _ []string) error {
	return a.run(ctx, coordinator.CheckAuth, nil, func(res coordinator.Result) error {
		var status types.AuthStatus
		if err := res.Decode(&status); err != nil {
			return err
		}
		a.printer.PrintAuthStatus(&status)
		return nil
	})
}

// loginCommand picks the login command from the flags.
func loginCommand() (coordinator.CommandType, any, error) {
	var modes int
	for _, set := range []bool{
		loginEmail != "" || loginPassword != "",
		loginToken != "",
		loginGoogleToken != "",
		loginGoogleRedirect != "",
	} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return "", nil, fmt.Errorf("use exactly one of --email/--password, --token, --google-token or --google-redirect")
	}

	switch {
	case loginToken != "":
		return coordinator.TokenLogin, types.TokenLoginRequest{Token: loginToken}, nil
	case loginGoogleToken != "":
		return coordinator.GoogleLogin, coordinator.GoogleLoginPayload{AccessToken: loginGoogleToken}, nil
	case loginGoogleRedirect != "":
		return coordinator.GoogleLogin, coordinator.GoogleLoginPayload{RedirectURL: loginGoogleRedirect}, nil
	default:
		return coordinator.Login, types.LoginRequest{Email: loginEmail, Password: loginPassword}, nil
	}
}

func runLogin(ctx context.Context, a *app, _ []string) error {
	t, payload, err := loginCommand()
	if err != nil {
		return err
	}
	return a.run(ctx, t, payload, func(res coordinator.Result) error {
		var data coordinator.LoginData
		if err := res.Decode(&data); err != nil {
			return err
		}
		who := data.User.Email
		if data.User.Name != "" {
			who = data.User.Name
		}
		_, _ = fmt.Fprintf(a.out, "Logged in as %s\n", who)
		if data.Cached {
			_, _ = fmt.Fprintln(a.out, "Resume data cached")
		} else {
			_, _ = fmt.Fprintln(a.out, "Resume data not cached; run 'autofill refresh-cache' to retry")
		}
		return nil
	})
}

func runGoogleAuthURL(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setupLogging(cmd)
	if err != nil {
		return err
	}
	redirect := googleRedirectURL
	if redirect == "" {
		redirect = cfg.GoogleRedirectURL
	}
	google, err := oauth.NewGoogle(oauth.GoogleConfig{ClientID: cfg.GoogleClientID, RedirectURL: redirect})
	if err != nil {
		return err
	}
	state := googleState
	if state == "" {
		state = uuid.NewString()
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), google.AuthURL(state))
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	return a.run(ctx, coordinator.Logout, nil, func(coordinator.Result) error {
		_, _ = fmt.Fprintln(a.out, "Logged out")
		return nil
	})
}
