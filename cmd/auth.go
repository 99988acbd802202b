package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/webook-dev/webook-client/pkg/api"
	"github.com/webook-dev/webook-client/pkg/storage"
)

var (
	loginEmail    string
	loginPassword string
	loginPhone    string
	loginCode     string
	loginSendCode bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to webook",
	Long: `Sign in with an email and password, or with a phone number and an SMS code.

Examples:
  # Sign in with email, prompting for the password
  webook login --email me@example.com

  # Request an SMS code, then sign in with it
  webook login --phone 13800000000 --send-code
  webook login --phone 13800000000 --code 123456`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for new credentials",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")
	loginCmd.Flags().StringVar(&loginPhone, "phone", "", "phone number for SMS login")
	loginCmd.Flags().StringVar(&loginCode, "code", "", "SMS code")
	loginCmd.Flags().BoolVar(&loginSendCode, "send-code", false, "send an SMS code to --phone and exit")
	loginCmd.MarkFlagsMutuallyExclusive("email", "phone")

	signupCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	signupCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when empty)")
	if err := signupCmd.MarkFlagRequired("email"); err != nil {
		panic(err)
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	users := current.service.Users

	if loginPhone != "" {
		if loginSendCode {
			if err := users.SendSMSCode(ctx, loginPhone); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(current.out, "Code sent to %s\n", loginPhone)
			return nil
		}
		if loginCode == "" {
			return fmt.Errorf("--code is required with --phone (use --send-code to get one)")
		}
		user, err := users.LoginSMS(ctx, loginPhone, loginCode)
		if err != nil {
			return err
		}
		printWelcome(user)
		return nil
	}

	if loginEmail == "" {
		return fmt.Errorf("either --email or --phone is required")
	}
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	user, err := users.Login(ctx, loginEmail, password)
	if err != nil {
		return err
	}
	printWelcome(user)
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	if err := current.service.Users.Signup(cmd.Context(), loginEmail, password); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(current.out, "Account %s created, run `webook login --email %s` to sign in\n", loginEmail, loginEmail)
	return nil
}

// readPassword returns --password or reads one line from stdin
func readPassword(cmd *cobra.Command) (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", fmt.Errorf("password cannot be empty")
	}
	password := strings.TrimSpace(scanner.Text())
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func printWelcome(user *api.User) {
	name := user.Nickname
	if name == "" {
		name = user.Email
	}
	if name == "" {
		name = user.Phone
	}
	_, _ = fmt.Fprintf(current.out, "Logged in as %s (id %d)\n", name, user.ID)
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !current.client.Session().LoggedIn() {
		_, _ = fmt.Fprintln(current.out, "Not logged in")
		return nil
	}
	if err := current.service.Users.Logout(cmd.Context()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(current.out, "Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if !current.client.Session().LoggedIn() {
		return api.ErrNotLoggedIn
	}
	user, err := current.service.Users.Current()
	if errors.Is(err, storage.ErrNotFound) {
		// credentials without a stored profile: ask the server
		user, err = current.service.Users.Profile(cmd.Context())
	}
	if err != nil {
		return err
	}
	renderTable(current.out, []string{"Field", "Value"}, [][]string{
		{"id", id(user.ID)},
		{"email", user.Email},
		{"nickname", user.Nickname},
		{"phone", user.Phone},
		{"about", truncate(user.AboutMe, 60)},
		{"api", current.client.BaseURL()},
		{"session", sessionState(time.Now())},
	})
	return nil
}

// sessionState describes the lifetime of the held access token
func sessionState(now time.Time) string {
	claims, err := current.client.Session().Claims()
	if err != nil {
		return "unknown"
	}
	if claims.Expired(now) {
		return "expired, renewed on the next request"
	}
	if claims.ExpiresAt == nil {
		return "valid"
	}
	return "valid until " + claims.ExpiresAt.Local().Format("2006-01-02 15:04")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if current.client.Session().RefreshToken() == "" {
		return api.ErrNotLoggedIn
	}
	if err := current.service.Users.RefreshToken(cmd.Context()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(current.out, "Credentials refreshed")
	return nil
}
