package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/jobboard/internal/guard"
	"github.com/jonathan/jobboard/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername    string
	registerUsername string
	registerEmail    string
	resetEmail       string
	resetUID         string
	resetToken       string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Authenticate against the backend. The password is read from the terminal
without echo, or from stdin when stdin is not a terminal.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long:  `Invalidate the token on the backend (best effort) and remove the stored session.`,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

var passwordResetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "Request a password reset email",
	RunE:  runPasswordReset,
}

var passwordResetConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Set a new password using the uid and token from the reset email",
	RunE:  runPasswordResetConfirm,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (required)")
	_ = loginCmd.MarkFlagRequired("username")

	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username (required)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address (required)")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")

	passwordResetCmd.Flags().StringVar(&resetEmail, "email", "", "Account email address")
	passwordResetConfirmCmd.Flags().StringVar(&resetUID, "uid", "", "User id from the reset link (required)")
	passwordResetConfirmCmd.Flags().StringVar(&resetToken, "token", "", "Token from the reset link (required)")
	_ = passwordResetConfirmCmd.MarkFlagRequired("uid")
	_ = passwordResetConfirmCmd.MarkFlagRequired("token")
	passwordResetCmd.AddCommand(passwordResetConfirmCmd)

	rootCmd.AddCommand(routed(loginCmd, guard.Login))
	rootCmd.AddCommand(routed(registerCmd, guard.Register))
	rootCmd.AddCommand(routed(passwordResetCmd, guard.PasswordReset))
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// confirm is its own route; annotate it so it does not inherit the parent's.
	routed(passwordResetConfirmCmd, guard.PasswordResetConfirm)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	password, err := readSecret(cmd, "Password: ")
	if err != nil {
		return err
	}

	sess, err := a.client.Login(cmd.Context(), types.LoginRequest{Username: loginUsername, Password: password})
	if err != nil {
		return err
	}
	if err := a.sessions.Login(sess); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.Username)
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	password, err := readSecret(cmd, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readSecret(cmd, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	sess, err := a.client.Register(cmd.Context(), types.RegisterRequest{
		Username: registerUsername,
		Email:    registerEmail,
		Password: password,
	})
	if err != nil {
		return err
	}
	if err := a.sessions.Login(sess); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", sess.Username)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	sess, ok := a.sessions.Current()
	a.sessions.Logout(cmd.Context())
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", sess.Username)
	return nil
}

// WhoamiResult is the whoami output.
type WhoamiResult struct {
	State    string `json:"state"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	API      string `json:"api"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	sess, _ := a.sessions.Current()
	result := WhoamiResult{
		State:    a.sessions.State().String(),
		Username: sess.Username,
		Email:    sess.Email,
		API:      a.client.BaseURL(),
	}
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), result)
	}
	if result.Username == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Not logged in (%s)\n", result.API)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> on %s\n", result.Username, result.Email, result.API)
	return nil
}

func runPasswordReset(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	email := resetEmail
	if email == "" {
		sess, ok := a.sessions.Current()
		if !ok {
			return fmt.Errorf("--email is required")
		}
		email = sess.Email
	}

	resp, err := a.client.PasswordReset(cmd.Context(), types.PasswordResetRequest{Email: email})
	if err != nil {
		return err
	}
	if outputFormat != "table" {
		return outputResult(cmd.OutOrStdout(), resp)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Message)
	if !resp.EmailSent && resp.EmailError != nil {
		fmt.Fprintf(out, "Email could not be sent: %s\n", *resp.EmailError)
	}
	if resp.DebugInfo != nil {
		fmt.Fprintf(out, "Debug: uid=%s token=%s\n", resp.DebugInfo.UID, resp.DebugInfo.Token)
		fmt.Fprintf(out, "Run: jobboard password-reset confirm --uid %s --token %s\n", resp.DebugInfo.UID, resp.DebugInfo.Token)
	}
	return nil
}

func runPasswordResetConfirm(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	password, err := readSecret(cmd, "New password: ")
	if err != nil {
		return err
	}
	confirm, err := readSecret(cmd, "Confirm password: ")
	if err != nil {
		return err
	}

	resp, err := a.client.PasswordResetConfirm(cmd.Context(), types.PasswordResetConfirmRequest{
		UID:             resetUID,
		Token:           resetToken,
		NewPassword:     password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	if resp.Username != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Run: jobboard login -u %s\n", resp.Username)
	}
	return nil
}

// stdinReader is shared so consecutive secrets read successive lines.
var (
	stdinSource io.Reader
	stdinReader *bufio.Reader
)

// readSecret prompts for a secret on the terminal without echo. When stdin is
// not a terminal one line is read from the command's input instead.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}

	if stdinReader == nil || stdinSource != in {
		stdinSource = in
		stdinReader = bufio.NewReader(in)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
