package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"xdl/pkg/auth"
	"xdl/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the x.com session token",
	Long: `Manage the stored x.com session token securely.

The token is stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only, for .env compatibility)

Never share your auth token!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the x.com session token securely",
	Long: `Store the x.com auth token in the system keychain or an encrypted file.

You will be prompted for the auth_token cookie value. To find it:
1. Log into x.com in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://x.com
4. Copy the value of the auth_token cookie`,
	Example: `  xdl auth login`,
	Args:    cobra.NoArgs,
	Run:     runLogin,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session token is stored",
	Long:  `Show whether an x.com session token is stored, with the token masked.`,
	Run:   runStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	Long:  `Remove the x.com session token from every store that holds it.`,
	Run:   runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	// Warn before silently replacing an existing token
	if manager.Exists() {
		fmt.Print("A token is already stored. Replace it? (y/N): ")
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("auth_token cookie value (hidden as you type): ")
	token, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read token: %v", err)
		os.Exit(1)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		ui.PrintError("Token is required")
		os.Exit(1)
	}

	if err := manager.Store(token); err != nil {
		ui.PrintError("Failed to store token: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Token stored: " + auth.MaskToken(token))
	fmt.Println("\nProtected timelines are now available:")
	fmt.Println("  xdl fetch <username>")
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	cred, err := manager.Retrieve()
	if err != nil {
		ui.PrintInfo("Session token", "not stored")
		fmt.Println("\nUse 'xdl auth login' to store one.")
		return
	}

	ui.PrintInfo("Session token", auth.MaskToken(cred.AuthToken))
	if !cred.LastModified.IsZero() {
		ui.PrintInfo("Stored", cred.LastModified.Format("2006-01-02 15:04:05"))
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager: %v", err)
		os.Exit(1)
	}

	if err := manager.Delete(); err != nil {
		if stderrors.Is(err, auth.ErrTokenNotFound) {
			ui.PrintInfo("Session token", "not stored")
			return
		}
		ui.PrintError("Failed to remove token: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Token removed")
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after hidden input
		if err == nil {
			return string(secret), nil
		}
	}

	// Fallback to regular input when stdin is not a terminal
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
