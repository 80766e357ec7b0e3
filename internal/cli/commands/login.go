package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/learnd-dev/learnd/internal/cli/auth"
	"github.com/learnd-dev/learnd/internal/cli/client"
	"github.com/learnd-dev/learnd/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var serverURL, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Learnd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(serverURL, email, password)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "API server URL (or set LEARND_SERVER)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (or set LEARND_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set LEARND_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(serverURL, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if serverURL == "" {
		serverURL = os.Getenv("LEARND_SERVER")
	}
	if email == "" {
		email = os.Getenv("LEARND_EMAIL")
	}
	if password == "" {
		password = os.Getenv("LEARND_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or LEARND_EMAIL env var)")
	}

	// Fall back to the previously stored server URL
	if serverURL == "" {
		stored, err := userconfig.GetServerURL()
		if err != nil {
			return fmt.Errorf("failed to load user config: %w", err)
		}
		serverURL = stored
	}
	if serverURL == "" {
		return fmt.Errorf("server URL is required (use --server flag or LEARND_SERVER env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or LEARND_PASSWORD env var)")
		}
	}

	apiClient := client.New(serverURL)

	fmt.Printf("Logging in to %s...\n", serverURL)

	loginResp, err := apiClient.Login(email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Save token and remember the server for later commands
	if err := auth.SaveToken(serverURL, loginResp.Token); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}
	if err := userconfig.SetServerURL(serverURL); err != nil {
		return fmt.Errorf("failed to save user config: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", loginResp.User.Name, loginResp.User.Email)
	fmt.Printf("  Role: %s\n", loginResp.User.Role)

	return nil
}
