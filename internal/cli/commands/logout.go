package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnd-dev/learnd/internal/cli/auth"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored authentication token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(serverURL)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "API server URL (uses stored server if not specified)")

	return cmd
}

func runLogout(serverURL string) error {
	serverURL, err := resolveServer(serverURL)
	if err != nil {
		return err
	}

	if err := auth.DeleteToken(serverURL); err != nil {
		return err
	}

	fmt.Printf("✓ Logged out of %s\n", serverURL)
	return nil
}
