package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnd-dev/learnd/internal/cli/client"
)

// NewEnrollCmd creates the enroll command
func NewEnrollCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "enroll <course-code>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnroll(serverURL, args[0])
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "API server URL (uses stored server if not specified)")

	return cmd
}

func runEnroll(serverURL, courseCode string) error {
	serverURL, err := resolveServer(serverURL)
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)

	if err := apiClient.Enroll(serverURL, courseCode); err != nil {
		return err
	}

	fmt.Printf("✓ Enrolled in %s\n", courseCode)
	return nil
}
