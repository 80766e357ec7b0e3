package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnd-dev/learnd/internal/cli/client"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document to your knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(serverURL, args[0])
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "API server URL (uses stored server if not specified)")

	return cmd
}

func runUpload(serverURL, path string) error {
	serverURL, err := resolveServer(serverURL)
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)

	doc, err := apiClient.UploadDocument(serverURL, path)
	if err != nil {
		return err
	}

	fmt.Println("✓ Document accepted for indexing")
	fmt.Printf("  ID: %s\n", doc.ID)
	fmt.Printf("  Title: %s\n", doc.Title)

	return nil
}
