package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/learnd-dev/learnd/internal/cli/client"
)

// NewNotificationsCmd creates the notifications command
func NewNotificationsCmd() *cobra.Command {
	var serverURL string
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List your notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifications(serverURL, unreadOnly)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "API server URL (uses stored server if not specified)")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only show unread notifications")

	return cmd
}

func runNotifications(serverURL string, unreadOnly bool) error {
	serverURL, err := resolveServer(serverURL)
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)

	notifications, err := apiClient.ListNotifications(serverURL, unreadOnly)
	if err != nil {
		return err
	}

	if len(notifications) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SENT\tCODE\tDESCRIPTION\tREAD")

	for _, n := range notifications {
		read := ""
		if n.Read {
			read = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.SentAt, n.Code, n.Description, read)
	}

	w.Flush()

	return nil
}
