package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/learnd-dev/learnd/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "learnd",
	Short: "Learnd - Multi-portal e-learning platform",
	Long: `Learnd CLI - Interact with a Learnd server from the terminal.

Browse the course catalog, enroll in courses, upload documents to your
personal knowledge base, and check notifications.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("learnd version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewCoursesCmd())
	rootCmd.AddCommand(commands.NewEnrollCmd())
	rootCmd.AddCommand(commands.NewUploadCmd())
	rootCmd.AddCommand(commands.NewNotificationsCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
