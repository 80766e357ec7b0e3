package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/learnd-dev/learnd/internal/cli/client"
)

// NewCoursesCmd creates the courses command
func NewCoursesCmd() *cobra.Command {
	var serverURL, category string

	cmd := &cobra.Command{
		Use:     "courses",
		Aliases: []string{"ls"},
		Short:   "List the course catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCourses(serverURL, category)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "API server URL (uses stored server if not specified)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")

	return cmd
}

func runCourses(serverURL, category string) error {
	serverURL, err := resolveServer(serverURL)
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)

	courses, err := apiClient.ListCourses(serverURL, category)
	if err != nil {
		return err
	}

	if len(courses) == 0 {
		fmt.Println("No courses found.")
		return nil
	}

	fmt.Printf("Courses on %s:\n\n", serverURL)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tLECTURER\tCATEGORY\tSTATUS")
	fmt.Fprintln(w, "────\t────\t────────\t────────\t──────")

	for _, course := range courses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			course.Code,
			course.Name,
			course.Lecturer,
			course.Category,
			course.Status,
		)
	}

	w.Flush()

	return nil
}
