package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/dojo-admin-api/internal/dto"
)

// NewLessonsCommand creates the lessons command group.
func NewLessonsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lessons",
		Short: "Lesson calendar operations",
	}
	cmd.AddCommand(newLessonsGenerateCommand(rootOpts))
	return cmd
}

func newLessonsGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var req dto.GenerateLessonsRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create lessons from a group's weekly schedule",
		Long: `Create one lesson per scheduled weekday between --from and --to inclusive.

Days that already have a lesson for the group are skipped, so the command
can be re-run over overlapping ranges.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rootOpts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			lessons, err := rt.services().Lessons.GenerateFromSchedule(cmd.Context(), req)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), lessons)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d lesson(s)\n", len(lessons))
			for _, l := range lessons {
				fmt.Fprintf(out, "%6d  %s  %s-%s\n", l.ID, l.Date, l.StartTime, l.EndTime)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.GroupID, "group", 0, "group id")
	cmd.Flags().StringVar(&req.StartDate, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.EndDate, "to", "", "last date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
