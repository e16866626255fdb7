package main

import (
	"github.com/spf13/cobra"

	"studyvault/internal/bootstrap"
	reviewdto "studyvault/internal/modules/review/dto"
)

func newReviewCmd(opts *rootOptions) *cobra.Command {
	review := &cobra.Command{Use: "review", Short: "Spaced review schedules"}

	var previewDate string
	var includeWeekends bool
	preview := &cobra.Command{
		Use:   "preview --date <YYYY-MM-DD>",
		Short: "Show the schedule a session on date would get",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", previewDate); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				var exclude *bool
				if cmd.Flags().Changed("include-weekends") {
					v := !includeWeekends
					exclude = &v
				}
				out, err := app.ReviewCLI.Preview(commandContext(cmd), previewDate, exclude)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				renderItems(cmd.OutOrStdout(), "reviews for "+out.Date, out.Items)
				return nil
			})
		},
	}
	preview.Flags().StringVar(&previewDate, "date", "", "session date")
	preview.Flags().BoolVar(&includeWeekends, "include-weekends", false, "keep the 3-day review on weekends")

	var showDate, showID string
	show := &cobra.Command{
		Use:   "show --date <YYYY-MM-DD> --id <session-id>",
		Short: "Show a session's review schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", showDate, "id", showID); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.ReviewCLI.Show(commandContext(cmd), showDate, showID)
				if err != nil {
					return err
				}
				return printSchedule(cmd, opts, out)
			})
		},
	}
	show.Flags().StringVar(&showDate, "date", "", "session date")
	show.Flags().StringVar(&showID, "id", "", "session id")

	review.AddCommand(preview, show,
		newMarkCmd(opts, "complete", "Mark a review as done", func(app *bootstrap.App, cmd *cobra.Command, date, id, reviewID string) (reviewdto.ScheduleOutput, error) {
			return app.ReviewCLI.Complete(commandContext(cmd), date, id, reviewID)
		}),
		newMarkCmd(opts, "incomplete", "Reopen a review", func(app *bootstrap.App, cmd *cobra.Command, date, id, reviewID string) (reviewdto.ScheduleOutput, error) {
			return app.ReviewCLI.Incomplete(commandContext(cmd), date, id, reviewID)
		}),
	)
	return review
}

type markFunc func(app *bootstrap.App, cmd *cobra.Command, date, id, reviewID string) (reviewdto.ScheduleOutput, error)

func newMarkCmd(opts *rootOptions, use, short string, mark markFunc) *cobra.Command {
	var date, id, reviewID string
	cmd := &cobra.Command{
		Use:   use + " --date <YYYY-MM-DD> --id <session-id> --review <review-id>",
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", date, "id", id, "review", reviewID); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := mark(app, cmd, date, id, reviewID)
				if err != nil {
					return err
				}
				return printSchedule(cmd, opts, out)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "session date")
	cmd.Flags().StringVar(&id, "id", "", "session id")
	cmd.Flags().StringVar(&reviewID, "review", "", "review id, e.g. review-2")
	return cmd
}

func printSchedule(cmd *cobra.Command, opts *rootOptions, out reviewdto.ScheduleOutput) error {
	if opts.asJSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	renderSchedule(cmd.OutOrStdout(), out)
	return nil
}
