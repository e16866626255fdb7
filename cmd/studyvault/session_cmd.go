package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studyvault/internal/bootstrap"
	sessiondto "studyvault/internal/modules/session/dto"
	"studyvault/internal/ui/theme"
)

func newSessionCmd(opts *rootOptions) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Study session records"}

	var newDate, newTitle, newTags string
	var newAutoReview bool
	newCmd := &cobra.Command{
		Use:   "new --date <YYYY-MM-DD>",
		Short: "Create a pending session with a fresh id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", newDate); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				record, err := json.Marshal(map[string]any{
					"id":                  app.SessionCLI.NewID(),
					"date":                newDate,
					"status":              "pending",
					"title":               newTitle,
					"hashtags":            newTags,
					"auto_review_enabled": newAutoReview,
				})
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts, app.SessionCLI.Save(commandContext(cmd), record))
			})
		},
	}
	newCmd.Flags().StringVar(&newDate, "date", "", "session date")
	newCmd.Flags().StringVar(&newTitle, "title", "", "session title")
	newCmd.Flags().StringVar(&newTags, "tags", "", `hashtags, e.g. "#math #exam"`)
	newCmd.Flags().BoolVar(&newAutoReview, "auto-review", true, "generate a review schedule on completion")

	saveCmd := &cobra.Command{
		Use:   "save [file|-]",
		Short: "Save a full session record read from a JSON file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				return printResult(cmd.OutOrStdout(), opts, app.SessionCLI.Save(commandContext(cmd), record))
			})
		},
	}

	var listDate string
	listCmd := &cobra.Command{
		Use:   "list --date <YYYY-MM-DD>",
		Short: "List the sessions stored for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", listDate); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				sessions, err := app.SessionCLI.List(commandContext(cmd), listDate)
				if err != nil {
					return err
				}
				if opts.asJSON {
					records := make([]json.RawMessage, 0, len(sessions))
					for _, s := range sessions {
						records = append(records, s.Record)
					}
					return printJSON(cmd.OutOrStdout(), records)
				}
				renderSessions(cmd.OutOrStdout(), listDate, sessions)
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&listDate, "date", "", "session date")

	var delDate, delID string
	deleteCmd := &cobra.Command{
		Use:   "delete --date <YYYY-MM-DD> --id <session-id>",
		Short: "Delete a session and its attachments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", delDate, "id", delID); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				return printResult(cmd.OutOrStdout(), opts, app.SessionCLI.Delete(commandContext(cmd), delDate, delID))
			})
		},
	}
	deleteCmd.Flags().StringVar(&delDate, "date", "", "session date")
	deleteCmd.Flags().StringVar(&delID, "id", "", "session id")

	var moveID, moveFrom, moveTo string
	moveCmd := &cobra.Command{
		Use:   "move --id <session-id> --from <date> --to <date>",
		Short: "Move a session to another date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("id", moveID, "from", moveFrom, "to", moveTo); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				return printResult(cmd.OutOrStdout(), opts, app.SessionCLI.Move(commandContext(cmd), moveID, moveFrom, moveTo))
			})
		},
	}
	moveCmd.Flags().StringVar(&moveID, "id", "", "session id")
	moveCmd.Flags().StringVar(&moveFrom, "from", "", "current date")
	moveCmd.Flags().StringVar(&moveTo, "to", "", "target date")

	var statusDate, statusID string
	statusCmd := &cobra.Command{
		Use:   "status --date <YYYY-MM-DD> --id <session-id>",
		Short: "Advance a session to its next status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", statusDate, "id", statusID); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.CycleStatus(commandContext(cmd), statusDate, statusID)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s", out.SessionID, theme.StatusStyle(out.Status).Render(out.Status))
				if out.ReviewDue != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " %s", theme.Muted.Render("review due "+out.ReviewDue))
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
	statusCmd.Flags().StringVar(&statusDate, "date", "", "session date")
	statusCmd.Flags().StringVar(&statusID, "id", "", "session id")

	var repairDate string
	repairCmd := &cobra.Command{
		Use:   "repair [--date <YYYY-MM-DD>]",
		Short: "Rebuild metadata from session files and drop stray temp files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				ctx := commandContext(cmd)
				dates := []string{repairDate}
				if repairDate == "" {
					all, err := app.SessionCLI.ListDates(ctx)
					if err != nil {
						return err
					}
					dates = all
				}
				reports := make([]sessiondto.RepairOutput, 0, len(dates))
				for _, date := range dates {
					report, err := app.SessionCLI.Repair(ctx, date)
					if err != nil {
						return err
					}
					reports = append(reports, report)
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), reports)
				}
				for _, r := range reports {
					renderRepair(cmd.OutOrStdout(), r)
				}
				return nil
			})
		},
	}
	repairCmd.Flags().StringVar(&repairDate, "date", "", "date to repair (defaults to every date)")

	session.AddCommand(newCmd, saveCmd, listCmd, deleteCmd, moveCmd, statusCmd, repairCmd)
	return session
}

func newMetadataCmd(opts *rootOptions) *cobra.Command {
	metadata := &cobra.Command{Use: "metadata", Short: "Per-date metadata index"}

	var dates []string
	show := &cobra.Command{
		Use:   "show --date <YYYY-MM-DD> [--date ...]",
		Short: "Show metadata for one or more dates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(dates) == 0 {
				return fmt.Errorf("--date required")
			}
			return withApp(opts, func(app *bootstrap.App) error {
				ctx := commandContext(cmd)
				if len(dates) == 1 {
					meta, err := app.SessionCLI.Metadata(ctx, dates[0])
					if err != nil {
						return err
					}
					if opts.asJSON {
						return printJSON(cmd.OutOrStdout(), meta)
					}
					renderMetadata(cmd.OutOrStdout(), meta)
					return nil
				}
				metas, err := app.SessionCLI.MultipleMetadata(ctx, dates)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), metas)
				}
				for _, date := range dates {
					if meta, ok := metas[date]; ok {
						renderMetadata(cmd.OutOrStdout(), meta)
					} else {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.Title.Render(date), theme.Muted.Render("no metadata"))
					}
				}
				return nil
			})
		},
	}
	show.Flags().StringArrayVar(&dates, "date", nil, "date (repeatable)")

	metadata.AddCommand(show)
	return metadata
}

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	var tags int
	cmd := &cobra.Command{
		Use:   "calendar --from <date> --to <date>",
		Short: "Summarise days and top tags from the calendar index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Calendar(commandContext(cmd), from, to, tags)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				renderCalendar(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "last date (inclusive)")
	cmd.Flags().IntVar(&tags, "tags", 10, "number of top tags")
	return cmd
}

func newReindexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the SQLite calendar index from the vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Reindex(commandContext(cmd))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s dates=%d sessions=%d took=%s\n", theme.OK.Render("reindex completed"), out.Dates, out.Sessions, out.Took.Round(time.Millisecond))
				return nil
			})
		},
	}
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

// printResult renders a result and turns a failed one into a command error.
func printResult(w io.Writer, opts *rootOptions, res sessiondto.Result) error {
	if opts.asJSON {
		if err := printJSON(w, res); err != nil {
			return err
		}
	} else if res.Success {
		_, _ = fmt.Fprintf(w, "%s %s\n", theme.OK.Render("ok"), res.SessionID)
	}
	if !res.Success {
		return errors.New(strings.TrimSpace(res.Error))
	}
	return nil
}
