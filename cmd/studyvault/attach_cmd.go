package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studyvault/internal/bootstrap"
	"studyvault/internal/ui/theme"
)

func newAttachCmd(opts *rootOptions) *cobra.Command {
	attach := &cobra.Command{Use: "attach", Short: "Session attachments"}

	var addDate, addID string
	add := &cobra.Command{
		Use:   "add --date <YYYY-MM-DD> --id <session-id> <file>...",
		Short: "Copy files into a session's attachment folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlags("date", addDate, "id", addID); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.AttachmentCLI.Add(commandContext(cmd), addDate, addID, args)
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				for _, a := range out {
					line := fmt.Sprintf("%s %s %s", theme.OK.Render("attached"), a.FileName, theme.Muted.Render(fmt.Sprintf("(%d bytes)", a.Size)))
					if a.PageCount > 0 {
						line += theme.Muted.Render(fmt.Sprintf(" %d pages", a.PageCount))
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&addDate, "date", "", "session date")
	add.Flags().StringVar(&addID, "id", "", "session id")

	var rmDate, rmID, rmFile string
	remove := &cobra.Command{
		Use:   "remove --date <YYYY-MM-DD> --id <session-id> --file <name>",
		Short: "Remove an attachment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", rmDate, "id", rmID, "file", rmFile); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				if err := app.AttachmentCLI.Remove(commandContext(cmd), rmDate, rmID, rmFile); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.OK.Render("removed"), rmFile)
				return nil
			})
		},
	}
	remove.Flags().StringVar(&rmDate, "date", "", "session date")
	remove.Flags().StringVar(&rmID, "id", "", "session id")
	remove.Flags().StringVar(&rmFile, "file", "", "stored file name")

	var locDate, locID, locFile string
	locate := &cobra.Command{
		Use:   "locate --date <YYYY-MM-DD> --id <session-id> --file <name>",
		Short: "Print the absolute path of an attachment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", locDate, "id", locID, "file", locFile); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				path, err := app.AttachmentCLI.Locate(commandContext(cmd), locDate, locID, locFile)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	locate.Flags().StringVar(&locDate, "date", "", "session date")
	locate.Flags().StringVar(&locID, "id", "", "session id")
	locate.Flags().StringVar(&locFile, "file", "", "stored file name")

	var openDate, openID, openFile string
	open := &cobra.Command{
		Use:   "open --date <YYYY-MM-DD> --id <session-id> --file <name>",
		Short: "Open an attachment with the default application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags("date", openDate, "id", openID, "file", openFile); err != nil {
				return err
			}
			return withApp(opts, func(app *bootstrap.App) error {
				path, err := app.AttachmentCLI.Open(commandContext(cmd), openDate, openID, openFile)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.OK.Render("opened"), path)
				return nil
			})
		},
	}
	open.Flags().StringVar(&openDate, "date", "", "session date")
	open.Flags().StringVar(&openID, "id", "", "session id")
	open.Flags().StringVar(&openFile, "file", "", "stored file name")

	repair := &cobra.Command{
		Use:   "repair",
		Short: "Move attachments left in temp folders into their session folders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *bootstrap.App) error {
				out, err := app.AttachmentCLI.Repair(commandContext(cmd))
				if err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s sessions=%d files=%d temp folders removed=%d\n",
					theme.OK.Render("repaired"), len(out.SessionsUpdated), out.FilesCopied, len(out.FoldersRemoved))
				for _, p := range out.Missing {
					_, _ = fmt.Fprintf(w, "  %s %s\n", theme.Hot.Render("missing"), p)
				}
				for _, p := range out.Failed {
					_, _ = fmt.Fprintf(w, "  %s %s\n", theme.Err.Render("failed"), p)
				}
				for dir, names := range out.FoldersKept {
					_, _ = fmt.Fprintf(w, "  %s %s %v\n", theme.Muted.Render("kept"), dir, names)
				}
				return nil
			})
		},
	}

	attach.AddCommand(add, remove, locate, open, repair)
	return attach
}
