package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	reviewdto "studyvault/internal/modules/review/dto"
	sessiondto "studyvault/internal/modules/session/dto"
	"studyvault/internal/ui/theme"
)

func renderSessions(w io.Writer, date string, sessions []sessiondto.SessionOutput) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintf(w, "%s %s\n", theme.Title.Render(date), theme.Muted.Render("no sessions"))
		return
	}
	lines := []string{theme.Title.Render(date)}
	for _, s := range sessions {
		title := s.Title
		if title == "" {
			title = theme.Muted.Render("(untitled)")
		}
		line := fmt.Sprintf("%s  %s  %s", s.ID, theme.StatusStyle(s.Status).Render(fmt.Sprintf("%-11s", s.Status)), title)
		if s.Hashtags != "" {
			line += "  " + theme.Tag.Render(s.Hashtags)
		}
		if s.ReviewCount > 0 {
			line += theme.Muted.Render(fmt.Sprintf("  reviews %d/%d", s.ReviewsCompleted, s.ReviewCount))
		}
		if s.AttachmentCount > 0 {
			line += theme.Muted.Render(fmt.Sprintf("  files %d", s.AttachmentCount))
		}
		lines = append(lines, line)
	}
	_, _ = fmt.Fprintln(w, theme.Pane.Render(strings.Join(lines, "\n")))
}

func renderMetadata(w io.Writer, meta sessiondto.MetadataOutput) {
	header := fmt.Sprintf("%s %s", theme.Title.Render(meta.Date), theme.Muted.Render(meta.WeekID))
	body := fmt.Sprintf("sessions %d  completed %s", meta.Total, theme.OK.Render(fmt.Sprint(meta.Completed)))
	lines := []string{header, body}
	if tags := sortedTags(meta.TagFreq); tags != "" {
		lines = append(lines, tags)
	}
	_, _ = fmt.Fprintln(w, theme.Pane.Render(strings.Join(lines, "\n")))
}

func sortedTags(freq map[string]int) string {
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, theme.Tag.Render(fmt.Sprintf("#%s×%d", k, freq[k])))
	}
	return strings.Join(parts, " ")
}

func renderCalendar(w io.Writer, out sessiondto.CalendarOutput) {
	dayLines := []string{theme.Title.Render("days")}
	if len(out.Days) == 0 {
		dayLines = append(dayLines, theme.Muted.Render("no indexed days"))
	}
	for _, d := range out.Days {
		dayLines = append(dayLines, fmt.Sprintf("%s %s  %d/%d", d.Date, theme.Muted.Render(d.WeekID), d.Completed, d.Total))
	}
	tagLines := []string{theme.Title.Render("top tags")}
	for _, t := range out.TopTags {
		tagLines = append(tagLines, fmt.Sprintf("%s %d", theme.Tag.Render("#"+t.Tag), t.Count))
	}
	_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Pane.Render(strings.Join(dayLines, "\n")),
		theme.Pane.Render(strings.Join(tagLines, "\n")),
	))
}

func renderItems(w io.Writer, title string, items []reviewdto.ItemOutput) {
	lines := []string{theme.Title.Render(title)}
	for _, it := range items {
		mark := theme.Muted.Render("○")
		if it.Completed {
			mark = theme.OK.Render("●")
		}
		lines = append(lines, fmt.Sprintf("%s %-9s %s  %s", mark, it.ID, it.Date, theme.Muted.Render(it.Label)))
	}
	_, _ = fmt.Fprintln(w, theme.Pane.Render(strings.Join(lines, "\n")))
}

func renderSchedule(w io.Writer, out reviewdto.ScheduleOutput) {
	if out.Total == 0 {
		_, _ = fmt.Fprintf(w, "%s %s\n", theme.Title.Render(out.SessionID), theme.Muted.Render("no review schedule"))
		return
	}
	title := fmt.Sprintf("%s  %d/%d", out.SessionID, out.Completed, out.Total)
	renderItems(w, title, out.Items)
	switch {
	case out.AllCompleted:
		_, _ = fmt.Fprintln(w, theme.OK.Render("all reviews completed"))
	case out.NextDate != "":
		_, _ = fmt.Fprintf(w, "next review %s\n", theme.Hot.Render(out.NextDate))
	}
}

func renderRepair(w io.Writer, r sessiondto.RepairOutput) {
	_, _ = fmt.Fprintf(w, "%s indexed=%d recovered=%d dropped=%d corrupt=%d tmp=%d\n",
		theme.Title.Render(r.Date), len(r.Indexed), len(r.Recovered), len(r.Dropped), len(r.Corrupt), r.TempRemoved)
	for _, c := range r.Corrupt {
		_, _ = fmt.Fprintf(w, "  %s %s\n", theme.Err.Render("corrupt"), c)
	}
}
