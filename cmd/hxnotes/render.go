package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/internal/notes_sync"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	errorBanner = color.New(color.FgRed, color.Bold)
	dimmed      = color.New(color.Faint)
)

func authorBadge(a notes.Author) string {
	style := a.Style()
	return color.New(color.Attribute(style.TermColor), color.Bold).Sprint(style.Label)
}

func renderError(out io.Writer, msg string) {
	fmt.Fprintln(out, errorBanner.Sprint("! "+msg))
}

// renderState prints the error banner, if any, above the list.
// A failed fetch still shows the last loaded notes.
func renderState(out io.Writer, state notes_sync.State, now time.Time) {
	if state.Err != nil {
		renderError(out, state.ErrorMessage())
	}

	if len(state.Notes) == 0 {
		if state.Status == notes_sync.StatusLoaded {
			fmt.Fprintln(out, dimmed.Sprintf("no notes [%s]", state.Filter.Label()))
		}
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Author", "Title", "Updated"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, n := range state.Notes {
		title := n.Title
		if n.HasBody() {
			title += " " + dimmed.Sprint("+")
		}
		table.Append([]string{
			strconv.Itoa(n.Id),
			authorBadge(n.Author),
			title,
			notes.RelativeTime(n.UpdatedAt.Time, now),
		})
	}
	table.Render()
}

func renderNote(out io.Writer, n notes.Note, now time.Time) {
	fmt.Fprintf(out, "#%d %s  %s\n", n.Id, authorBadge(n.Author), n.Title)
	if n.HasBody() {
		fmt.Fprintf(out, "\n%s\n\n", *n.Body)
	}

	updated := notes.RelativeTime(n.UpdatedAt.Time, now)
	if n.UpdatedAt.Equal(n.CreatedAt.Time) {
		fmt.Fprintln(out, dimmed.Sprintf("created %s", updated))
		return
	}
	fmt.Fprintln(out, dimmed.Sprintf("created %s, edited %s", notes.RelativeTime(n.CreatedAt.Time, now), updated))
}
