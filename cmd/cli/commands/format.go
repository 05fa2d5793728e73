package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

const dateLayout = "2006-01-02"

type coverageLevel int

const (
	levelLow coverageLevel = iota
	levelPartial
	levelFull
)

// levelOf buckets a covered/total pair: nothing covered, some covered, all covered.
// An empty set counts as fully covered.
func levelOf(covered, total int) coverageLevel {
	switch {
	case total == 0 || covered >= total:
		return levelFull
	case covered == 0:
		return levelLow
	default:
		return levelPartial
	}
}

func (l coverageLevel) color() *color.Color {
	switch l {
	case levelFull:
		return color.New(color.FgGreen)
	case levelPartial:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func statusLevel(status model.RequestStatus) coverageLevel {
	switch status {
	case model.StatusFullyCovered:
		return levelFull
	case model.StatusPartialCovered:
		return levelPartial
	default:
		return levelLow
	}
}

func printSession(w io.Writer, s *model.ClinicSession) {
	holder := color.New(color.FgRed).Sprint("uncovered")
	if s.IsCovered() {
		holder = color.New(color.FgGreen).Sprintf("covered by %s", s.CoveringSupervisorID)
	}

	fmt.Fprintf(w, "  %s  %s %s-%s  %-24s %s\n",
		s.ID,
		s.Date.Format("Mon 02 Jan"),
		s.StartTime.Format("15:04"),
		s.EndTime.Format("15:04"),
		s.ClinicName,
		holder,
	)
	if s.Notes != "" {
		fmt.Fprintf(w, "      %s\n", color.New(color.Faint).Sprint(s.Notes))
	}
}

func printSessions(w io.Writer, sessions []model.ClinicSession) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}
	for i := range sessions {
		printSession(w, &sessions[i])
	}
}

func printRequest(w io.Writer, r *model.TimeOffRequest) {
	status := statusLevel(r.Status).color().Sprint(string(r.Status))
	fmt.Fprintf(w, "%s  %s  %s to %s  %s (%d/%d)\n",
		r.ID,
		r.RequestingSupervisorID,
		r.StartDate.Format(dateLayout),
		r.EndDate.Format(dateLayout),
		status,
		r.Progress.Covered,
		r.Progress.Total,
	)
}

func printRequests(w io.Writer, requests []model.TimeOffRequest) {
	if len(requests) == 0 {
		fmt.Fprintln(w, "No requests found.")
		return
	}
	for i := range requests {
		printRequest(w, &requests[i])
	}
}

// progressBar renders covered/total as a fixed-width bar
func progressBar(covered, total, width int) string {
	filled := width
	if total > 0 {
		filled = covered * width / total
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
