package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// DashboardCmd creates the dashboard command
func DashboardCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show coverage stats, urgent sessions, deadlines and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			now := time.Now()

			var (
				stats     *services.DashboardStats
				urgent    *services.UrgentSessions
				deadlines []services.RequestDeadline
				activity  []services.ActivityEntry
			)

			g, gctx := errgroup.WithContext(app.Ctx)
			g.Go(func() (err error) {
				stats, err = services.GetDashboardStats(gctx, app.Store, app.Logger, now, actor.ID)
				return err
			})
			g.Go(func() (err error) {
				urgent, err = services.GetUrgentSessions(gctx, app.Store, app.Logger, now, app.Cfg.Coverage.UrgentWindowDays)
				return err
			})
			g.Go(func() (err error) {
				deadlines, err = services.GetUpcomingDeadlines(gctx, app.Store, app.Logger, now)
				return err
			})
			g.Go(func() (err error) {
				activity, err = services.GetRecentActivity(gctx, app.Store, app.Logger)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			header := color.New(color.Bold, color.Underline)

			fmt.Println()
			header.Println("Overview")
			rateColor := color.New(color.FgGreen)
			switch {
			case stats.CoverageRate < 50:
				rateColor = color.New(color.FgRed)
			case stats.CoverageRate < 100:
				rateColor = color.New(color.FgYellow)
			}
			fmt.Printf("  Requests:             %d (%d yours)\n", stats.TotalRequests, stats.MyRequests)
			fmt.Printf("  Sessions you cover:   %d\n", stats.MyCoveredSessions)
			fmt.Printf("  Uncovered next week:  %d\n", stats.UncoveredNextWeek)
			fmt.Printf("  Uncovered next month: %d\n", stats.UncoveredNextMonth)
			fmt.Printf("  Coverage this week:   %s\n", rateColor.Sprintf("%d%%", stats.CoverageRate))

			fmt.Println()
			header.Printf("Urgent (%d)\n", urgent.Total)
			if urgent.Total == 0 {
				fmt.Println("  Nothing urgent.")
			}
			for i := range urgent.Critical {
				fmt.Print(color.New(color.FgRed, color.Bold).Sprint("!"))
				printSession(os.Stdout, &urgent.Critical[i])
			}
			for i := range urgent.Urgent {
				fmt.Print(" ")
				printSession(os.Stdout, &urgent.Urgent[i])
			}

			fmt.Println()
			header.Println("Starting this week")
			if len(deadlines) == 0 {
				fmt.Println("  No requests start this week.")
			}
			for _, d := range deadlines {
				level := levelOf(d.Request.Progress.Covered, d.Request.Progress.Total)
				fmt.Printf("  %s  %-12s %s %s\n",
					d.Request.StartDate.Format(dateLayout),
					d.Request.RequestingSupervisorID,
					level.color().Sprint(progressBar(d.Request.Progress.Covered, d.Request.Progress.Total, 10)),
					level.color().Sprintf("%3d%%", d.Percentage),
				)
			}

			fmt.Println()
			header.Println("Recent activity")
			if len(activity) == 0 {
				fmt.Println("  No activity yet.")
			}
			for _, a := range activity {
				actorName := a.Event.ActingSupervisorID
				if a.Actor != nil {
					actorName = a.Actor.DisplayName
				}
				what := a.Event.SessionID
				if a.Session != nil {
					what = fmt.Sprintf("%s on %s", a.Session.ClinicName, a.Session.Date.Format("Mon 02 Jan"))
				}
				fmt.Printf("  %s  %s %s %s\n",
					a.Event.Timestamp.Local().Format("02 Jan 15:04"),
					actorName,
					a.Event.Action,
					what,
				)
			}
			fmt.Println()

			return nil
		},
	}
}
