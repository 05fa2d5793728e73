package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
	"github.com/jakechorley/clinic-cover/pkg/db"
)

// ClaimCmd creates the claim command
func ClaimCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <session_id>",
		Short: "Cover a session as the acting supervisor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			session, err := app.Coordinator.Claim(app.Ctx, args[0], actor.ID)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ You are now covering this session\n\n")
			printSession(os.Stdout, session)
			fmt.Println()
			return nil
		},
	}
}

// ReleaseCmd creates the release command
func ReleaseCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "release <session_id>",
		Short: "Give up coverage of a session (holder or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			session, err := app.Coordinator.Release(app.Ctx, args[0], actor.ID, actor.Role)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Session released\n\n")
			printSession(os.Stdout, session)
			fmt.Println()
			return nil
		},
	}
}

// UncoveredCmd creates the uncovered command
func UncoveredCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uncovered",
		Short: "List sessions that still need cover",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromFlag, _ := cmd.Flags().GetString("from")
			toFlag, _ := cmd.Flags().GetString("to")
			clinic, _ := cmd.Flags().GetString("clinic")
			limit, _ := cmd.Flags().GetInt("limit")

			from, err := dto.ParseOptionalDate(fromFlag)
			if err != nil {
				return err
			}
			to, err := dto.ParseOptionalDate(toFlag)
			if err != nil {
				return err
			}

			sessions, err := services.ListUncoveredSessions(app.Ctx, app.Store, app.Logger, services.UncoveredQuery{
				From:       from,
				To:         to,
				ClinicName: clinic,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n%d uncovered sessions:\n\n", len(sessions))
			printSessions(os.Stdout, sessions)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("from", "", "Earliest session date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Latest session date (YYYY-MM-DD)")
	cmd.Flags().String("clinic", "", "Only clinics whose name contains this text")
	cmd.Flags().Int("limit", 0, "Maximum sessions to show (default 50, max 100)")

	return cmd
}

// SessionsCmd creates the sessions command
func SessionsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions <from> <to>",
		Short: "List sessions between two dates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coverage, _ := cmd.Flags().GetString("coverage")

			from, err := dto.ParseDate(args[0])
			if err != nil {
				return err
			}
			to, err := dto.ParseDate(args[1])
			if err != nil {
				return err
			}

			filter, err := parseCoverageFilter(coverage)
			if err != nil {
				return err
			}

			sessions, err := services.ListSessionsInRange(app.Ctx, app.Store, app.Logger, from, to, filter)
			if err != nil {
				return err
			}

			fmt.Println()
			printSessions(os.Stdout, sessions)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("coverage", "any", "Filter by coverage: any, covered or uncovered")

	return cmd
}

// UpcomingCmd creates the upcoming command
func UpcomingCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List sessions in the next few days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			mine, _ := cmd.Flags().GetBool("mine")

			var supervisorID string
			if mine {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				supervisorID = actor.ID
			}

			app.Logger.Debug("upcoming command", zap.Int("days", days), zap.Bool("mine", mine))

			sessions, err := services.ListUpcomingSessions(app.Ctx, app.Store, app.Logger, time.Now(), days, supervisorID, mine)
			if err != nil {
				return err
			}

			fmt.Println()
			printSessions(os.Stdout, sessions)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "How many days ahead to look (default 7, max 30)")
	cmd.Flags().Bool("mine", false, "Only sessions the acting supervisor covers")

	return cmd
}

// MyCoverageCmd creates the myCoverage command
func MyCoverageCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "myCoverage",
		Short: "List the sessions you are covering from today on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			sessions, err := services.ListMyCoverage(app.Ctx, app.Store, app.Logger, time.Now(), actor.ID)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s is covering %d sessions:\n\n", actor.DisplayName, len(sessions))
			printSessions(os.Stdout, sessions)
			fmt.Println()
			return nil
		},
	}
}

// ClinicsCmd creates the clinics command
func ClinicsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clinics <search>",
		Short: "Suggest clinic names containing the search text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := services.ClinicNameSuggestions(app.Ctx, app.Store, app.Logger, args[0])
			if err != nil {
				return err
			}

			if len(names) == 0 {
				fmt.Println("No matching clinics.")
				return nil
			}
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}
}

func parseCoverageFilter(value string) (db.CoverageFilter, error) {
	switch value {
	case "", "any":
		return db.CoverageAny, nil
	case "covered":
		return db.CoverageCovered, nil
	case "uncovered":
		return db.CoverageUncovered, nil
	default:
		return db.CoverageAny, fmt.Errorf("coverage must be any, covered or uncovered, got %q", value)
	}
}
