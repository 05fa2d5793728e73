package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/clinic-cover/internal/api/dto"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// CreateRequestCmd creates the createRequest command
func CreateRequestCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createRequest <start_date> <end_date>",
		Short: "Ask for cover between two dates",
		Long: `Create a time off request for the acting supervisor.

Sessions come either from configured clinics (--clinic, repeatable) or are
listed one by one with --session "Clinic Name,YYYY-MM-DD,HH:MM,HH:MM[,notes]".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clinics, _ := cmd.Flags().GetStringArray("clinic")
			rawSessions, _ := cmd.Flags().GetStringArray("session")

			actor, err := app.Actor()
			if err != nil {
				return err
			}

			start, err := dto.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := dto.ParseDate(args[1])
			if err != nil {
				return err
			}

			var sessions []services.SessionInput
			switch {
			case len(clinics) > 0 && len(rawSessions) > 0:
				return fmt.Errorf("use either --clinic or --session, not both")
			case len(clinics) > 0:
				sessions, err = services.ExpandNamedClinics(app.Cfg, clinics, start, end)
			default:
				sessions, err = parseSessionFlags(rawSessions)
			}
			if err != nil {
				return err
			}

			app.Logger.Debug("createRequest command",
				zap.String("supervisor_id", actor.ID),
				zap.Int("sessions", len(sessions)))

			request, err := services.CreateRequest(app.Ctx, app.Store, app.Dispatcher, app.Logger, services.CreateRequestInput{
				RequestingSupervisorID: actor.ID,
				StartDate:              start,
				EndDate:                end,
				Sessions:               sessions,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Request created!\n\n")
			printRequest(os.Stdout, request)
			fmt.Println()
			printSessions(os.Stdout, request.Sessions)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringArray("clinic", nil, "Configured clinic to expand into sessions")
	cmd.Flags().StringArray("session", nil, `Session as "Clinic Name,YYYY-MM-DD,HH:MM,HH:MM[,notes]"`)

	return cmd
}

// parseSessionFlags parses --session values into session inputs
func parseSessionFlags(values []string) ([]services.SessionInput, error) {
	sessions := make([]services.SessionInput, 0, len(values))
	for _, value := range values {
		parts := strings.SplitN(value, ",", 5)
		if len(parts) < 4 {
			return nil, fmt.Errorf("invalid session %q, expected clinic,date,start,end[,notes]", value)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		req := dto.SessionRequest{
			ClinicName: parts[0],
			Date:       parts[1],
			StartTime:  parts[2],
			EndTime:    parts[3],
		}
		if len(parts) == 5 {
			req.Notes = parts[4]
		}

		session, err := req.ToInput()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// ShowRequestCmd creates the showRequest command
func ShowRequestCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "showRequest <request_id>",
		Short: "Show a request with its sessions and coverage history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := services.GetRequest(app.Ctx, app.Store, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Println()
			printRequest(os.Stdout, detail.Request)
			fmt.Println()
			printSessions(os.Stdout, detail.Request.Sessions)

			fmt.Printf("\nHistory:\n")
			if len(detail.History) == 0 {
				fmt.Println("  No coverage changes yet.")
			}
			for _, e := range detail.History {
				fmt.Printf("  %s  %-8s %s by %s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04"),
					e.Action,
					e.SessionID,
					e.ActingSupervisorID,
				)
			}
			fmt.Println()
			return nil
		},
	}
}

// ListRequestsCmd creates the listRequests command
func ListRequestsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listRequests",
		Short: "List time off requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			supervisorID, _ := cmd.Flags().GetString("supervisor")
			fromFlag, _ := cmd.Flags().GetString("from")
			toFlag, _ := cmd.Flags().GetString("to")
			status, _ := cmd.Flags().GetString("status")

			startFrom, err := dto.ParseOptionalDate(fromFlag)
			if err != nil {
				return err
			}
			startTo, err := dto.ParseOptionalDate(toFlag)
			if err != nil {
				return err
			}

			requests, err := services.ListRequests(app.Ctx, app.Store, app.Logger, services.RequestQuery{
				SupervisorID: supervisorID,
				StartFrom:    startFrom,
				StartTo:      startTo,
				Status:       model.RequestStatus(strings.ToUpper(status)),
			})
			if err != nil {
				return err
			}

			fmt.Println()
			printRequests(os.Stdout, requests)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("supervisor", "", "Only requests by this supervisor")
	cmd.Flags().String("from", "", "Earliest start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Latest start date (YYYY-MM-DD)")
	cmd.Flags().String("status", "", "PENDING, PARTIAL_COVERED or FULLY_COVERED")

	return cmd
}

// MyRequestsCmd creates the myRequests command
func MyRequestsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "myRequests",
		Short: "List your own requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			requests, err := services.ListMyRequests(app.Ctx, app.Store, app.Logger, actor.ID)
			if err != nil {
				return err
			}

			fmt.Println()
			printRequests(os.Stdout, requests)
			fmt.Println()
			return nil
		},
	}
}

// UpdateRequestCmd creates the updateRequest command
func UpdateRequestCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "updateRequest <request_id> <start_date> <end_date>",
		Short: "Change the dates of your request while nothing is covered",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			start, err := dto.ParseDate(args[1])
			if err != nil {
				return err
			}
			end, err := dto.ParseDate(args[2])
			if err != nil {
				return err
			}

			request, err := app.Coordinator.UpdateRequestDates(app.Ctx, args[0], actor.ID, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Request updated\n\n")
			printRequest(os.Stdout, request)
			fmt.Println()
			return nil
		},
	}
}

// DeleteRequestCmd creates the deleteRequest command
func DeleteRequestCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteRequest <request_id>",
		Short: "Withdraw your request while nothing is covered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			if err := app.Coordinator.DeleteRequest(app.Ctx, args[0], actor.ID); err != nil {
				return err
			}

			fmt.Printf("\n✓ Request %s deleted\n\n", args[0])
			return nil
		},
	}
}
