package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/clinic-cover/pkg/core/model"
	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// ListSupervisorsCmd creates the listSupervisors command
func ListSupervisorsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listSupervisors",
		Short: "List active supervisors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			supervisors, err := services.ListSupervisors(app.Ctx, app.Store, app.Logger)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d supervisors:\n\n", len(supervisors))
			for _, s := range supervisors {
				fmt.Printf("- %s (%s) - %s - %s\n", s.DisplayName, s.ID, s.Email, s.Role)
			}
			fmt.Println()
			return nil
		},
	}
}

// AddSupervisorCmd creates the addSupervisor command
func AddSupervisorCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addSupervisor <display_name> <email>",
		Short: "Register a supervisor (admin only, except for the first one)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			role, _ := cmd.Flags().GetString("role")

			// The first supervisor bootstraps an empty store without --as
			existing, err := app.Store.ListSupervisors(app.Ctx, false)
			if err != nil {
				return fmt.Errorf("failed to list supervisors: %w", err)
			}
			if len(existing) > 0 {
				actor, err := app.Actor()
				if err != nil {
					return err
				}
				if actor.Role != model.RoleAdmin {
					return fmt.Errorf("only admins can add supervisors")
				}
			}

			supervisor, err := services.AddSupervisor(app.Ctx, app.Store, app.Logger, services.AddSupervisorInput{
				ID:          id,
				DisplayName: args[0],
				Email:       args[1],
				Role:        model.Role(strings.ToUpper(role)),
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Added %s (%s) as %s\n\n", supervisor.DisplayName, supervisor.ID, supervisor.Role)
			return nil
		},
	}

	cmd.Flags().String("id", "", "Supervisor id (generated when empty)")
	cmd.Flags().String("role", string(model.RoleUser), "USER or ADMIN")

	return cmd
}

// ProfileCmd creates the profile command
func ProfileCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the acting supervisor's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			profile, err := services.GetSupervisorProfile(app.Ctx, app.Store, actor.ID)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s (%s)\n", profile.Supervisor.DisplayName, profile.Supervisor.ID)
			fmt.Printf("  Email:                %s\n", profile.Supervisor.Email)
			fmt.Printf("  Role:                 %s\n", profile.Supervisor.Role)
			fmt.Printf("  Requests:             %d\n", profile.Requests)
			fmt.Printf("  Sessions covering:    %d\n", profile.CoveredSessions)
			fmt.Printf("  Unread notifications: %d\n\n", profile.UnreadNotifications)
			return nil
		},
	}
}
