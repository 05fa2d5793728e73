package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jakechorley/clinic-cover/pkg/core/services"
)

// NotificationsCmd creates the notifications command
func NotificationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show your notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			cursor, _ := cmd.Flags().GetString("cursor")

			actor, err := app.Actor()
			if err != nil {
				return err
			}

			page, err := services.ListNotifications(app.Ctx, app.Store, app.Logger, actor.ID, limit, cursor)
			if err != nil {
				return err
			}

			fmt.Println()
			if len(page.Notifications) == 0 {
				fmt.Println("No notifications.")
			}

			bold := color.New(color.Bold)
			for _, n := range page.Notifications {
				marker := " "
				title := n.Title
				if !n.Read {
					marker = "•"
					title = bold.Sprint(n.Title)
				}
				fmt.Printf("%s %s  %-16s %s\n", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Type, title)
				fmt.Printf("    %s  (%s)\n", n.Message, n.ID)
			}

			if page.NextCursor != "" {
				fmt.Printf("\nMore available: --cursor %s\n", page.NextCursor)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Page size (default 50, max 100)")
	cmd.Flags().String("cursor", "", "Continue from a previous page")

	return cmd
}

// MarkReadCmd creates the markRead command
func MarkReadCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "markRead [notification_id...]",
		Short: "Mark notifications read (all unread when no ids are given)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.Actor()
			if err != nil {
				return err
			}

			marked, err := services.MarkNotificationsRead(app.Ctx, app.Store, app.Logger, actor.ID, args)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Marked %d notifications read\n", marked)
			return nil
		},
	}
}

// ClearNotificationsCmd creates the clearNotifications command
func ClearNotificationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clearNotifications [notification_id]",
		Short: "Delete one notification, or your whole inbox",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			onlyRead, _ := cmd.Flags().GetBool("only-read")

			actor, err := app.Actor()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := services.DeleteNotification(app.Ctx, app.Store, app.Logger, actor.ID, args[0]); err != nil {
					return err
				}
				fmt.Printf("✓ Deleted notification %s\n", args[0])
				return nil
			}

			deleted, err := services.DeleteNotifications(app.Ctx, app.Store, app.Logger, actor.ID, onlyRead)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Deleted %d notifications\n", deleted)
			return nil
		},
	}

	cmd.Flags().Bool("only-read", false, "Keep unread notifications")

	return cmd
}
