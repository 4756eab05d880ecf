package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Read and acknowledge notifications",
}

var listNotificationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notifications, newest first",
	Long: `List notifications for the acting user.

Examples:
  sprinta notifications list --unread
  sprinta notifications list --messages --limit 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unread, _ := cmd.Flags().GetBool("unread")
		messages, _ := cmd.Flags().GetBool("messages")
		limit, _ := cmd.Flags().GetInt("limit")
		return listNotifications(cmd, unread, messages, limit)
	},
}

var readNotificationCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark one notification, or all with --all, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("pass a notification id or --all")
		}
		req := dto.MarkReadRequest{MarkAllAsRead: all}
		if all {
			userID, err := requireUser()
			if err != nil {
				return err
			}
			req.UserID = userID
		} else {
			req.ID = args[0]
		}
		var res dto.MarkReadResponse
		raw, err := call(cmd.Context(), http.MethodPut, "/notifications", nil, req, &res)
		if err != nil {
			return err
		}
		if output == "json" {
			printJSON(raw)
			return nil
		}
		fmt.Printf("Marked %d notification(s) as read\n", res.MarkedCount)
		return nil
	},
}

var notificationStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show unread count and connected realtime clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats realtime.Stats
		raw, err := call(cmd.Context(), http.MethodGet, "/notifications/stream/stats", nil, nil, &stats)
		if err != nil {
			return err
		}
		if output == "json" {
			printJSON(raw)
			return nil
		}
		fmt.Printf("Connected clients: %d across %d user(s)\n", stats.TotalClients, stats.TotalUsers)

		if userID, err := requireUser(); err == nil {
			var unread dto.UnreadCountResponse
			if _, err := call(cmd.Context(), http.MethodGet, "/notifications/unread-count", url.Values{"userId": {userID}}, nil, &unread); err != nil {
				return err
			}
			fmt.Printf("Unread notifications: %d\n", unread.Count)
		}
		return nil
	},
}

func init() {
	notificationsCmd.AddCommand(listNotificationsCmd)
	notificationsCmd.AddCommand(readNotificationCmd)
	notificationsCmd.AddCommand(notificationStatsCmd)

	listNotificationsCmd.Flags().Bool("unread", false, "Only unread notifications")
	listNotificationsCmd.Flags().Bool("messages", false, "Include message notifications")
	listNotificationsCmd.Flags().IntP("limit", "l", 50, "Maximum number of results")

	readNotificationCmd.Flags().Bool("all", false, "Mark every notification read")
}

func listNotifications(cmd *cobra.Command, unread, messages bool, limit int) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("userId", userID)
	q.Set("limit", strconv.Itoa(limit))
	if unread {
		q.Set("unreadOnly", "true")
	}
	if messages {
		q.Set("includeMessages", "true")
	}

	var items []notifications.Item
	raw, err := call(cmd.Context(), http.MethodGet, "/notifications", q, nil, &items)
	if err != nil {
		return err
	}
	if output == "json" {
		printJSON(raw)
		return nil
	}

	if len(items) == 0 {
		fmt.Println("No notifications")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tREAD\tCREATED")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", it.ID, it.Type, it.Title, it.Read, it.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
