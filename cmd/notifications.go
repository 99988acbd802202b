package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/webook-dev/webook-client/pkg/api"
)

var (
	notificationsListType string
	notificationsReadType string
	notificationsOffset   int
	notificationsLimit    int
)

var NotificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Read your notifications",
}

var notificationsCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show unread counts per category",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsCounts,
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications of a category",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [id]...",
	Short: "Mark notifications as read",
	Long: `Mark the given notifications as read. Without ids, every notification of
--type is marked, or all of them when --type is empty.`,
	RunE: runNotificationsRead,
}

func init() {
	notificationsListCmd.Flags().StringVarP(&notificationsListType, "type", "t", string(api.CategoryInteraction), "interaction, follow or system")
	notificationsListCmd.Flags().IntVar(&notificationsOffset, "offset", 0, "number of notifications to skip")
	notificationsListCmd.Flags().IntVar(&notificationsLimit, "limit", 20, "maximum number of notifications")
	notificationsReadCmd.Flags().StringVarP(&notificationsReadType, "type", "t", "", "category to mark when no ids are given")

	NotificationsCmd.AddCommand(notificationsCountsCmd)
	NotificationsCmd.AddCommand(notificationsListCmd)
	NotificationsCmd.AddCommand(notificationsReadCmd)
}

func runNotificationsCounts(cmd *cobra.Command, args []string) error {
	counts, err := current.service.Notifications.UnreadCounts(cmd.Context())
	if err != nil {
		return err
	}
	renderTable(current.out, []string{"Category", "Unread"}, [][]string{
		{string(api.CategoryInteraction), id(counts.Interaction)},
		{string(api.CategoryFollow), id(counts.Follow)},
		{string(api.CategorySystem), id(counts.System)},
		{"total", id(counts.Total)},
	})
	return nil
}

func runNotificationsList(cmd *cobra.Command, args []string) error {
	page := api.Page{Offset: notificationsOffset, Limit: notificationsLimit}
	items, err := current.service.Notifications.List(cmd.Context(), api.Category(notificationsListType), page)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(items))
	for _, n := range items {
		from := ""
		if n.Sender != nil {
			from = n.Sender.Name
		}
		about := ""
		if n.Target != nil {
			about = truncate(n.Target.Title, 30)
		}
		rows = append(rows, []string{id(n.ID), n.Status, from, truncate(n.Content, 40), about, n.Time})
	}
	renderTable(current.out, []string{"ID", "Status", "From", "Content", "About", "Time"}, rows)
	return nil
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	req := api.MarkRead{Type: api.Category(notificationsReadType)}
	for _, arg := range args {
		n, err := parseID(arg)
		if err != nil {
			return err
		}
		req.IDs = append(req.IDs, n)
	}
	if err := current.service.Notifications.MarkRead(cmd.Context(), req); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(current.out, "Marked as read")
	return nil
}
