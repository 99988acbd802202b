package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/webook-dev/webook-client/pkg/api"
)

var (
	followOffset int
	followLimit  int
)

var FollowCmd = &cobra.Command{
	Use:   "follow",
	Short: "Follow authors and list follow relations",
}

var followAddCmd = &cobra.Command{
	Use:   "add <uid>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollowAdd,
}

var followRemoveCmd = &cobra.Command{
	Use:   "remove <uid>",
	Short: "Stop following a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollowRemove,
}

var followeesCmd = &cobra.Command{
	Use:   "followees [uid]",
	Short: "List who a user follows (default: you)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFollowees,
}

var followersCmd = &cobra.Command{
	Use:   "followers [uid]",
	Short: "List who follows a user (default: you)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFollowers,
}

func init() {
	for _, c := range []*cobra.Command{followeesCmd, followersCmd} {
		c.Flags().IntVar(&followOffset, "offset", 0, "number of relations to skip")
		c.Flags().IntVar(&followLimit, "limit", 20, "maximum number of relations")
	}

	FollowCmd.AddCommand(followAddCmd)
	FollowCmd.AddCommand(followRemoveCmd)
	FollowCmd.AddCommand(followeesCmd)
	FollowCmd.AddCommand(followersCmd)
}

func runFollowAdd(cmd *cobra.Command, args []string) error {
	uid, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := current.service.Follow.Follow(cmd.Context(), uid); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(current.out, "Following %d\n", uid)
	return nil
}

func runFollowRemove(cmd *cobra.Command, args []string) error {
	uid, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := current.service.Follow.Cancel(cmd.Context(), uid); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(current.out, "Unfollowed %d\n", uid)
	return nil
}

// targetUser returns the uid argument, or the signed in user without one
func targetUser(args []string) (int64, error) {
	if len(args) == 1 {
		return parseID(args[0])
	}
	uid, err := current.client.Session().UserID()
	if err != nil || uid == 0 {
		return 0, api.ErrNotLoggedIn
	}
	return uid, nil
}

func runFollowees(cmd *cobra.Command, args []string) error {
	uid, err := targetUser(args)
	if err != nil {
		return err
	}
	rels, err := current.service.Follow.Followees(cmd.Context(), uid, api.Page{Offset: followOffset, Limit: followLimit})
	if err != nil {
		return err
	}
	renderRelations(rels, func(r api.FollowRelation) int64 { return r.Followee })
	return nil
}

func runFollowers(cmd *cobra.Command, args []string) error {
	uid, err := targetUser(args)
	if err != nil {
		return err
	}
	rels, err := current.service.Follow.Followers(cmd.Context(), uid, api.Page{Offset: followOffset, Limit: followLimit})
	if err != nil {
		return err
	}
	renderRelations(rels, func(r api.FollowRelation) int64 { return r.Follower })
	return nil
}

func renderRelations(rels []api.FollowRelation, other func(api.FollowRelation) int64) {
	rows := make([][]string, 0, len(rels))
	for _, r := range rels {
		rows = append(rows, []string{id(other(r)), r.Name, truncate(r.AboutMe, 50)})
	}
	renderTable(current.out, []string{"UID", "Name", "About"}, rows)
}
