package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/webook-dev/webook-client/pkg/api"
)

var (
	commentsLimit   int
	commentsReplyTo int64
)

var CommentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Read and write comments on articles",
}

var commentsListCmd = &cobra.Command{
	Use:   "list <article-id>",
	Short: "List the comments on an article",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommentsList,
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <article-id> <content>",
	Short: "Comment on an article",
	Long: `Comment on an article. With --reply-to the comment answers another
comment and is attached to the same thread.`,
	Args: cobra.ExactArgs(2),
	RunE: runCommentsAdd,
}

func init() {
	commentsListCmd.Flags().IntVar(&commentsLimit, "limit", 20, "maximum number of top level comments")
	commentsAddCmd.Flags().Int64Var(&commentsReplyTo, "reply-to", 0, "id of the comment to answer")

	CommentsCmd.AddCommand(commentsListCmd)
	CommentsCmd.AddCommand(commentsAddCmd)
}

func runCommentsList(cmd *cobra.Command, args []string) error {
	articleID, err := parseID(args[0])
	if err != nil {
		return err
	}
	comments, err := current.service.Comments.List(cmd.Context(), api.BizArticle, articleID, 0, commentsLimit)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, c := range comments {
		rows = append(rows, []string{id(c.ID), "", id(c.UID), truncate(c.Content, 60), c.Ctime})
		for _, reply := range c.Children {
			parent := ""
			if reply.ParentComment != nil {
				parent = id(reply.ParentComment.ID)
			}
			rows = append(rows, []string{"  " + id(reply.ID), parent, id(reply.UID), truncate(reply.Content, 58), reply.Ctime})
		}
	}
	renderTable(current.out, []string{"ID", "Reply To", "User", "Content", "Time"}, rows)
	return nil
}

func runCommentsAdd(cmd *cobra.Command, args []string) error {
	articleID, err := parseID(args[0])
	if err != nil {
		return err
	}
	nc := api.NewComment{Biz: api.BizArticle, BizID: articleID, Content: args[1]}
	if commentsReplyTo != 0 {
		root, err := threadRoot(cmd, articleID, commentsReplyTo)
		if err != nil {
			return err
		}
		nc.RootID, nc.ParentID = root, commentsReplyTo
	}
	if err := current.service.Comments.Create(cmd.Context(), nc); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(current.out, "Comment posted")
	return nil
}

// threadRoot finds the top level comment of the thread commentID belongs to
func threadRoot(cmd *cobra.Command, articleID, commentID int64) (int64, error) {
	comments, err := current.service.Comments.List(cmd.Context(), api.BizArticle, articleID, 0, 0)
	if err != nil {
		return 0, err
	}
	for _, c := range comments {
		if c.ID == commentID {
			return c.ID, nil
		}
		for _, reply := range c.Children {
			if reply.ID == commentID {
				return c.ID, nil
			}
		}
	}
	return 0, fmt.Errorf("comment %d not found on article %d", commentID, articleID)
}
