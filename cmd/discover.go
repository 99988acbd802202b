package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Show the hot list",
	Args:  cobra.NoArgs,
	RunE:  runRanking,
}

var searchCmd = &cobra.Command{
	Use:   "search <expression>...",
	Short: "Search users and articles",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func runRanking(cmd *cobra.Command, args []string) error {
	top, err := current.service.Ranking.TopN(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(top))
	for i, a := range top {
		rows = append(rows, []string{id(int64(i + 1)), id(a.ID), truncate(a.Title, 40), a.Author.Name})
	}
	renderTable(current.out, []string{"Rank", "ID", "Title", "Author"}, rows)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	res, err := current.service.Search.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(res.Users)+len(res.Articles))
	for _, u := range res.Users {
		rows = append(rows, []string{"user", id(u.ID), u.Nickname, truncate(u.AboutMe, 50)})
	}
	for _, a := range res.Articles {
		rows = append(rows, []string{"article", id(a.ID), truncate(a.Title, 40), a.Author.Name})
	}
	renderTable(current.out, []string{"Type", "ID", "Name", "Detail"}, rows)
	return nil
}
