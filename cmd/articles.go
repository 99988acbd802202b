package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/webook-dev/webook-client/pkg/api"
)

var (
	listMine      bool
	listFollowing bool
	listCollected bool
	listTag       string
	listAuthor    int64
	listOffset    int
	listLimit     int

	publishID      int64
	publishTitle   string
	publishContent string
	publishFile    string
	publishTags    string
	publishDraft   bool

	likeCancel bool

	generateType        string
	generateFile        string
	generateInstruction string
)

var ArticlesCmd = &cobra.Command{
	Use:     "articles",
	Aliases: []string{"article"},
	Short:   "Read, write and like articles",
}

var articlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles",
	Long: `List published articles, newest first.

By default the recommended feed is shown. The flags select another list:
  --mine        your own articles, drafts included
  --following   articles of the authors you follow
  --collected   articles you collected
  --tag TAG     articles carrying an official tag
  --author UID  articles of one author`,
	Args: cobra.NoArgs,
	RunE: runArticlesList,
}

var articlesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesShow,
}

var articlesPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish an article or save a draft",
	Long: `Publish an article. The content comes from --content, --file, or stdin when
--file is "-". Pass --id to update an existing article and --draft to save
without publishing.`,
	Args: cobra.NoArgs,
	RunE: runArticlesPublish,
}

var articlesLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Like an article",
	Args:  cobra.ExactArgs(1),
	RunE:  runArticlesLike,
}

var articlesGenerateCmd = &cobra.Command{
	Use:   "generate [content]",
	Short: "Run the AI writing assistant",
	Long: `Ask the AI assistant to summarize (generate), polish or tag content.
The content is read from the argument or from --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArticlesGenerate,
}

func init() {
	flags := articlesListCmd.Flags()
	flags.BoolVar(&listMine, "mine", false, "list your own articles")
	flags.BoolVar(&listFollowing, "following", false, "list articles of followed authors")
	flags.BoolVar(&listCollected, "collected", false, "list collected articles")
	flags.StringVar(&listTag, "tag", "", "list articles with an official tag")
	flags.Int64Var(&listAuthor, "author", 0, "list articles of an author")
	flags.IntVar(&listOffset, "offset", 0, "number of articles to skip")
	flags.IntVar(&listLimit, "limit", 20, "maximum number of articles")
	articlesListCmd.MarkFlagsMutuallyExclusive("mine", "following", "collected", "tag", "author")

	flags = articlesPublishCmd.Flags()
	flags.Int64Var(&publishID, "id", 0, "id of the article to update")
	flags.StringVar(&publishTitle, "title", "", "article title")
	flags.StringVar(&publishContent, "content", "", "article content")
	flags.StringVarP(&publishFile, "file", "f", "", "read the content from a file, - for stdin")
	flags.StringVar(&publishTags, "tags", "", "comma separated tags")
	flags.BoolVar(&publishDraft, "draft", false, "save without publishing")
	articlesPublishCmd.MarkFlagsMutuallyExclusive("content", "file")
	if err := articlesPublishCmd.MarkFlagRequired("title"); err != nil {
		panic(err)
	}

	articlesLikeCmd.Flags().BoolVar(&likeCancel, "cancel", false, "take the like back")

	flags = articlesGenerateCmd.Flags()
	flags.StringVarP(&generateType, "type", "t", api.GenerateSummary, "generate, polish or tag")
	flags.StringVarP(&generateFile, "file", "f", "", "read the content from a file, - for stdin")
	flags.StringVar(&generateInstruction, "instruction", "", "extra instruction for the assistant")

	ArticlesCmd.AddCommand(articlesListCmd)
	ArticlesCmd.AddCommand(articlesShowCmd)
	ArticlesCmd.AddCommand(articlesPublishCmd)
	ArticlesCmd.AddCommand(articlesLikeCmd)
	ArticlesCmd.AddCommand(articlesGenerateCmd)
}

func runArticlesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	articles := current.service.Articles
	page := api.Page{Offset: listOffset, Limit: listLimit}

	var (
		list []api.Article
		err  error
	)
	switch {
	case listMine:
		list, err = articles.List(ctx, page)
	case listFollowing:
		list, err = articles.Following(ctx, page)
	case listCollected:
		list, err = articles.Collected(ctx, page)
	case listTag != "":
		list, err = articles.ByTag(ctx, listTag, page)
	case listAuthor != 0:
		list, err = articles.ByAuthor(ctx, listAuthor, page)
	default:
		list, err = articles.Recommend(ctx, page)
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			id(a.ID),
			truncate(a.Title, 40),
			a.Author.Name,
			statusName(a.Status),
			fmt.Sprintf("%d/%d/%d", a.ReadCnt, a.LikeCnt, a.CollectCnt),
			a.Utime,
		})
	}
	renderTable(current.out, []string{"ID", "Title", "Author", "Status", "Read/Like/Collect", "Updated"}, rows)
	return nil
}

func statusName(status int) string {
	switch status {
	case api.ArticleStatusUnpublished:
		return "draft"
	case api.ArticleStatusPublished:
		return "published"
	case api.ArticleStatusPrivate:
		return "private"
	default:
		return ""
	}
}

func runArticlesShow(cmd *cobra.Command, args []string) error {
	articleID, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := current.service.Articles.Published(cmd.Context(), articleID)
	if err != nil {
		return err
	}

	out := current.out
	_, _ = fmt.Fprintf(out, "%s\n", a.Title)
	_, _ = fmt.Fprintf(out, "by %s (id %d), %s\n", a.Author.Name, a.Author.ID, a.Ctime)
	if len(a.Tags) > 0 {
		_, _ = fmt.Fprintf(out, "tags: %s\n", strings.Join(a.Tags, ", "))
	}
	_, _ = fmt.Fprintf(out, "reads %d  likes %d  collects %d", a.ReadCnt, a.LikeCnt, a.CollectCnt)
	if a.Liked {
		_, _ = fmt.Fprint(out, "  (liked)")
	}
	_, _ = fmt.Fprintf(out, "\n\n%s\n", a.Content)

	// reading an article counts as a read
	if err := current.service.Interactive.IncrRead(cmd.Context(), api.BizArticle, a.ID); err != nil {
		return err
	}
	return nil
}

func runArticlesPublish(cmd *cobra.Command, args []string) error {
	content := publishContent
	if publishFile != "" {
		data, err := readInput(cmd, publishFile)
		if err != nil {
			return err
		}
		content = data
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}

	draft := api.Draft{ID: publishID, Title: publishTitle, Content: content, Tags: splitTags(publishTags)}
	var (
		articleID int64
		err       error
		verb      = "Published"
	)
	if publishDraft {
		articleID, err = current.service.Articles.Save(cmd.Context(), draft)
		verb = "Saved draft"
	} else {
		articleID, err = current.service.Articles.Publish(cmd.Context(), draft)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(current.out, "%s %d\n", verb, articleID)
	return nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func runArticlesLike(cmd *cobra.Command, args []string) error {
	articleID, err := parseID(args[0])
	if err != nil {
		return err
	}
	if likeCancel {
		if err := current.service.Articles.CancelLike(cmd.Context(), articleID); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(current.out, "Unliked %d\n", articleID)
		return nil
	}
	if err := current.service.Articles.Like(cmd.Context(), articleID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(current.out, "Liked %d\n", articleID)
	return nil
}

func runArticlesGenerate(cmd *cobra.Command, args []string) error {
	var content string
	switch {
	case len(args) == 1:
		content = args[0]
	case generateFile != "":
		data, err := readInput(cmd, generateFile)
		if err != nil {
			return err
		}
		content = data
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}

	res, err := current.service.Articles.Generate(cmd.Context(), api.GenerateRequest{
		Content:     content,
		Type:        generateType,
		Instruction: generateInstruction,
	})
	if err != nil {
		return err
	}

	out := current.out
	if res.Title != "" {
		_, _ = fmt.Fprintf(out, "Title: %s\n", res.Title)
	}
	if res.Abstract != "" {
		_, _ = fmt.Fprintf(out, "Abstract: %s\n", res.Abstract)
	}
	if len(res.Tags) > 0 {
		_, _ = fmt.Fprintf(out, "Tags: %s\n", strings.Join(res.Tags, ", "))
	}
	if res.Content != "" {
		_, _ = fmt.Fprintf(out, "\n%s\n", res.Content)
	}
	return nil
}

// readInput reads a whole file, or stdin for "-"
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
