package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/webook-dev/webook-client/pkg/client"
)

// Article statuses
const (
	ArticleStatusUnknown     = 0
	ArticleStatusUnpublished = 1
	ArticleStatusPublished   = 2
	ArticleStatusPrivate     = 3
)

type Author struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Article is returned by both the author and the reader endpoints. Counters
// and the liked/collected flags are only filled by the reader endpoints.
type Article struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content,omitempty"`
	Abstract   string   `json:"abstract"`
	CoverImage string   `json:"coverImage,omitempty"`
	Author     Author   `json:"author"`
	Status     int      `json:"status,omitempty"`
	Ctime      string   `json:"ctime"`
	Utime      string   `json:"utime"`
	ReadCnt    int64    `json:"readCnt"`
	LikeCnt    int64    `json:"likeCnt"`
	CollectCnt int64    `json:"collectCnt"`
	Liked      bool     `json:"liked"`
	Collected  bool     `json:"collected"`
	Tags       []string `json:"tags,omitempty"`
}

// Draft is the editable part of an article. A zero ID creates a new one.
type Draft struct {
	ID         int64    `json:"id,omitempty"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Abstract   string   `json:"abstract,omitempty"`
	CoverImage string   `json:"coverImage,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type AuthorStats struct {
	PublishedCount int64 `json:"publishedCount"`
	DraftCount     int64 `json:"draftCount"`
	TotalReadCount int64 `json:"totalReadCount"`
	TotalLikeCount int64 `json:"totalLikeCount"`
	FollowingCount int64 `json:"followingCount"`
	FollowerCount  int64 `json:"followerCount"`
}

// Generation kinds understood by the AI assistant
const (
	GenerateSummary = "generate"
	GeneratePolish  = "polish"
	GenerateTags    = "tag"
)

type GenerateRequest struct {
	Content     string `json:"content"`
	Type        string `json:"type"`
	Instruction string `json:"instruction,omitempty"`
}

type GenerateResult struct {
	Title    string   `json:"title,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Content  string   `json:"content,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type ArticleService struct {
	c *client.Client
}

// List returns the caller's own articles, drafts included
func (s *ArticleService) List(ctx context.Context, page Page) ([]Article, error) {
	var out []Article
	if err := s.c.Post(ctx, "/articles/list", page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recommend returns published articles, newest first
func (s *ArticleService) Recommend(ctx context.Context, page Page) ([]Article, error) {
	var out []Article
	if err := s.c.Post(ctx, "/articles/pub/list", page, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Following returns published articles of the authors the caller follows
func (s *ArticleService) Following(ctx context.Context, page Page) ([]Article, error) {
	return s.listPublished(ctx, "/articles/pub/following/list", page.values())
}

func (s *ArticleService) ByAuthor(ctx context.Context, authorID int64, page Page) ([]Article, error) {
	return s.listPublished(ctx, fmt.Sprintf("/articles/pub/author/%d/list", authorID), page.values())
}

// ByTag returns published articles carrying an official tag
func (s *ArticleService) ByTag(ctx context.Context, tag string, page Page) ([]Article, error) {
	query := page.values()
	query.Set("tag", tag)
	return s.listPublished(ctx, "/articles/pub/tag/articles", query)
}

func (s *ArticleService) Collected(ctx context.Context, page Page) ([]Article, error) {
	return s.listPublished(ctx, "/articles/pub/collected/list", page.values())
}

func (s *ArticleService) listPublished(ctx context.Context, path string, query url.Values) ([]Article, error) {
	var out []Article
	if err := s.c.Get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Detail returns an article as seen by its author
func (s *ArticleService) Detail(ctx context.Context, id int64) (*Article, error) {
	return s.get(ctx, fmt.Sprintf("/articles/detail/%d", id))
}

// Published returns a published article as seen by readers
func (s *ArticleService) Published(ctx context.Context, id int64) (*Article, error) {
	return s.get(ctx, fmt.Sprintf("/articles/pub/%d", id))
}

func (s *ArticleService) get(ctx context.Context, path string) (*Article, error) {
	var a Article
	if err := s.c.Get(ctx, path, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save stores a draft and returns its id
func (s *ArticleService) Save(ctx context.Context, d Draft) (int64, error) {
	var id int64
	if err := s.c.Post(ctx, "/articles/edit", d, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Publish stores and publishes an article and returns its id
func (s *ArticleService) Publish(ctx context.Context, d Draft) (int64, error) {
	var id int64
	if err := s.c.Post(ctx, "/articles/publish", d, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Withdraw makes a published article private
func (s *ArticleService) Withdraw(ctx context.Context, id int64) error {
	return s.ownerAction(ctx, "/articles/withdraw", id)
}

// Unpublish takes an article down; it also deletes drafts
func (s *ArticleService) Unpublish(ctx context.Context, id int64) error {
	return s.ownerAction(ctx, "/articles/unpublish", id)
}

func (s *ArticleService) ownerAction(ctx context.Context, path string, id int64) error {
	uid, err := selfID(s.c)
	if err != nil {
		return err
	}
	return s.c.Post(ctx, path, map[string]int64{"id": id, "uid": uid}, nil)
}

func (s *ArticleService) Like(ctx context.Context, id int64) error {
	return s.c.Post(ctx, "/articles/pub/like", map[string]interface{}{"id": id, "like": true}, nil)
}

func (s *ArticleService) CancelLike(ctx context.Context, id int64) error {
	return s.c.Post(ctx, "/articles/pub/cancelLike", map[string]interface{}{"id": id, "like": false}, nil)
}

// Collect adds an article to collection cid
func (s *ArticleService) Collect(ctx context.Context, id, cid int64) error {
	return s.c.Post(ctx, "/articles/pub/collect", map[string]int64{"id": id, "cid": cid}, nil)
}

func (s *ArticleService) CancelCollect(ctx context.Context, id, cid int64) error {
	return s.c.Post(ctx, "/articles/pub/cancelCollect", map[string]int64{"id": id, "cid": cid}, nil)
}

func (s *ArticleService) AuthorStats(ctx context.Context, authorID int64) (*AuthorStats, error) {
	var stats AuthorStats
	if err := s.c.Get(ctx, fmt.Sprintf("/articles/author/%d/stats", authorID), nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// OfficialTags returns the tags maintained by the platform
func (s *ArticleService) OfficialTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := s.c.Get(ctx, "/articles/tags/official", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Generate runs the AI assistant on req.Content. It uses client.GenerateTimeout.
func (s *ArticleService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.Type == "" {
		req.Type = GenerateSummary
	}
	var res GenerateResult
	if err := s.c.Post(ctx, "/articles/generate", req, &res, client.WithTimeout(client.GenerateTimeout)); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadCover uploads a cover image for an article and returns its URL.
// A zero articleID stores the image under the caller.
func (s *ArticleService) UploadCover(ctx context.Context, articleID int64, name string, content []byte) (string, error) {
	form := &client.MultipartForm{
		Files: []client.File{{Param: "file", Name: name, Content: content}},
	}
	if articleID != 0 {
		form.Fields = map[string]string{"articleId": itoa(articleID)}
	}
	var link string
	if err := s.c.PostMultipart(ctx, "/upload/cover", form, &link); err != nil {
		return "", err
	}
	return link, nil
}
