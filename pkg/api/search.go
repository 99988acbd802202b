package api

import (
	"context"
	"net/url"

	"github.com/webook-dev/webook-client/pkg/client"
)

type SearchUser struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	AboutMe  string `json:"aboutMe"`
}

type SearchArticle struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Author   Author `json:"author"`
}

type SearchResult struct {
	Users    []SearchUser
	Articles []SearchArticle
}

type SearchService struct {
	c *client.Client
}

// Search looks up users and articles matching expression
func (s *SearchService) Search(ctx context.Context, expression string) (*SearchResult, error) {
	query := url.Values{
		"expression": {expression},
		"uid":        {itoa(viewerID(s.c))},
	}
	var out struct {
		User struct {
			Users []SearchUser `json:"users"`
		} `json:"user"`
		Article struct {
			Articles []SearchArticle `json:"articles"`
		} `json:"article"`
	}
	if err := s.c.Get(ctx, "/search", query, &out); err != nil {
		return nil, err
	}
	return &SearchResult{Users: out.User.Users, Articles: out.Article.Articles}, nil
}
