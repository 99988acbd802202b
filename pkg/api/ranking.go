package api

import (
	"context"

	"github.com/webook-dev/webook-client/pkg/client"
)

type RankedArticle struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Content string `json:"content"`
	Author  Author `json:"author"`
	Ctime   string `json:"ctime"`
	Utime   string `json:"utime"`
}

type RankingService struct {
	c *client.Client
}

// TopN returns the current hot list
func (s *RankingService) TopN(ctx context.Context) ([]RankedArticle, error) {
	var out struct {
		Articles []RankedArticle `json:"articles"`
	}
	if err := s.c.Get(ctx, "/ranking/top", nil, &out); err != nil {
		return nil, err
	}
	return out.Articles, nil
}
