package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/webook-dev/webook-client/pkg/client"
)

type Comment struct {
	ID            int64     `json:"id"`
	UID           int64     `json:"uid"`
	Biz           string    `json:"biz"`
	BizID         int64     `json:"bizid"`
	Content       string    `json:"content"`
	RootComment   *Comment  `json:"root_comment,omitempty"`
	ParentComment *Comment  `json:"parent_comment,omitempty"`
	Children      []Comment `json:"children,omitempty"`
	Ctime         string    `json:"ctime"`
	Utime         string    `json:"utime"`
}

// NewComment is a comment to create. RootID and ParentID are zero for top level comments.
type NewComment struct {
	Biz      string
	BizID    int64
	Content  string
	RootID   int64
	ParentID int64
}

type commentRef struct {
	ID int64 `json:"id"`
}

type CommentService struct {
	c *client.Client
}

// List returns top level comments on biz/bizID with ids above minID
func (s *CommentService) List(ctx context.Context, biz string, bizID, minID int64, limit int) ([]Comment, error) {
	query := url.Values{
		"biz":    {biz},
		"bizid":  {itoa(bizID)},
		"min_id": {itoa(minID)},
		"limit":  {strconv.Itoa(limit)},
	}
	var out struct {
		Comments []Comment `json:"comments"`
	}
	if err := s.c.Get(ctx, "/comment/list", query, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// Create posts a comment as the caller
func (s *CommentService) Create(ctx context.Context, nc NewComment) error {
	uid, err := selfID(s.c)
	if err != nil {
		return err
	}

	comment := struct {
		UID           int64       `json:"uid"`
		Biz           string      `json:"biz"`
		BizID         int64       `json:"bizid"`
		Content       string      `json:"content"`
		RootComment   *commentRef `json:"root_comment,omitempty"`
		ParentComment *commentRef `json:"parent_comment,omitempty"`
	}{
		UID:     uid,
		Biz:     nc.Biz,
		BizID:   nc.BizID,
		Content: nc.Content,
	}
	if nc.RootID != 0 {
		comment.RootComment = &commentRef{ID: nc.RootID}
	}
	if nc.ParentID != 0 {
		comment.ParentComment = &commentRef{ID: nc.ParentID}
	}
	return s.c.Post(ctx, "/comment/create", map[string]interface{}{"comment": comment}, nil)
}

func (s *CommentService) Delete(ctx context.Context, id int64) error {
	return s.c.Post(ctx, "/comment/delete", map[string]int64{"id": id}, nil)
}

// Replies returns replies under root comment rootID with ids below maxID
func (s *CommentService) Replies(ctx context.Context, rootID, maxID int64, limit int) ([]Comment, error) {
	query := url.Values{
		"rid":    {itoa(rootID)},
		"max_id": {itoa(maxID)},
		"limit":  {strconv.Itoa(limit)},
	}
	var out struct {
		Replies []Comment `json:"replies"`
	}
	if err := s.c.Get(ctx, "/comment/replies", query, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}
