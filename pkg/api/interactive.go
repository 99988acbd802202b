package api

import (
	"context"
	"net/url"

	"github.com/webook-dev/webook-client/pkg/client"
)

// Interactive holds the counters of one biz object and the caller's flags on it
type Interactive struct {
	Biz        string `json:"biz"`
	BizID      int64  `json:"biz_id"`
	ReadCnt    int64  `json:"read_cnt"`
	LikeCnt    int64  `json:"like_cnt"`
	CollectCnt int64  `json:"collect_cnt"`
	Liked      bool   `json:"liked"`
	Collected  bool   `json:"collected"`
}

type InteractiveService struct {
	c *client.Client
}

// Get returns the counters of biz/bizID. Anonymous callers get no flags.
func (s *InteractiveService) Get(ctx context.Context, biz string, bizID int64) (*Interactive, error) {
	query := url.Values{
		"biz":    {biz},
		"biz_id": {itoa(bizID)},
		"uid":    {itoa(viewerID(s.c))},
	}
	var out struct {
		Intr Interactive `json:"intr"`
	}
	if err := s.c.Get(ctx, "/interactive/get", query, &out); err != nil {
		return nil, err
	}
	return &out.Intr, nil
}

// Batch returns the counters of several objects keyed by id
func (s *InteractiveService) Batch(ctx context.Context, biz string, ids []int64) (map[int64]Interactive, error) {
	query := url.Values{"biz": {biz}}
	for _, id := range ids {
		query.Add("ids", itoa(id))
	}
	var out struct {
		Intrs map[int64]Interactive `json:"intrs"`
	}
	if err := s.c.Get(ctx, "/interactive/batch", query, &out); err != nil {
		return nil, err
	}
	if out.Intrs == nil {
		out.Intrs = map[int64]Interactive{}
	}
	return out.Intrs, nil
}

// IncrRead counts one read
func (s *InteractiveService) IncrRead(ctx context.Context, biz string, bizID int64) error {
	return s.c.Post(ctx, "/interactive/read", map[string]interface{}{"biz": biz, "biz_id": bizID}, nil)
}

func (s *InteractiveService) Like(ctx context.Context, biz string, bizID int64) error {
	return s.userAction(ctx, "/interactive/like", biz, bizID, nil)
}

func (s *InteractiveService) CancelLike(ctx context.Context, biz string, bizID int64) error {
	return s.userAction(ctx, "/interactive/like/cancel", biz, bizID, nil)
}

// Collect adds biz/bizID to the caller's collection cid
func (s *InteractiveService) Collect(ctx context.Context, biz string, bizID, cid int64) error {
	return s.userAction(ctx, "/interactive/collect", biz, bizID, map[string]interface{}{"cid": cid})
}

func (s *InteractiveService) userAction(ctx context.Context, path, biz string, bizID int64, extra map[string]interface{}) error {
	uid, err := selfID(s.c)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"biz": biz, "biz_id": bizID, "uid": uid}
	for k, v := range extra {
		body[k] = v
	}
	return s.c.Post(ctx, path, body, nil)
}
