package api

import (
	"context"
	"net/url"

	"github.com/webook-dev/webook-client/pkg/client"
)

type FollowRelation struct {
	ID       int64  `json:"id"`
	Follower int64  `json:"follower"`
	Followee int64  `json:"followee"`
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	AboutMe  string `json:"about_me,omitempty"`
}

type FollowStatic struct {
	Followers int64 `json:"followers"`
	Followees int64 `json:"followees"`
}

type FollowService struct {
	c *client.Client
}

// Follow makes the caller follow followee
func (s *FollowService) Follow(ctx context.Context, followee int64) error {
	return s.relation(ctx, "/follow", followee)
}

// Cancel makes the caller unfollow followee
func (s *FollowService) Cancel(ctx context.Context, followee int64) error {
	return s.relation(ctx, "/follow/cancel", followee)
}

func (s *FollowService) relation(ctx context.Context, path string, followee int64) error {
	uid, err := selfID(s.c)
	if err != nil {
		return err
	}
	return s.c.Post(ctx, path, map[string]int64{"followee": followee, "follower": uid}, nil)
}

// Followees lists who follower follows
func (s *FollowService) Followees(ctx context.Context, follower int64, page Page) ([]FollowRelation, error) {
	query := page.values()
	query.Set("follower", itoa(follower))
	return s.list(ctx, "/follow/followee", query)
}

// Followers lists who follows followee
func (s *FollowService) Followers(ctx context.Context, followee int64, page Page) ([]FollowRelation, error) {
	query := page.values()
	query.Set("followee", itoa(followee))
	return s.list(ctx, "/follow/follower", query)
}

func (s *FollowService) list(ctx context.Context, path string, query url.Values) ([]FollowRelation, error) {
	var out struct {
		Relations []FollowRelation `json:"follow_relations"`
	}
	if err := s.c.Get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out.Relations, nil
}

// Info returns the relation between follower and followee, or nil when there is
// none. The backend reports a missing relation as a failure.
func (s *FollowService) Info(ctx context.Context, follower, followee int64) (*FollowRelation, error) {
	query := url.Values{"follower": {itoa(follower)}, "followee": {itoa(followee)}}
	var out struct {
		Relation *FollowRelation `json:"follow_relation"`
	}
	err := s.c.Get(ctx, "/follow/info", query, &out)
	if client.IsKind(err, client.KindEnvelope) || client.IsKind(err, client.KindHTTP) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Relation, nil
}

// Statics returns follower and followee counts of followee
func (s *FollowService) Statics(ctx context.Context, followee int64) (*FollowStatic, error) {
	var out struct {
		Static FollowStatic `json:"followStatic"`
	}
	if err := s.c.Get(ctx, "/follow/statics", url.Values{"followee": {itoa(followee)}}, &out); err != nil {
		return nil, err
	}
	return &out.Static, nil
}
