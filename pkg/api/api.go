// Package api provides typed wrappers around the webook HTTP endpoints.
// Every call goes through client.Client, so credentials, refresh and
// user-facing notifications are handled there.
package api

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/webook-dev/webook-client/pkg/client"
)

// ErrNotLoggedIn is returned by calls that need the caller's uid when no
// usable access token is held.
var ErrNotLoggedIn = errors.New("not logged in")

// BizArticle is the biz name of articles in interactive, comment and reward calls
const BizArticle = "article"

// Service groups the endpoint wrappers
type Service struct {
	Users         *UserService
	Articles      *ArticleService
	Interactive   *InteractiveService
	Follow        *FollowService
	Comments      *CommentService
	Ranking       *RankingService
	Search        *SearchService
	Notifications *NotificationService
	Rewards       *RewardService
	Codes         *CodeService
}

// New creates the endpoint wrappers on top of c
func New(c *client.Client) *Service {
	return &Service{
		Users:         &UserService{c: c},
		Articles:      &ArticleService{c: c},
		Interactive:   &InteractiveService{c: c},
		Follow:        &FollowService{c: c},
		Comments:      &CommentService{c: c},
		Ranking:       &RankingService{c: c},
		Search:        &SearchService{c: c},
		Notifications: &NotificationService{c: c},
		Rewards:       &RewardService{c: c},
		Codes:         &CodeService{c: c},
	}
}

// Page selects a window of a list endpoint
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (p Page) values() url.Values {
	return url.Values{
		"offset": {strconv.Itoa(p.Offset)},
		"limit":  {strconv.Itoa(p.Limit)},
	}
}

// selfID returns the uid of the logged in user
func selfID(c *client.Client) (int64, error) {
	uid, err := c.Session().UserID()
	if err != nil || uid == 0 {
		return 0, ErrNotLoggedIn
	}
	return uid, nil
}

// viewerID is selfID for calls that also work anonymously
func viewerID(c *client.Client) int64 {
	uid, _ := c.Session().UserID()
	return uid
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
