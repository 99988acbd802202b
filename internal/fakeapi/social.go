package fakeapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type interactiveView struct {
	Biz        string `json:"biz"`
	BizID      int64  `json:"biz_id"`
	ReadCnt    int64  `json:"read_cnt"`
	LikeCnt    int64  `json:"like_cnt"`
	CollectCnt int64  `json:"collect_cnt"`
	Liked      bool   `json:"liked"`
	Collected  bool   `json:"collected"`
}

// interactive renders the counters of article id. Callers hold s.mu.
func (s *Server) interactive(biz string, id, viewer int64) interactiveView {
	v := interactiveView{
		Biz:        biz,
		BizID:      id,
		LikeCnt:    int64(len(s.likes[id])),
		CollectCnt: int64(len(s.collects[id])),
		Liked:      viewer != 0 && s.likes[id][viewer],
		Collected:  viewer != 0 && s.collects[id][viewer],
	}
	if a, found := s.articles[id]; found {
		v.ReadCnt = a.Reads
	}
	return v
}

func (s *Server) getInteractive(c echo.Context) error {
	id, err := queryInt(c, "biz_id")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, map[string]interactiveView{"intr": s.interactive(c.QueryParam("biz"), id, currentUID(c))})
}

func (s *Server) batchInteractive(c echo.Context) error {
	biz := c.QueryParam("biz")
	intrs := make(map[int64]interactiveView)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range c.QueryParams()["ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c)
		}
		intrs[id] = s.interactive(biz, id, currentUID(c))
	}
	return ok(c, map[string]interface{}{"intrs": intrs})
}

type bizRequest struct {
	Biz   string `json:"biz"`
	BizID int64  `json:"biz_id"`
	UID   int64  `json:"uid"`
	Cid   int64  `json:"cid"`
}

func (s *Server) incrRead(c echo.Context) error {
	var req bizRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, found := s.articles[req.BizID]; found {
		a.Reads++
	}
	return message(c, "OK")
}

func (s *Server) interactiveLike(like bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req bizRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c)
		}
		if req.UID != currentUID(c) {
			return c.NoContent(http.StatusForbidden)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.setLike(req.BizID, req.UID, like) {
			return systemError(c)
		}
		return message(c, "OK")
	}
}

func (s *Server) interactiveCollect(c echo.Context) error {
	var req bizRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if req.UID != currentUID(c) {
		return c.NoContent(http.StatusForbidden)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.setCollect(req.BizID, req.UID, true) {
		return systemError(c)
	}
	return message(c, "OK")
}

type followRequest struct {
	Followee int64 `json:"followee"`
	Follower int64 `json:"follower"`
}

type relationView struct {
	ID       int64  `json:"id"`
	Follower int64  `json:"follower"`
	Followee int64  `json:"followee"`
	Name     string `json:"name,omitempty"`
	AboutMe  string `json:"about_me,omitempty"`
}

func (s *Server) follow(c echo.Context) error {
	var req followRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if req.Follower != currentUID(c) {
		return c.NoContent(http.StatusForbidden)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.users[req.Followee]; !found || req.Followee == req.Follower {
		return systemError(c)
	}
	key := [2]int64{req.Follower, req.Followee}
	if _, found := s.follows[key]; !found {
		s.follows[key] = s.newID()
		s.notify(req.Followee, "follow", req.Follower, "started following you", nil)
	}
	return message(c, "OK")
}

func (s *Server) cancelFollow(c echo.Context) error {
	var req followRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if req.Follower != currentUID(c) {
		return c.NoContent(http.StatusForbidden)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, [2]int64{req.Follower, req.Followee})
	return message(c, "OK")
}

// relations renders the relations matching keep in creation order. Callers hold s.mu.
func (s *Server) relations(p page, keep func(follower, followee int64) bool, show func(follower, followee int64) int64) []relationView {
	out := make([]relationView, 0)
	for pair, id := range s.follows {
		if !keep(pair[0], pair[1]) {
			continue
		}
		v := relationView{ID: id, Follower: pair[0], Followee: pair[1]}
		if u, found := s.users[show(pair[0], pair[1])]; found {
			v.Name, v.AboutMe = u.Nickname, u.AboutMe
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	start, end := p.window(len(out))
	return out[start:end]
}

func (s *Server) followees(c echo.Context) error {
	follower, err := queryInt(c, "follower")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rels := s.relations(queryPage(c),
		func(f, _ int64) bool { return f == follower },
		func(_, e int64) int64 { return e })
	return ok(c, map[string]interface{}{"follow_relations": rels})
}

func (s *Server) followers(c echo.Context) error {
	followee, err := queryInt(c, "followee")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rels := s.relations(queryPage(c),
		func(_, e int64) bool { return e == followee },
		func(f, _ int64) int64 { return f })
	return ok(c, map[string]interface{}{"follow_relations": rels})
}

func (s *Server) followInfo(c echo.Context) error {
	follower, err := queryInt(c, "follower")
	if err != nil {
		return badRequest(c)
	}
	followee, err := queryInt(c, "followee")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, found := s.follows[[2]int64{follower, followee}]
	if !found {
		return systemError(c)
	}
	return ok(c, map[string]relationView{"follow_relation": {ID: id, Follower: follower, Followee: followee}})
}

func (s *Server) followStatics(c echo.Context) error {
	followee, err := queryInt(c, "followee")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var followers, followees int64
	for pair := range s.follows {
		if pair[1] == followee {
			followers++
		}
		if pair[0] == followee {
			followees++
		}
	}
	return ok(c, map[string]interface{}{"followStatic": map[string]int64{"followers": followers, "followees": followees}})
}

type comment struct {
	ID       int64  `json:"id"`
	UID      int64  `json:"uid"`
	Biz      string `json:"biz"`
	BizID    int64  `json:"bizid"`
	Content  string `json:"content"`
	RootID   int64  `json:"-"`
	ParentID int64  `json:"-"`
	Ctime    string `json:"ctime"`
	Utime    string `json:"utime"`
}

type commentView struct {
	*comment
	RootComment   *commentRef   `json:"root_comment,omitempty"`
	ParentComment *commentRef   `json:"parent_comment,omitempty"`
	Children      []commentView `json:"children,omitempty"`
}

type commentRef struct {
	ID int64 `json:"id"`
}

func viewComment(cm *comment) commentView {
	v := commentView{comment: cm}
	if cm.RootID != 0 {
		v.RootComment = &commentRef{ID: cm.RootID}
	}
	if cm.ParentID != 0 {
		v.ParentComment = &commentRef{ID: cm.ParentID}
	}
	return v
}

func (s *Server) listComments(c echo.Context) error {
	bizID, err := queryInt(c, "bizid")
	if err != nil {
		return badRequest(c)
	}
	minID, err := queryInt(c, "min_id")
	if err != nil {
		return badRequest(c)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c)
	}
	biz := c.QueryParam("biz")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]commentView, 0)
	for _, cm := range s.comments {
		if cm.Biz != biz || cm.BizID != bizID || cm.RootID != 0 || cm.ID <= minID {
			continue
		}
		v := viewComment(cm)
		for _, reply := range s.comments {
			if reply.RootID == cm.ID {
				v.Children = append(v.Children, viewComment(reply))
			}
		}
		out = append(out, v)
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return ok(c, map[string]interface{}{"comments": out})
}

func (s *Server) createComment(c echo.Context) error {
	var req struct {
		Comment struct {
			UID           int64       `json:"uid"`
			Biz           string      `json:"biz"`
			BizID         int64       `json:"bizid"`
			Content       string      `json:"content"`
			RootComment   *commentRef `json:"root_comment"`
			ParentComment *commentRef `json:"parent_comment"`
		} `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	in := req.Comment
	if in.UID != currentUID(c) {
		return c.NoContent(http.StatusForbidden)
	}
	if strings.TrimSpace(in.Content) == "" {
		return fail(c, 4, "评论不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cm := &comment{ID: s.newID(), UID: in.UID, Biz: in.Biz, BizID: in.BizID, Content: in.Content, Ctime: now(), Utime: now()}
	if in.RootComment != nil {
		cm.RootID = in.RootComment.ID
	}
	if in.ParentComment != nil {
		cm.ParentID = in.ParentComment.ID
	}
	s.comments = append(s.comments, cm)
	if a, found := s.articles[cm.BizID]; found {
		s.notify(a.AuthorID, "interaction", cm.UID, "commented on your article", a)
	}
	return message(c, "OK")
}

func (s *Server) deleteComment(c echo.Context) error {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cm := range s.comments {
		if cm.ID == req.ID && cm.UID != currentUID(c) {
			return c.NoContent(http.StatusForbidden)
		}
	}
	kept := s.comments[:0]
	for _, cm := range s.comments {
		if cm.ID != req.ID && cm.RootID != req.ID {
			kept = append(kept, cm)
		}
	}
	s.comments = kept
	return message(c, "OK")
}

func (s *Server) replies(c echo.Context) error {
	rid, err := queryInt(c, "rid")
	if err != nil {
		return badRequest(c)
	}
	maxID, err := queryInt(c, "max_id")
	if err != nil {
		return badRequest(c)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]commentView, 0)
	for i := len(s.comments) - 1; i >= 0; i-- {
		cm := s.comments[i]
		if cm.RootID != rid || (maxID > 0 && cm.ID >= maxID) {
			continue
		}
		out = append(out, viewComment(cm))
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return ok(c, map[string]interface{}{"replies": out})
}
