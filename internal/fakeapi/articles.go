package fakeapi

import (
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

const (
	statusUnpublished = 1
	statusPublished   = 2
	statusPrivate     = 3
)

// OfficialTags are the tags the platform maintains
var OfficialTags = []string{"backend", "frontend", "ai", "go"}

type article struct {
	ID         int64
	Title      string
	Content    string
	Abstract   string
	CoverImage string
	AuthorID   int64
	Status     int
	Tags       []string
	Reads      int64
	Ctime      string
	Utime      string
}

type authorView struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type articleView struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Abstract   string     `json:"abstract"`
	CoverImage string     `json:"coverImage"`
	Author     authorView `json:"author"`
	Status     int        `json:"status"`
	Ctime      string     `json:"ctime"`
	Utime      string     `json:"utime"`
	ReadCnt    int64      `json:"readCnt"`
	LikeCnt    int64      `json:"likeCnt"`
	CollectCnt int64      `json:"collectCnt"`
	Liked      bool       `json:"liked"`
	Collected  bool       `json:"collected"`
	Tags       []string   `json:"tags"`
}

type draftRequest struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Abstract   string   `json:"abstract"`
	CoverImage string   `json:"coverImage"`
	Tags       []string `json:"tags"`
}

// view renders a for viewer. Callers hold s.mu.
func (s *Server) view(a *article, viewer int64, withContent bool) articleView {
	v := articleView{
		ID:         a.ID,
		Title:      a.Title,
		Abstract:   a.Abstract,
		CoverImage: a.CoverImage,
		Status:     a.Status,
		Ctime:      a.Ctime,
		Utime:      a.Utime,
		ReadCnt:    a.Reads,
		LikeCnt:    int64(len(s.likes[a.ID])),
		CollectCnt: int64(len(s.collects[a.ID])),
		Liked:      s.likes[a.ID][viewer],
		Collected:  s.collects[a.ID][viewer],
		Tags:       append([]string{}, a.Tags...),
	}
	if withContent {
		v.Content = a.Content
	}
	v.Author.ID = a.AuthorID
	if u, found := s.users[a.AuthorID]; found {
		v.Author.Name = u.Nickname
	}
	return v
}

// collect renders the articles matching keep, newest first, within p
func (s *Server) collect(p page, viewer int64, keep func(a *article) bool) []articleView {
	var matched []*article
	for _, a := range s.articles {
		if keep(a) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	start, end := p.window(len(matched))
	out := make([]articleView, 0, end-start)
	for _, a := range matched[start:end] {
		out = append(out, s.view(a, viewer, false))
	}
	return out
}

func published(a *article) bool {
	return a.Status == statusPublished
}

func (s *Server) listOwnArticles(c echo.Context) error {
	var p page
	if err := c.Bind(&p); err != nil {
		return badRequest(c)
	}
	uid := currentUID(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.collect(p, uid, func(a *article) bool { return a.AuthorID == uid }))
}

func (s *Server) articleDetail(c echo.Context) error {
	id, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c)
	}
	uid := currentUID(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.articles[id]
	if !found || a.AuthorID != uid {
		return fail(c, 4, "文章不存在")
	}
	return ok(c, s.view(a, uid, true))
}

func (s *Server) saveArticle(c echo.Context) error {
	return s.storeArticle(c, statusUnpublished)
}

func (s *Server) publishArticle(c echo.Context) error {
	return s.storeArticle(c, statusPublished)
}

func (s *Server) storeArticle(c echo.Context, status int) error {
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if strings.TrimSpace(req.Title) == "" {
		return fail(c, 4, "标题不能为空")
	}
	uid := currentUID(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.articles[req.ID]
	switch {
	case req.ID == 0:
		a = &article{ID: s.newID(), AuthorID: uid, Ctime: now()}
		s.articles[a.ID] = a
	case !found || a.AuthorID != uid:
		return systemError(c)
	}
	a.Title = req.Title
	a.Content = req.Content
	a.Abstract = req.Abstract
	a.CoverImage = req.CoverImage
	a.Tags = req.Tags
	a.Status = status
	a.Utime = now()
	return ok(c, a.ID)
}

type ownerRequest struct {
	ID  int64 `json:"id"`
	UID int64 `json:"uid"`
}

func (s *Server) withdrawArticle(c echo.Context) error {
	var req ownerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.articles[req.ID]
	if !found || a.AuthorID != currentUID(c) || req.UID != currentUID(c) {
		return systemError(c)
	}
	a.Status = statusPrivate
	return message(c, "OK")
}

// unpublishArticle takes a published article down and deletes drafts
func (s *Server) unpublishArticle(c echo.Context) error {
	var req ownerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.articles[req.ID]
	if !found || a.AuthorID != currentUID(c) || req.UID != currentUID(c) {
		return systemError(c)
	}
	if a.Status == statusUnpublished {
		delete(s.articles, a.ID)
	} else {
		a.Status = statusUnpublished
	}
	return message(c, "OK")
}

func (s *Server) generate(c echo.Context) error {
	var req struct {
		Content     string `json:"content"`
		Type        string `json:"type"`
		Instruction string `json:"instruction"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return fail(c, 4, "内容不能为空")
	}

	switch req.Type {
	case "", "generate":
		title, _, _ := strings.Cut(content, "\n")
		return ok(c, map[string]string{"title": truncate(title, 20), "abstract": truncate(content, 50)})
	case "polish":
		return ok(c, map[string]string{"content": strings.Join(strings.Fields(content), " ")})
	case "tag":
		var tags []string
		lower := strings.ToLower(content)
		for _, tag := range OfficialTags {
			if strings.Contains(lower, tag) {
				tags = append(tags, tag)
			}
		}
		return ok(c, map[string][]string{"tags": append([]string{}, tags...)})
	default:
		return badRequest(c)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (s *Server) officialTags(c echo.Context) error {
	return ok(c, OfficialTags)
}

func (s *Server) authorStats(c echo.Context) error {
	authorID, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats := map[string]int64{}
	for _, a := range s.articles {
		if a.AuthorID != authorID {
			continue
		}
		if published(a) {
			stats["publishedCount"]++
		} else {
			stats["draftCount"]++
		}
		stats["totalReadCount"] += a.Reads
		stats["totalLikeCount"] += int64(len(s.likes[a.ID]))
	}
	for pair := range s.follows {
		if pair[0] == authorID {
			stats["followingCount"]++
		}
		if pair[1] == authorID {
			stats["followerCount"]++
		}
	}
	return ok(c, stats)
}

func (s *Server) listPublished(c echo.Context) error {
	var p page
	if err := c.Bind(&p); err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.collect(p, currentUID(c), published))
}

func (s *Server) listByTag(c echo.Context) error {
	tag := c.QueryParam("tag")
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.collect(queryPage(c), currentUID(c), func(a *article) bool {
		if !published(a) {
			return false
		}
		for _, t := range a.Tags {
			if t == tag {
				return true
			}
		}
		return false
	}))
}

func (s *Server) listByAuthor(c echo.Context) error {
	authorID, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.collect(queryPage(c), currentUID(c), func(a *article) bool {
		return published(a) && a.AuthorID == authorID
	}))
}

func (s *Server) listFollowing(c echo.Context) error {
	uid := currentUID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.collect(queryPage(c), uid, func(a *article) bool {
		_, following := s.follows[[2]int64{uid, a.AuthorID}]
		return published(a) && following
	}))
}

func (s *Server) listCollected(c echo.Context) error {
	uid := currentUID(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.collect(queryPage(c), uid, func(a *article) bool {
		return published(a) && s.collects[a.ID][uid]
	}))
}

func (s *Server) publishedDetail(c echo.Context) error {
	id, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.articles[id]
	if !found || !published(a) {
		return c.NoContent(http.StatusNotFound)
	}
	return ok(c, s.view(a, currentUID(c), true))
}

func (s *Server) likeArticle(c echo.Context) error {
	var req struct {
		ID   int64 `json:"id"`
		Like bool  `json:"like"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.setLike(req.ID, currentUID(c), req.Like) {
		return systemError(c)
	}
	return message(c, "OK")
}

// setLike records uid's like on article id. Callers hold s.mu.
func (s *Server) setLike(id, uid int64, like bool) bool {
	a, found := s.articles[id]
	if !found {
		return false
	}
	if s.likes[id] == nil {
		s.likes[id] = make(map[int64]bool)
	}
	if like {
		if !s.likes[id][uid] {
			s.notify(a.AuthorID, "interaction", uid, "liked your article", a)
		}
		s.likes[id][uid] = true
	} else {
		delete(s.likes[id], uid)
	}
	return true
}

func (s *Server) collectArticle(c echo.Context) error {
	return s.toggleCollect(c, true)
}

func (s *Server) cancelCollectArticle(c echo.Context) error {
	return s.toggleCollect(c, false)
}

func (s *Server) toggleCollect(c echo.Context, collect bool) error {
	var req struct {
		ID  int64 `json:"id"`
		Cid int64 `json:"cid"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.setCollect(req.ID, currentUID(c), collect) {
		return systemError(c)
	}
	return message(c, "OK")
}

// setCollect records uid's collect on article id. Callers hold s.mu.
func (s *Server) setCollect(id, uid int64, collect bool) bool {
	if _, found := s.articles[id]; !found {
		return false
	}
	if s.collects[id] == nil {
		s.collects[id] = make(map[int64]bool)
	}
	if collect {
		s.collects[id][uid] = true
	} else {
		delete(s.collects[id], uid)
	}
	return true
}
