package fakeapi

import (
	"fmt"
	"math/rand"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type notice struct {
	ID       int64                  `json:"id"`
	Category string                 `json:"category"`
	Content  string                 `json:"content"`
	Time     string                 `json:"time"`
	Sender   map[string]interface{} `json:"sender,omitempty"`
	Target   map[string]interface{} `json:"target,omitempty"`
	Status   string                 `json:"status"`
}

// notify adds a notice to uid's inbox. Callers hold s.mu.
func (s *Server) notify(uid int64, category string, sender int64, content string, a *article) {
	if uid == sender {
		return
	}
	n := &notice{
		ID:       s.newID(),
		Category: category,
		Content:  content,
		Time:     now(),
		Sender:   map[string]interface{}{"id": sender},
		Status:   "unread",
	}
	if u, found := s.users[sender]; found {
		n.Sender["name"] = u.Nickname
	}
	if a != nil {
		n.Target = map[string]interface{}{"type": "article", "id": a.ID, "title": a.Title}
	}
	s.notices[uid] = append(s.notices[uid], n)
}

func (s *Server) unreadCounts(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int64{"interaction": 0, "follow": 0, "system": 0, "total": 0}
	for _, n := range s.notices[currentUID(c)] {
		if n.Status == "unread" {
			counts[n.Category]++
			counts["total"]++
		}
	}
	return ok(c, counts)
}

func (s *Server) listNotifications(c echo.Context) error {
	category := c.QueryParam("type")
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*notice, 0)
	for _, n := range s.notices[currentUID(c)] {
		if category == "" || n.Category == category {
			matched = append(matched, n)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	start, end := queryPage(c).window(len(matched))
	return ok(c, matched[start:end])
}

func (s *Server) markRead(c echo.Context) error {
	var req struct {
		IDs  []int64 `json:"ids"`
		Type string  `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	ids := make(map[int64]bool, len(req.IDs))
	for _, id := range req.IDs {
		ids[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	updated := 0
	for _, n := range s.notices[currentUID(c)] {
		if ids[n.ID] || (len(ids) == 0 && (req.Type == "" || n.Category == req.Type)) {
			if n.Status == "unread" {
				updated++
			}
			n.Status = "read"
		}
	}
	return ok(c, map[string]int{"updated": updated})
}

func (s *Server) topN(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ranked []*article
	for _, a := range s.articles {
		if published(a) {
			ranked = append(ranked, a)
		}
	}
	score := func(a *article) int64 { return a.Reads + 10*int64(len(s.likes[a.ID])) }
	sort.Slice(ranked, func(i, j int) bool {
		if score(ranked[i]) != score(ranked[j]) {
			return score(ranked[i]) > score(ranked[j])
		}
		return ranked[i].ID > ranked[j].ID
	})
	if len(ranked) > 100 {
		ranked = ranked[:100]
	}

	out := make([]articleView, 0, len(ranked))
	for _, a := range ranked {
		out = append(out, s.view(a, 0, true))
	}
	return ok(c, map[string]interface{}{"articles": out})
}

func (s *Server) search(c echo.Context) error {
	expr := strings.ToLower(strings.TrimSpace(c.QueryParam("expression")))
	if expr == "" {
		return fail(c, 4, "搜索条件不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]map[string]interface{}, 0)
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Nickname), expr) || strings.Contains(strings.ToLower(u.Email), expr) {
			users = append(users, map[string]interface{}{"id": u.ID, "nickname": u.Nickname, "aboutMe": u.AboutMe})
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i]["id"].(int64) < users[j]["id"].(int64) })

	articles := s.collect(page{}, currentUID(c), func(a *article) bool {
		return published(a) && (strings.Contains(strings.ToLower(a.Title), expr) ||
			strings.Contains(strings.ToLower(a.Content), expr))
	})
	return ok(c, map[string]interface{}{
		"user":    map[string]interface{}{"users": users},
		"article": map[string]interface{}{"articles": articles},
	})
}

type reward struct {
	ID     int64
	UID    int64
	Status int
}

// PayReward marks reward rid as paid
func (s *Server) PayReward(rid int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, found := s.rewards[rid]; found {
		r.Status = 2
	}
}

func (s *Server) preReward(c echo.Context) error {
	var req struct {
		Biz       string `json:"biz"`
		BizID     int64  `json:"biz_id"`
		BizName   string `json:"biz_name"`
		TargetUID int64  `json:"target_uid"`
		UID       int64  `json:"uid"`
		Amt       int64  `json:"amt"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	if req.UID != currentUID(c) {
		return c.NoContent(http.StatusForbidden)
	}
	if req.Amt <= 0 {
		return fail(c, 4, "金额不合法")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r := &reward{ID: s.newID(), UID: req.UID, Status: 1}
	s.rewards[r.ID] = r
	return ok(c, map[string]interface{}{
		"code_url": fmt.Sprintf("weixin://wxpay/bizpayurl?pr=%s", uuid.NewString()[:8]),
		"rid":      r.ID,
	})
}

func (s *Server) getReward(c echo.Context) error {
	rid, err := queryInt(c, "rid")
	if err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, found := s.rewards[rid]
	if !found || r.UID != currentUID(c) {
		return systemError(c)
	}
	return ok(c, map[string]int{"status": r.Status})
}

// Code returns the last verification code sent for biz to phone
func (s *Server) Code(biz, phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[biz+":"+phone]
}

func (s *Server) sendCode(c echo.Context) error {
	var req struct {
		Biz   string `json:"biz"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return fail(c, 4, "请输入手机号码")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[req.Biz+":"+req.Phone] = fmt.Sprintf("%06d", rand.Intn(1000000))
	return message(c, "发送成功")
}

func (s *Server) verifyCode(c echo.Context) error {
	var req struct {
		Biz       string `json:"biz"`
		Phone     string `json:"phone"`
		InputCode string `json:"inputCode"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	want, found := s.codes[req.Biz+":"+req.Phone]
	answer := found && want == req.InputCode
	if answer {
		delete(s.codes, req.Biz+":"+req.Phone)
	}
	return ok(c, map[string]bool{"answer": answer})
}

func (s *Server) uploadCover(c echo.Context) error {
	sub := strings.TrimSpace(c.FormValue("articleId"))
	if sub == "" {
		sub = fmt.Sprint(currentUID(c))
	}
	return s.upload(c, "covers", sub)
}

func (s *Server) uploadAvatar(c echo.Context) error {
	return s.upload(c, "avatars", fmt.Sprint(currentUID(c)))
}

func (s *Server) upload(c echo.Context, kind, sub string) error {
	file, err := c.FormFile("file")
	if err != nil {
		return systemError(c)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return c.NoContent(http.StatusBadRequest)
	}
	return ok(c, fmt.Sprintf("/static/%s/%s/%s%s", kind, sub, uuid.NewString(), ext))
}
