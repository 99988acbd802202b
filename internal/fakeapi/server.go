// Package fakeapi is an in-memory webook backend. It issues real JWTs,
// rotates them through response headers and answers with the backend's
// {code,msg,data} envelope.
package fakeapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/webook-dev/webook-client/pkg/session"
)

// Prefix is the path the API is mounted under
const Prefix = "/api"

const (
	headerAccessToken  = "x-jwt-token"
	headerRefreshToken = "x-refresh-token"

	uidKey = "uid"

	// codeSystemError is what the backend answers for every unexpected failure
	codeSystemError = 5
	msgSystemError  = "系统错误"
)

// Result is the backend response envelope
type Result struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// Server is an in-memory webook backend
type Server struct {
	echo *echo.Echo
	key  []byte

	mu           sync.Mutex // protects the below fields
	nextID       int64
	users        map[int64]*user
	access       map[string]int64
	refresh      map[string]int64
	articles     map[int64]*article
	likes        map[int64]map[int64]bool
	collects     map[int64]map[int64]bool
	follows      map[[2]int64]int64
	comments     []*comment
	notices      map[int64][]*notice
	rewards      map[int64]*reward
	codes        map[string]string
	refreshCalls int
	requests     []string
}

// New creates an empty backend
func New() *Server {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate signing key: %v", err))
	}

	s := &Server{
		key:      key,
		users:    make(map[int64]*user),
		access:   make(map[string]int64),
		refresh:  make(map[string]int64),
		articles: make(map[int64]*article),
		likes:    make(map[int64]map[int64]bool),
		collects: make(map[int64]map[int64]bool),
		follows:  make(map[[2]int64]int64),
		notices:  make(map[int64][]*notice),
		rewards:  make(map[int64]*reward),
		codes:    make(map[string]string),
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(io.Discard)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization},
		ExposeHeaders: []string{headerAccessToken, headerRefreshToken},
	}))
	e.Use(s.recordRequest)
	s.echo = e
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler serving the API under Prefix
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) registerRoutes() {
	g := s.echo.Group(Prefix)
	auth := s.requireAuth
	optional := s.optionalAuth

	users := g.Group("/users")
	users.POST("/signup", s.signup)
	users.POST("/login", s.login)
	users.POST("/login_sms/code/send", s.sendLoginCode)
	users.POST("/login_sms", s.loginSMS)
	users.POST("/refresh_token", s.refreshToken)
	users.POST("/logout", s.logout, auth)
	users.GET("/profile", s.profile, auth)
	users.POST("/edit", s.editProfile, auth)

	articles := g.Group("/articles")
	articles.POST("/list", s.listOwnArticles, auth)
	articles.GET("/detail/:id", s.articleDetail, auth)
	articles.POST("/edit", s.saveArticle, auth)
	articles.POST("/publish", s.publishArticle, auth)
	articles.POST("/withdraw", s.withdrawArticle, auth)
	articles.POST("/unpublish", s.unpublishArticle, auth)
	articles.POST("/generate", s.generate, auth)
	articles.GET("/tags/official", s.officialTags)
	articles.GET("/author/:id/stats", s.authorStats, optional)
	articles.POST("/pub/list", s.listPublished, optional)
	articles.GET("/pub/tag/articles", s.listByTag, optional)
	articles.GET("/pub/author/:id/list", s.listByAuthor, optional)
	articles.GET("/pub/following/list", s.listFollowing, auth)
	articles.GET("/pub/collected/list", s.listCollected, auth)
	articles.POST("/pub/like", s.likeArticle, auth)
	articles.POST("/pub/cancelLike", s.likeArticle, auth)
	articles.POST("/pub/collect", s.collectArticle, auth)
	articles.POST("/pub/cancelCollect", s.cancelCollectArticle, auth)
	articles.GET("/pub/:id", s.publishedDetail, optional)

	interactive := g.Group("/interactive")
	interactive.GET("/get", s.getInteractive, optional)
	interactive.GET("/batch", s.batchInteractive, optional)
	interactive.POST("/read", s.incrRead)
	interactive.POST("/like", s.interactiveLike(true), auth)
	interactive.POST("/like/cancel", s.interactiveLike(false), auth)
	interactive.POST("/collect", s.interactiveCollect, auth)

	follow := g.Group("/follow")
	follow.POST("", s.follow, auth)
	follow.POST("/cancel", s.cancelFollow, auth)
	follow.GET("/followee", s.followees, auth)
	follow.GET("/follower", s.followers, auth)
	follow.GET("/info", s.followInfo, auth)
	follow.GET("/statics", s.followStatics, optional)

	comments := g.Group("/comment")
	comments.GET("/list", s.listComments, optional)
	comments.POST("/create", s.createComment, auth)
	comments.POST("/delete", s.deleteComment, auth)
	comments.GET("/replies", s.replies, optional)

	g.GET("/ranking/top", s.topN)
	g.GET("/search", s.search, optional)

	notifications := g.Group("/notifications", auth)
	notifications.GET("", s.listNotifications)
	notifications.GET("/unread_counts", s.unreadCounts)
	notifications.POST("/mark_read", s.markRead)

	g.POST("/reward/pre", s.preReward, auth)
	g.GET("/reward/get", s.getReward, auth)

	g.POST("/code/send", s.sendCode)
	g.POST("/code/verify", s.verifyCode)

	g.POST("/upload/cover", s.uploadCover, auth)
	g.POST("/upload/avatar", s.uploadAvatar, auth)
}

func (s *Server) recordRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request().Method+" "+strings.TrimPrefix(c.Request().URL.Path, Prefix))
		s.mu.Unlock()
		return next(c)
	}
}

// Requests returns "METHOD path" of every request received, prefix stripped
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// RefreshCalls returns how often the refresh endpoint was hit
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// ExpireAccessTokens invalidates every issued access token, as if they timed out
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]int64)
}

// RevokeRefreshTokens invalidates every issued refresh token
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]int64)
}

// issueTokens signs a fresh pair for uid and sets the rotation headers.
// Callers hold s.mu.
func (s *Server) issueTokens(c echo.Context, uid int64) error {
	ssid := uuid.NewString()
	access, err := s.sign(uid, ssid, 30*time.Minute, c.Request().UserAgent())
	if err != nil {
		return err
	}
	refresh, err := s.sign(uid, ssid, 7*24*time.Hour, "")
	if err != nil {
		return err
	}
	s.access[access] = uid
	s.refresh[refresh] = uid

	c.Response().Header().Set(headerAccessToken, access)
	c.Response().Header().Set(headerRefreshToken, refresh)
	return nil
}

func (s *Server) sign(uid int64, ssid string, ttl time.Duration, userAgent string) (string, error) {
	claims := session.Claims{
		Id:        uid,
		UserAgent: userAgent,
		Ssid:      ssid,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func bearer(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	seg := strings.SplitN(header, " ", 2)
	if len(seg) != 2 || seg[0] != "Bearer" {
		return ""
	}
	return seg[1]
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		uid, ok := s.access[bearer(c)]
		s.mu.Unlock()
		if !ok {
			return c.NoContent(http.StatusUnauthorized)
		}
		c.Set(uidKey, uid)
		return next(c)
	}
}

// optionalAuth identifies the caller when a valid access token is sent
func (s *Server) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		uid := s.access[bearer(c)]
		s.mu.Unlock()
		c.Set(uidKey, uid)
		return next(c)
	}
}

func currentUID(c echo.Context) int64 {
	uid, _ := c.Get(uidKey).(int64)
	return uid
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Result{Data: data})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(http.StatusOK, Result{Code: code, Msg: msg})
}

// message answers success without data
func message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Result{Msg: msg})
}

func systemError(c echo.Context) error {
	return fail(c, codeSystemError, msgSystemError)
}

func badRequest(c echo.Context) error {
	return c.NoContent(http.StatusBadRequest)
}

func queryInt(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func pathInt(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

type page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func queryPage(c echo.Context) page {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page{Offset: offset, Limit: limit}
}

// window returns the [offset, offset+limit) bounds within n items
func (p page) window(n int) (int, int) {
	start := p.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

func now() string {
	return time.Now().Format(time.DateTime)
}
