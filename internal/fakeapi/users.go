package fakeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// LoginSuccessMessage is the message the backend sends with a successful login
const LoginSuccessMessage = "登录成功"

type user struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	AboutMe  string `json:"aboutMe"`
	Birthday string `json:"birthday"`
}

// profileView mirrors the capitalized field names the profile endpoint uses
type profileView struct {
	Email    string
	Nickname string
	Phone    string
	AboutMe  string
	Birthday string
}

// AddUser registers a user with email and password and returns its id
func (s *Server) AddUser(email, password, nickname string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: s.newID(), Email: email, Password: password, Nickname: nickname}
	s.users[u.ID] = u
	return u.ID
}

func (s *Server) userByEmail(email string) *user {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *Server) userByPhone(phone string) *user {
	for _, u := range s.users {
		if u.Phone == phone {
			return u
		}
	}
	return nil
}

func (s *Server) signup(c echo.Context) error {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return badRequest(c)
	}
	if req.Password != req.ConfirmPassword {
		return fail(c, 4, "两次输入的密码不一致")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByEmail(req.Email) != nil {
		return fail(c, 4, "邮箱冲突")
	}
	u := &user{ID: s.newID(), Email: req.Email, Password: req.Password}
	s.users[u.ID] = u
	return message(c, "注册成功")
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmail(req.Email)
	if u == nil || u.Password != req.Password {
		return fail(c, 4, "用户名或密码不对")
	}
	if err := s.issueTokens(c, u.ID); err != nil {
		return systemError(c)
	}
	return message(c, LoginSuccessMessage)
}

func (s *Server) sendLoginCode(c echo.Context) error {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil || req.Phone == "" {
		return fail(c, 4, "请输入手机号码")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes["login:"+req.Phone] = "123456"
	return message(c, "发送成功")
}

func (s *Server) loginSMS(c echo.Context) error {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if want, found := s.codes["login:"+req.Phone]; !found || want != req.Code {
		return fail(c, 4, "验证码有误")
	}
	delete(s.codes, "login:"+req.Phone)

	u := s.userByPhone(req.Phone)
	if u == nil {
		u = &user{ID: s.newID(), Phone: req.Phone}
		s.users[u.ID] = u
	}
	if err := s.issueTokens(c, u.ID); err != nil {
		return systemError(c)
	}
	return message(c, "验证码校验通过")
}

func (s *Server) refreshToken(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++

	token := bearer(c)
	uid, found := s.refresh[token]
	if !found {
		return c.NoContent(http.StatusUnauthorized)
	}
	delete(s.refresh, token)
	if err := s.issueTokens(c, uid); err != nil {
		return systemError(c)
	}
	return message(c, "OK")
}

func (s *Server) logout(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, bearer(c))
	c.Response().Header().Set(headerAccessToken, "")
	c.Response().Header().Set(headerRefreshToken, "")
	return message(c, "退出登录成功")
}

func (s *Server) profile(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[currentUID(c)]
	if !found {
		return systemError(c)
	}
	return ok(c, profileView{
		Email:    u.Email,
		Nickname: u.Nickname,
		Phone:    u.Phone,
		AboutMe:  u.AboutMe,
		Birthday: u.Birthday,
	})
}

func (s *Server) editProfile(c echo.Context) error {
	var req struct {
		Nickname string `json:"nickname"`
		AboutMe  string `json:"aboutMe"`
		Birthday string `json:"birthday"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[currentUID(c)]
	if !found {
		return systemError(c)
	}
	if req.Nickname != "" {
		u.Nickname = req.Nickname
	}
	if req.AboutMe != "" {
		u.AboutMe = req.AboutMe
	}
	if req.Birthday != "" {
		u.Birthday = req.Birthday
	}
	return message(c, "OK")
}
