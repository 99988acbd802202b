package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/webook-dev/webook-client/pkg/client"
)

// User is the profile of a webook user. Field matching is case-insensitive,
// so both the lower and the capitalized spelling the backend uses decode.
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	AboutMe  string `json:"aboutMe"`
	Birthday string `json:"birthday,omitempty"`
}

// ProfileUpdate carries the editable profile fields
type ProfileUpdate struct {
	Nickname string `json:"nickname,omitempty"`
	AboutMe  string `json:"aboutMe,omitempty"`
	Birthday string `json:"birthday,omitempty"`
}

type UserService struct {
	c *client.Client
}

// Login signs in with email and password, then loads and stores the profile
func (s *UserService) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	if err := s.c.Post(ctx, "/users/login", body, nil); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx)
}

// LoginSMS signs in (or signs up) with a phone number and an SMS code
func (s *UserService) LoginSMS(ctx context.Context, phone, code string) (*User, error) {
	body := map[string]string{"phone": phone, "code": code}
	if err := s.c.Post(ctx, "/users/login_sms", body, nil); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx)
}

// completeLogin runs once the login response has rotated the credentials in
func (s *UserService) completeLogin(ctx context.Context) (*User, error) {
	if !s.c.Session().LoggedIn() {
		return nil, fmt.Errorf("login response carried no access token")
	}
	user, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		user.ID = viewerID(s.c)
	}
	if err := s.c.Session().SetUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Signup(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password, "confirmPassword": password}
	return s.c.Post(ctx, "/users/signup", body, nil)
}

func (s *UserService) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := s.c.Get(ctx, "/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile edits the profile and refreshes the stored copy
func (s *UserService) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	if err := s.c.Post(ctx, "/users/edit", update, nil); err != nil {
		return err
	}
	var stored User
	if err := s.c.Session().User(&stored); err != nil {
		// nothing stored locally
		return nil
	}
	if update.Nickname != "" {
		stored.Nickname = update.Nickname
	}
	if update.AboutMe != "" {
		stored.AboutMe = update.AboutMe
	}
	if update.Birthday != "" {
		stored.Birthday = update.Birthday
	}
	return s.c.Session().SetUser(&stored)
}

func (s *UserService) SendSMSCode(ctx context.Context, phone string) error {
	return s.c.Post(ctx, "/users/login_sms/code/send", map[string]string{"phone": phone}, nil)
}

// Logout ends the session on the server and drops the local credentials either way
func (s *UserService) Logout(ctx context.Context) error {
	err := s.c.Post(ctx, "/users/logout", struct{}{}, nil)
	if clearErr := s.c.Session().Clear(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return err
}

// RefreshToken exchanges the refresh token for a new credential pair
func (s *UserService) RefreshToken(ctx context.Context) error {
	return s.c.Refresh(ctx)
}

// Current returns the profile stored at login
func (s *UserService) Current() (*User, error) {
	var user User
	if err := s.c.Session().User(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar uploads an avatar image and returns its URL
func (s *UserService) UploadAvatar(ctx context.Context, name string, content []byte) (string, error) {
	form := &client.MultipartForm{
		Files: []client.File{{Param: "file", Name: name, Content: content}},
	}
	var link string
	if err := s.c.PostMultipart(ctx, "/upload/avatar", form, &link); err != nil {
		return "", err
	}
	return link, nil
}
