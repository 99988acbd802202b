package api

import (
	"context"

	"github.com/webook-dev/webook-client/pkg/client"
)

type CodeService struct {
	c *client.Client
}

// Send sends a verification code for biz to phone
func (s *CodeService) Send(ctx context.Context, biz, phone string) error {
	return s.c.Post(ctx, "/code/send", map[string]string{"biz": biz, "phone": phone}, nil)
}

// Verify checks input against the code last sent for biz to phone
func (s *CodeService) Verify(ctx context.Context, biz, phone, input string) (bool, error) {
	var out struct {
		Answer bool `json:"answer"`
	}
	body := map[string]string{"biz": biz, "phone": phone, "inputCode": input}
	if err := s.c.Post(ctx, "/code/verify", body, &out); err != nil {
		return false, err
	}
	return out.Answer, nil
}
