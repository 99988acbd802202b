package api

import (
	"context"

	"github.com/webook-dev/webook-client/pkg/client"
)

// Category is a notification inbox
type Category string

const (
	CategoryInteraction Category = "interaction"
	CategoryFollow      Category = "follow"
	CategorySystem      Category = "system"
)

type UnreadCounts struct {
	Interaction int64 `json:"interaction"`
	Follow      int64 `json:"follow"`
	System      int64 `json:"system"`
	Total       int64 `json:"total"`
}

type NotificationSender struct {
	ID     int64  `json:"id"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type NotificationTarget struct {
	Type    string `json:"type,omitempty"`
	ID      int64  `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Preview string `json:"preview,omitempty"`
}

type Notification struct {
	ID       int64               `json:"id"`
	Category Category            `json:"category"`
	Content  string              `json:"content"`
	Time     string              `json:"time"`
	Sender   *NotificationSender `json:"sender,omitempty"`
	Target   *NotificationTarget `json:"target,omitempty"`
	// Status is "unread" or "read"
	Status string `json:"status"`
}

// MarkRead selects notifications by id, or a whole category when IDs is empty
type MarkRead struct {
	IDs  []int64  `json:"ids,omitempty"`
	Type Category `json:"type,omitempty"`
}

type NotificationService struct {
	c *client.Client
}

func (s *NotificationService) UnreadCounts(ctx context.Context) (*UnreadCounts, error) {
	var counts UnreadCounts
	if err := s.c.Get(ctx, "/notifications/unread_counts", nil, &counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (s *NotificationService) List(ctx context.Context, category Category, page Page) ([]Notification, error) {
	query := page.values()
	query.Set("type", string(category))
	var out []Notification
	if err := s.c.Get(ctx, "/notifications", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, req MarkRead) error {
	return s.c.Post(ctx, "/notifications/mark_read", req, nil)
}
