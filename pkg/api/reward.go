package api

import (
	"context"
	"net/url"

	"github.com/webook-dev/webook-client/pkg/client"
)

type RewardStatus int

const (
	RewardStatusUnknown RewardStatus = iota
	RewardStatusInit
	RewardStatusPayed
	RewardStatusFailed
)

func (s RewardStatus) String() string {
	switch s {
	case RewardStatusInit:
		return "init"
	case RewardStatusPayed:
		return "payed"
	case RewardStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RewardRequest tips TargetUID Amt cents for biz/BizID
type RewardRequest struct {
	Biz       string
	BizID     int64
	BizName   string
	TargetUID int64
	Amt       int64
}

type PreReward struct {
	CodeURL string `json:"code_url"`
	Rid     int64  `json:"rid"`
}

type RewardService struct {
	c *client.Client
}

// Pre creates a pending reward and returns the payment code URL
func (s *RewardService) Pre(ctx context.Context, req RewardRequest) (*PreReward, error) {
	uid, err := selfID(s.c)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"biz":        req.Biz,
		"biz_id":     req.BizID,
		"biz_name":   req.BizName,
		"target_uid": req.TargetUID,
		"uid":        uid,
		"amt":        req.Amt,
	}
	var out PreReward
	if err := s.c.Post(ctx, "/reward/pre", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the payment status of reward rid
func (s *RewardService) Get(ctx context.Context, rid int64) (RewardStatus, error) {
	uid, err := selfID(s.c)
	if err != nil {
		return RewardStatusUnknown, err
	}
	var out struct {
		Status RewardStatus `json:"status"`
	}
	if err := s.c.Get(ctx, "/reward/get", url.Values{"rid": {itoa(rid)}, "uid": {itoa(uid)}}, &out); err != nil {
		return RewardStatusUnknown, err
	}
	return out.Status, nil
}
