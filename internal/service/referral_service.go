package service

import (
	"context"
	"fmt"

	"microwallet/internal/domain"

	"github.com/shopspring/decimal"
)

const referralListLimit = 50

type ReferralReader interface {
	ReferralsByCode(ctx context.Context, code string, limit int) ([]domain.Referral, error)
	ReferralEarnings(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// ReferralService reports who a user has referred and what it earned them
type ReferralService struct {
	users     UserStore
	referrals ReferralReader
}

func NewReferralService(users UserStore, referrals ReferralReader) *ReferralService {
	return &ReferralService{users: users, referrals: referrals}
}

type ReferralSummary struct {
	Code      string
	Stats     domain.ReferralStats
	Referrals []domain.Referral
}

func (s *ReferralService) Summary(ctx context.Context, userID int64) (*ReferralSummary, error) {
	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	list, err := s.referrals.ReferralsByCode(ctx, user.ReferralCode, referralListLimit)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	earned, err := s.referrals.ReferralEarnings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("referral earnings: %w", err)
	}

	return &ReferralSummary{
		Code: user.ReferralCode,
		Stats: domain.ReferralStats{
			TotalReferrals: user.TotalReferrals,
			TotalEarned:    earned,
		},
		Referrals: list,
	}, nil
}
