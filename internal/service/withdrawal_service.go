package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/logger"
	"microwallet/internal/metrics"
	"microwallet/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	withdrawalsPageLen = 20
	pendingQueueLen    = 100
)

var MinWithdrawal = decimal.RequireFromString("1.00")

var (
	errInsufficientBalance = apperr.Validation("Insufficient balance")
	errPendingWithdrawal   = apperr.Conflict("You already have a pending withdrawal")
	errWithdrawalNotFound  = apperr.NotFound("Withdrawal not found")
	errWithdrawalResolved  = apperr.Conflict("Withdrawal is not pending")
)

type WithdrawInput struct {
	Amount  decimal.Decimal
	Method  domain.WithdrawalMethod
	Address string
	PIN     string
}

type WithdrawResult struct {
	NewBalance decimal.Decimal
	Withdrawal *domain.WithdrawalRequest
}

// WithdrawalService runs the pending -> completed | rejected payout workflow.
// The amount is reserved (debited) at request time and refunded on rejection.
type WithdrawalService struct {
	users       UserStore
	withdrawals WithdrawalReader
	ledger      *Ledger
	audit       *AuditService
	gate        gate
}

func NewWithdrawalService(users UserStore, withdrawals WithdrawalReader, ledger *Ledger, hasher *Hasher, audit *AuditService) *WithdrawalService {
	return &WithdrawalService{
		users:       users,
		withdrawals: withdrawals,
		ledger:      ledger,
		audit:       audit,
		gate:        gate{hasher: hasher, audit: audit},
	}
}

// Request validates and files a withdrawal. The pending check, the debit
// and the insert happen under the user's row lock in one transaction.
func (s *WithdrawalService) Request(ctx context.Context, userID int64, in WithdrawInput, req BindingRequest) (*WithdrawResult, error) {
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Amount.LessThan(MinWithdrawal) {
		return nil, apperr.Validation("Minimum withdrawal is $1.00")
	}
	if !in.Method.Valid() {
		return nil, apperr.Validation("Invalid withdrawal method")
	}
	in.Address = strings.TrimSpace(in.Address)
	if in.Address == "" {
		return nil, apperr.Validation("Address is required")
	}

	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.requireBinding(ctx, user, req, domain.AuditActionWithdrawRequest); err != nil {
		return nil, err
	}
	if err := s.gate.requirePIN(ctx, user, in.PIN, req, domain.AuditActionWithdrawRequest); err != nil {
		return nil, err
	}

	result := &WithdrawResult{}
	err = s.ledger.Atomically(ctx, func(tx *LedgerTx) error {
		locked, err := tx.LockUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		pending, err := tx.HasPendingWithdrawal(ctx, userID)
		if err != nil {
			return fmt.Errorf("check pending: %w", err)
		}
		if pending {
			return errPendingWithdrawal
		}
		if locked.Balance.LessThan(in.Amount) {
			return errInsufficientBalance
		}

		balance, err := tx.Apply(ctx, userID, in.Amount.Neg(), domain.TxWithdraw,
			fmt.Sprintf("Withdrawal via %s (pending)", in.Method))
		if err != nil {
			return err
		}

		w := &domain.WithdrawalRequest{
			UserID:  userID,
			Amount:  in.Amount,
			Method:  in.Method,
			Address: in.Address,
			Status:  domain.WithdrawalStatusPending,
		}
		if err := tx.InsertWithdrawal(ctx, w); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errPendingWithdrawal
			}
			return fmt.Errorf("insert withdrawal: %w", err)
		}

		result.NewBalance = balance
		result.Withdrawal = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Withdrawals.WithLabelValues(string(domain.WithdrawalStatusPending)).Inc()
	s.audit.LogWithRequest(ctx, userID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, req,
		map[string]interface{}{"withdrawal_id": result.Withdrawal.ID, "amount": in.Amount.StringFixed(2), "method": in.Method})
	logger.WithContext(ctx).Info("withdrawal requested",
		"user_id", userID, "withdrawal_id", result.Withdrawal.ID, "amount", in.Amount.StringFixed(2))

	return result, nil
}

// ListForUser returns the user's most recent requests, newest first
func (s *WithdrawalService) ListForUser(ctx context.Context, userID int64) ([]domain.WithdrawalRequest, error) {
	return s.withdrawals.RecentWithdrawals(ctx, userID, withdrawalsPageLen)
}

// ListPending returns the administrative queue, oldest first
func (s *WithdrawalService) ListPending(ctx context.Context, limit int) ([]domain.WithdrawalRequest, error) {
	if limit <= 0 || limit > pendingQueueLen {
		limit = pendingQueueLen
	}
	return s.withdrawals.PendingWithdrawals(ctx, limit)
}

// Complete marks a pending request as paid out. The balance was already debited.
func (s *WithdrawalService) Complete(ctx context.Context, id int64, note string) (*domain.WithdrawalRequest, error) {
	var w *domain.WithdrawalRequest
	err := s.ledger.Atomically(ctx, func(tx *LedgerTx) error {
		var err error
		if w, err = lockPending(ctx, tx, id); err != nil {
			return err
		}
		return s.resolve(ctx, tx, w, domain.WithdrawalStatusCompleted, note)
	})
	if err != nil {
		return nil, err
	}

	metrics.Withdrawals.WithLabelValues(string(domain.WithdrawalStatusCompleted)).Inc()
	s.audit.Log(ctx, w.UserID, domain.AuditActionWithdrawDone, domain.AuditCategoryAdmin,
		map[string]interface{}{"withdrawal_id": id, "note": note})
	return w, nil
}

// Reject refunds the reserved amount and closes the request
func (s *WithdrawalService) Reject(ctx context.Context, id int64, reason string) (*domain.WithdrawalRequest, error) {
	var w *domain.WithdrawalRequest
	err := s.ledger.Atomically(ctx, func(tx *LedgerTx) error {
		var err error
		if w, err = lockPending(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.LockUser(ctx, w.UserID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if _, err := tx.Apply(ctx, w.UserID, w.Amount, domain.TxWithdraw,
			fmt.Sprintf("Refund for rejected withdrawal #%d", w.ID)); err != nil {
			return err
		}
		return s.resolve(ctx, tx, w, domain.WithdrawalStatusRejected, reason)
	})
	if err != nil {
		return nil, err
	}

	metrics.Withdrawals.WithLabelValues(string(domain.WithdrawalStatusRejected)).Inc()
	s.audit.Log(ctx, w.UserID, domain.AuditActionWithdrawReject, domain.AuditCategoryAdmin,
		map[string]interface{}{"withdrawal_id": id, "reason": reason, "refund": w.Amount.StringFixed(2)})
	return w, nil
}

func (s *WithdrawalService) resolve(ctx context.Context, tx *LedgerTx, w *domain.WithdrawalRequest, status domain.WithdrawalStatus, note string) error {
	err := tx.ResolveWithdrawal(ctx, w.ID, status, note)
	if errors.Is(err, repository.ErrStaleUpdate) {
		return errWithdrawalResolved
	}
	if err != nil {
		return fmt.Errorf("resolve withdrawal: %w", err)
	}
	w.Status = status
	w.Note = note
	return nil
}

func lockPending(ctx context.Context, tx *LedgerTx, id int64) (*domain.WithdrawalRequest, error) {
	w, err := tx.LockWithdrawal(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errWithdrawalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock withdrawal: %w", err)
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, errWithdrawalResolved
	}
	return w, nil
}
