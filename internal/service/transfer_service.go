package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/logger"
	"microwallet/internal/repository"

	"github.com/shopspring/decimal"
)

type TransferInput struct {
	ToPhone string
	Amount  decimal.Decimal
	PIN     string
}

// TransferService moves balance between two users in one transaction
type TransferService struct {
	users  UserStore
	ledger *Ledger
	audit  *AuditService
	gate   gate
}

func NewTransferService(users UserStore, ledger *Ledger, hasher *Hasher, audit *AuditService) *TransferService {
	return &TransferService{
		users:  users,
		ledger: ledger,
		audit:  audit,
		gate:   gate{hasher: hasher, audit: audit},
	}
}

// Transfer debits the sender and credits the recipient. Both rows are locked
// lowest id first, so opposing transfers cannot deadlock.
func (s *TransferService) Transfer(ctx context.Context, senderID int64, in TransferInput, req BindingRequest) (decimal.Decimal, error) {
	if err := validateAmount(in.Amount); err != nil {
		return decimal.Zero, err
	}
	in.ToPhone = strings.TrimSpace(in.ToPhone)
	if in.ToPhone == "" {
		return decimal.Zero, apperr.Validation("Recipient phone is required")
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, errUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load sender: %w", err)
	}
	if err := s.gate.requireBinding(ctx, sender, req, domain.AuditActionTransfer); err != nil {
		return decimal.Zero, err
	}
	if err := s.gate.requirePIN(ctx, sender, in.PIN, req, domain.AuditActionTransfer); err != nil {
		return decimal.Zero, err
	}

	recipient, err := s.users.GetByPhone(ctx, in.ToPhone)
	if errors.Is(err, repository.ErrNotFound) {
		return decimal.Zero, apperr.NotFound("Recipient not found")
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load recipient: %w", err)
	}
	if recipient.ID == sender.ID {
		return decimal.Zero, apperr.Validation("Cannot transfer to yourself")
	}

	var newBalance decimal.Decimal
	err = s.ledger.Atomically(ctx, func(tx *LedgerTx) error {
		firstID, secondID := sender.ID, recipient.ID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}
		first, err := tx.LockUser(ctx, firstID)
		if err != nil {
			return fmt.Errorf("lock user %d: %w", firstID, err)
		}
		second, err := tx.LockUser(ctx, secondID)
		if err != nil {
			return fmt.Errorf("lock user %d: %w", secondID, err)
		}

		locked := first
		if second.ID == sender.ID {
			locked = second
		}
		if locked.Balance.LessThan(in.Amount) {
			return errInsufficientBalance
		}

		if newBalance, err = tx.Apply(ctx, sender.ID, in.Amount.Neg(), domain.TxTransfer,
			"Transfer to "+recipient.Phone); err != nil {
			return err
		}
		_, err = tx.Apply(ctx, recipient.ID, in.Amount, domain.TxTransfer, "Transfer from "+sender.Phone)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.audit.LogWithRequest(ctx, sender.ID, domain.AuditActionTransfer, domain.AuditCategoryTransfer, req,
		map[string]interface{}{"recipient_id": recipient.ID, "amount": in.Amount.StringFixed(2)})
	logger.WithContext(ctx).Info("transfer completed",
		"sender_id", sender.ID, "recipient_id", recipient.ID, "amount", in.Amount.StringFixed(2))

	return newBalance, nil
}
