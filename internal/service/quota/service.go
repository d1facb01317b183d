package quota

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/internal/service/quota/models"
)

// Service сервис квоты учебных часов
type Service struct {
	repo      QuotaRepository
	txManager TransactionManager
	logger    Logger
}

// NewService создает новый экземпляр сервиса квоты
func NewService(repo QuotaRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// GetQuota возвращает доступные часы, посчитанные по журналу
// Расхождение с материализованным балансом логируется как ошибка
func (s *Service) GetQuota(ctx context.Context, userID int64) (*models.QuotaResponse, error) {
	var (
		sum     decimal.Decimal
		balance *domain.UserQuota
	)

	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		sum, err = s.repo.SumLedger(txCtx, userID)
		if err != nil {
			return err
		}
		balance, err = s.repo.GetBalance(txCtx, userID)
		return err
	})
	if err != nil {
		s.logger.Error("GetQuota: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetQuota - repository error: %v", ErrInternal, err)
	}

	if !sum.Equal(balance.AvailableHours) {
		s.logger.Error("GetQuota: ledger sum %s differs from balance %s for user=%d",
			sum.StringFixed(2), balance.AvailableHours.StringFixed(2), userID)
	}

	return &models.QuotaResponse{
		UserID:         userID,
		AvailableHours: sum,
	}, nil
}

// GetLedger возвращает историю изменений квоты пользователя
func (s *Service) GetLedger(ctx context.Context, userID int64) (*models.LedgerResponse, error) {
	entries, err := s.repo.GetLedger(ctx, userID)
	if err != nil {
		s.logger.Error("GetLedger: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetLedger - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetLedger: fetched %d entries for user=%d", len(entries), userID)
	return models.FromDomainLedger(entries), nil
}

// Credit начисляет часы (покупка пакета или бесплатное начисление)
// Доступно только администратору
func (s *Service) Credit(ctx context.Context, req *models.CreditRequest) (*models.QuotaResponse, error) {
	s.logger.Info("Credit: user=%d, hours=%s, type=%s", req.UserID, req.Hours.String(), req.TransactionType)

	entry, err := req.ToDomainEntry()
	if err != nil {
		s.logger.Warn("Credit: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var balance decimal.Decimal
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.LockBalance(txCtx, req.UserID); err != nil {
			return err
		}
		balance, err = s.repo.AppendEntry(txCtx, entry)
		return err
	})
	if err != nil {
		s.logger.Error("Credit: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: Credit - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Credit: user=%d new balance=%s", req.UserID, balance.StringFixed(2))
	return &models.QuotaResponse{
		UserID:         req.UserID,
		AvailableHours: balance,
	}, nil
}
