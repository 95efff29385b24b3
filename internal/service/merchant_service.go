package service

import (
	"context"
	"strings"
	"time"

	"shop-backend/internal/cache"
	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

type MerchantStore interface {
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
	GetMerchantByID(ctx context.Context, id int64) (*models.Merchant, error)
	CreateMerchant(ctx context.Context, m *models.Merchant) error
	UpdateMerchant(ctx context.Context, m *models.Merchant) error
	DeleteMerchant(ctx context.Context, id int64) error
}

// MerchantService handles merchant accounts. Merchant events drive the
// product cache worker, so every write publishes one.
type MerchantService struct {
	store  MerchantStore
	cache  *cache.Store[models.Merchant]
	events Publisher
	logger *zap.Logger
}

func NewMerchantService(store MerchantStore, backend cache.Backend, ttl time.Duration, events Publisher) *MerchantService {
	return &MerchantService{
		store:  store,
		cache:  cache.New[models.Merchant](backend, models.EntityMerchant, ttl),
		events: events,
		logger: util.GetLogger(),
	}
}

// MerchantInput is the body of merchant create and update requests. An
// empty status means active.
type MerchantInput struct {
	Name        string  `json:"name"`
	OwnerID     *int64  `json:"owner_id"`
	Description *string `json:"description"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Status      string  `json:"status"`
}

func (in *MerchantInput) toModel(id int64) (*models.Merchant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name is required")
	}
	status := in.Status
	if status == "" {
		status = models.MerchantStatusActive
	}
	if !models.ValidMerchantStatus(status) {
		return nil, invalid("invalid status")
	}
	return &models.Merchant{
		ID:          id,
		Name:        in.Name,
		OwnerID:     in.OwnerID,
		Description: in.Description,
		Phone:       in.Phone,
		Email:       in.Email,
		Address:     in.Address,
		Status:      status,
	}, nil
}

func (s *MerchantService) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	merchants, err := s.store.ListMerchants(ctx)
	if err != nil {
		return nil, storageErr(models.EntityMerchant, "failed to list merchants", err)
	}
	return merchants, nil
}

func (s *MerchantService) GetMerchant(ctx context.Context, id int64) (*models.Merchant, error) {
	ctx, span := util.StartSpan(ctx, "MerchantService.GetMerchant")
	defer span.End()

	m, err := s.cache.Get(ctx, id, s.store.GetMerchantByID)
	if err != nil {
		return nil, storageErr(models.EntityMerchant, "failed to get merchant", err)
	}
	return m, nil
}

func (s *MerchantService) CreateMerchant(ctx context.Context, in *MerchantInput) (*models.Merchant, error) {
	m, err := in.toModel(0)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateMerchant(ctx, m); err != nil {
		s.logger.Error("Failed to create merchant", zap.Error(err))
		return nil, storageErr(models.EntityMerchant, "failed to create merchant", err)
	}

	s.logger.Info("Merchant created", zap.Int64("merchant_id", m.ID))
	publishEntity(ctx, s.events, s.logger, models.EventTypeMerchantCreated, models.EntityMerchant, m.ID, m.Status)
	return m, nil
}

func (s *MerchantService) UpdateMerchant(ctx context.Context, id int64, in *MerchantInput) error {
	m, err := in.toModel(id)
	if err != nil {
		return err
	}
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.UpdateMerchant(ctx, m); err != nil {
		return storageErr(models.EntityMerchant, "failed to update merchant", err)
	}

	publishEntity(ctx, s.events, s.logger, models.EventTypeMerchantUpdated, models.EntityMerchant, id, m.Status)
	return nil
}

func (s *MerchantService) DeleteMerchant(ctx context.Context, id int64) error {
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.DeleteMerchant(ctx, id); err != nil {
		return storageErr(models.EntityMerchant, "failed to delete merchant", err)
	}

	publishEntity(ctx, s.events, s.logger, models.EventTypeMerchantDeleted, models.EntityMerchant, id, "")
	return nil
}
