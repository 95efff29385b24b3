package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop-backend/internal/cache"
	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// UserService handles user accounts
type UserService struct {
	store  UserStore
	cache  *cache.Store[models.User]
	events Publisher
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store UserStore, backend cache.Backend, ttl time.Duration, events Publisher) *UserService {
	return &UserService{
		store:  store,
		cache:  cache.New[models.User](backend, models.EntityUser, ttl),
		events: events,
		logger: util.GetLogger(),
	}
}

// UserInput is the body of user create and update requests
type UserInput struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (in *UserInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return invalid("name and email are required")
	}
	return nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storageErr(models.EntityUser, "failed to list users", err)
	}
	return users, nil
}

// GetUser returns a user through the cache.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.GetUser")
	defer span.End()

	user, err := s.cache.Get(ctx, id, s.store.GetUserByID)
	if err != nil {
		return nil, storageErr(models.EntityUser, "failed to get user", err)
	}
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, in *UserInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	user := &models.User{Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, s.writeErr("failed to create user", err)
	}

	s.logger.Info("User created", zap.Int64("user_id", user.ID))
	publishEntity(ctx, s.events, s.logger, models.EventTypeUserCreated, models.EntityUser, user.ID, "")
	return user, nil
}

// UpdateUser replaces every field of the user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in *UserInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	defer s.cache.Invalidate(ctx, id)

	user := &models.User{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return s.writeErr("failed to update user", err)
	}

	publishEntity(ctx, s.events, s.logger, models.EventTypeUserUpdated, models.EntityUser, id, "")
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	defer s.cache.Invalidate(ctx, id)

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return storageErr(models.EntityUser, "failed to delete user", err)
	}

	publishEntity(ctx, s.events, s.logger, models.EventTypeUserDeleted, models.EntityUser, id, "")
	return nil
}

func (s *UserService) writeErr(op string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return &ConflictError{Message: "email already exists"}
	}
	s.logger.Error(op, zap.Error(err))
	return storageErr(models.EntityUser, op, err)
}
