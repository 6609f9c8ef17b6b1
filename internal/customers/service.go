package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

const (
	maxNameLength  = 128
	maxPhoneLength = 32
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the identity store facade used by every chat-facing flow.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*CustomerDTO, error)
	Get(ctx context.Context, chatID int64) (*models.Customer, error)
	IsAdmin(ctx context.Context, chatID int64) (bool, error)
	RegisterAdmin(ctx context.Context, input AdminRegisterInput) (*AdminDTO, error)
	BootstrapAdmin(ctx context.Context, chatID int64, password string) (bool, error)
	VerifyAdminPassword(ctx context.Context, chatID int64, password string) error
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	admins  *adminAuthorizer
	hasher  passwordHasher
	limiter attemptLimiter
	lease   RegistrationLease
	cfg     AdminSettings
}

// ServiceParams wires the identity store.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Logger  *logger.Logger
	Hasher  passwordHasher
	Cache   AdminCache
	Limiter attemptLimiter
	Lease   RegistrationLease
	Admin   AdminSettings
}

// NewService builds the identity service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		logg:    params.Logger,
		admins:  newAdminAuthorizer(params.Repo, params.Cache, params.Admin.CacheTTL, params.Logger),
		hasher:  params.Hasher,
		limiter: params.Limiter,
		lease:   params.Lease,
		cfg:     params.Admin,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*CustomerDTO, error) {
	if input.ChatID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" || len(phone) > maxPhoneLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	if _, err := s.repo.FindByChatID(ctx, input.ChatID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer")
	}

	created, err := s.repo.Create(ctx, &models.Customer{
		ChatID: input.ChatID,
		Name:   name,
		Phone:  phone,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_customers_chat_id") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "customer already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	s.logg.Info(s.logg.WithChatID(ctx, input.ChatID), "customer registered")
	return FromModel(created), nil
}

// Get resolves a registered customer by chat identity.
func (s *service) Get(ctx context.Context, chatID int64) (*models.Customer, error) {
	customer, err := s.repo.FindByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	return s.admins.IsAdmin(ctx, chatID)
}
