package customers

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/redis"
)

const (
	adminFlagYes = "1"
	adminFlagNo  = "0"

	adminRegistrationLock = "admin-registration"
	adminRegistrationTTL  = 30 * time.Second
)

// AdminSettings configures administrator sign-up and login throttling.
type AdminSettings struct {
	RegistrationPassword string
	CacheTTL             time.Duration
	LoginAttemptLimit    int64
	LoginAttemptWindow   time.Duration
}

// AdminCache stores short-lived administrator flags.
type AdminCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AdminFlagKey(chatID int64) string
}

// RegistrationLease serializes first-administrator creation across API
// replicas. The count-then-insert check is not safe under READ COMMITTED.
type RegistrationLease interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

type attemptLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// adminAuthorizer answers "is this chat an administrator". Answers may be
// served from the cache for up to ttl; cache failures fall through to the DB.
type adminAuthorizer struct {
	repo  Repository
	cache AdminCache
	ttl   time.Duration
	logg  *logger.Logger
}

func newAdminAuthorizer(repo Repository, cache AdminCache, ttl time.Duration, logg *logger.Logger) *adminAuthorizer {
	return &adminAuthorizer{repo: repo, cache: cache, ttl: ttl, logg: logg}
}

func (a *adminAuthorizer) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	if chatID == 0 {
		return false, nil
	}
	if a.cache != nil && a.ttl > 0 {
		value, err := a.cache.Get(ctx, a.cache.AdminFlagKey(chatID))
		switch {
		case err == nil:
			return value == adminFlagYes, nil
		case !redis.IsMiss(err):
			a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "admin cache read failed")
		}
	}

	_, err := a.repo.FindAdminByChatID(ctx, chatID)
	isAdmin := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}

	if a.cache != nil && a.ttl > 0 {
		flag := adminFlagNo
		if isAdmin {
			flag = adminFlagYes
		}
		if err := a.cache.Set(ctx, a.cache.AdminFlagKey(chatID), flag, a.ttl); err != nil {
			a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "admin cache write failed")
		}
	}
	return isAdmin, nil
}

func (a *adminAuthorizer) forget(ctx context.Context, chatID int64) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Del(ctx, a.cache.AdminFlagKey(chatID)); err != nil {
		a.logg.Warn(a.logg.WithField(ctx, "error", err.Error()), "admin cache invalidation failed")
	}
}

// RegisterAdmin creates the first administrator. It is refused once any
// administrator exists or when the registration password does not match.
func (s *service) RegisterAdmin(ctx context.Context, input AdminRegisterInput) (*AdminDTO, error) {
	if input.ChatID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	if input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if s.cfg.RegistrationPassword == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "administrator registration is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(input.RegistrationPassword), []byte(s.cfg.RegistrationPassword)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "registration password mismatch")
	}

	admin, err := s.createFirstAdmin(ctx, input.ChatID, input.Password, trimmed(input.Name), trimmed(input.Phone))
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "administrator already registered")
	}
	s.logg.Info(s.logg.WithChatID(ctx, input.ChatID), "administrator registered")
	return adminFromModel(admin), nil
}

// BootstrapAdmin seeds the configured administrator when none exists yet.
// It reports whether a record was created.
func (s *service) BootstrapAdmin(ctx context.Context, chatID int64, password string) (bool, error) {
	if chatID == 0 {
		return false, nil
	}
	if password == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "bootstrap password is required")
	}
	admin, err := s.createFirstAdmin(ctx, chatID, password, nil, nil)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			// another replica is seeding the same administrator
			return false, nil
		}
		return false, err
	}
	if admin == nil {
		return false, nil
	}
	s.logg.Info(s.logg.WithChatID(ctx, chatID), "bootstrap administrator created")
	return true, nil
}

// createFirstAdmin returns nil without error when an administrator already exists.
func (s *service) createFirstAdmin(ctx context.Context, chatID int64, password string, name, phone *string) (*models.Admin, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	release, err := s.acquireRegistrationLease(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *models.Admin
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountAdmins(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count admins")
		}
		if count > 0 {
			return nil
		}
		created, err = repo.CreateAdmin(ctx, &models.Admin{
			ChatID:       chatID,
			Name:         name,
			Phone:        phone,
			PasswordHash: hash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "ux_admins_chat_id") {
				return pkgerrors.New(pkgerrors.CodeConflict, "administrator already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created != nil {
		s.admins.forget(ctx, chatID)
	}
	return created, nil
}

// acquireRegistrationLease takes the cluster-wide registration lease. The
// returned release only deletes the key while this call still owns it.
func (s *service) acquireRegistrationLease(ctx context.Context) (func(), error) {
	if s.lease == nil {
		return func() {}, nil
	}
	key := s.lease.LockKey(adminRegistrationLock)
	owner := uuid.NewString()
	ok, err := s.lease.SetNX(ctx, key, owner, adminRegistrationTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire admin registration lease")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "administrator registration in progress")
	}
	return func() {
		value, err := s.lease.Get(ctx, key)
		if err != nil {
			if !redis.IsMiss(err) {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "admin registration lease read failed")
			}
			return
		}
		if value != owner {
			return
		}
		if err := s.lease.Del(ctx, key); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "admin registration lease release failed")
		}
	}, nil
}

// VerifyAdminPassword checks the caller's own credential. Attempts are
// throttled per chat when a limiter is configured.
func (s *service) VerifyAdminPassword(ctx context.Context, chatID int64, password string) error {
	if chatID == 0 || password == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if s.limiter != nil && s.cfg.LoginAttemptLimit > 0 {
		scope := fmt.Sprintf("admin_login:%d", chatID)
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, scope, s.cfg.LoginAttemptLimit, s.cfg.LoginAttemptWindow)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "admin login limiter unavailable")
		} else if !allowed {
			return pkgerrors.New(pkgerrors.CodeForbidden, "too many login attempts")
		}
	}

	admin, err := s.repo.FindAdminByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}
	ok, err := s.hasher.Verify(password, admin.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		s.logg.Warn(s.logg.WithChatID(ctx, chatID), "admin password mismatch")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	if s.hasher.NeedsRehash(admin.PasswordHash) {
		if hash, err := s.hasher.Hash(password); err == nil {
			if err := s.repo.UpdateAdminPasswordHash(ctx, admin.ID, hash); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "admin password rehash failed")
			}
		}
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}
