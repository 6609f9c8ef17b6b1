package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/orderbot-backend/pkg/redis"
)

// DefaultDraftTTL bounds how long an abandoned wizard survives.
const DefaultDraftTTL = 30 * time.Minute

// Wizard steps in the order they are asked.
const (
	StepDeliveryType = "delivery_type"
	StepAddress      = "address"
	StepTime         = "time"
	StepConsent      = "consent"
	StepReady        = "ready"
)

// Draft is a partially completed checkout for one chat.
type Draft struct {
	ChatID           int64     `json:"chat_id"`
	DeliveryTypeID   *int64    `json:"delivery_type_id,omitempty"`
	DeliveryTypeName string    `json:"delivery_type_name,omitempty"`
	RequiresAddress  bool      `json:"requires_address"`
	Address          *string   `json:"address,omitempty"`
	Time             string    `json:"time,omitempty"`
	Consent          bool      `json:"consent"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NextStep reports which answer the wizard still needs.
func (d *Draft) NextStep() string {
	switch {
	case d.DeliveryTypeID == nil:
		return StepDeliveryType
	case d.RequiresAddress && d.Address == nil:
		return StepAddress
	case d.Time == "":
		return StepTime
	case !d.Consent:
		return StepConsent
	default:
		return StepReady
	}
}

// DraftPatch carries one or more wizard answers. Nil fields are left untouched.
type DraftPatch struct {
	DeliveryTypeID *int64
	Address        *string
	Time           *string
	Consent        *bool
}

// IsEmpty reports whether the patch carries no answer.
func (p DraftPatch) IsEmpty() bool {
	return p.DeliveryTypeID == nil && p.Address == nil && p.Time == nil && p.Consent == nil
}

// DraftStore keeps wizard state between chat messages.
type DraftStore interface {
	// Get returns nil without error when no draft exists.
	Get(ctx context.Context, chatID int64) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	Clear(ctx context.Context, chatID int64) error
}

type draftKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutDraftKey(chatID int64) string
}

type redisDraftStore struct {
	kv  draftKV
	ttl time.Duration
}

// NewDraftStore stores drafts as JSON under a per-chat key. Every save
// refreshes the expiry.
func NewDraftStore(kv draftKV, ttl time.Duration) (DraftStore, error) {
	if kv == nil {
		return nil, errors.New("draft key-value store required")
	}
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &redisDraftStore{kv: kv, ttl: ttl}, nil
}

func (s *redisDraftStore) Get(ctx context.Context, chatID int64) (*Draft, error) {
	raw, err := s.kv.Get(ctx, s.kv.CheckoutDraftKey(chatID))
	if err != nil {
		if redis.IsMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read checkout draft: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("decode checkout draft: %w", err)
	}
	return &draft, nil
}

func (s *redisDraftStore) Save(ctx context.Context, draft *Draft) error {
	if draft == nil {
		return errors.New("draft required")
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode checkout draft: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CheckoutDraftKey(draft.ChatID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("write checkout draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.kv.Del(ctx, s.kv.CheckoutDraftKey(chatID)); err != nil {
		return fmt.Errorf("clear checkout draft: %w", err)
	}
	return nil
}
