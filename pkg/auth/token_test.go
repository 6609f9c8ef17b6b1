package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/orderbot-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "orderbot", ExpirationMinutes: 30}
}

func TestMintAndParseChatToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()

	token, err := MintChatToken(cfg, now, ChatTokenPayload{ChatID: 123456789, Transport: "telegram"})
	if err != nil {
		t.Fatalf("mint chat token: %v", err)
	}

	claims, err := ParseChatToken(cfg, token)
	if err != nil {
		t.Fatalf("parse chat token: %v", err)
	}
	if claims.ChatID != 123456789 {
		t.Fatalf("expected chat_id 123456789, got %d", claims.ChatID)
	}
	if claims.Transport != "telegram" {
		t.Fatalf("unexpected transport %q", claims.Transport)
	}
	if claims.Subject != "123456789" {
		t.Fatalf("expected subject to mirror chat id, got %q", claims.Subject)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.UTC())
	}
}

func TestParseChatTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintChatToken(cfg, time.Now(), ChatTokenPayload{ChatID: 1})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Secret = "different"
	if _, err := ParseChatToken(other, token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseChatTokenWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintChatToken(cfg, time.Now(), ChatTokenPayload{ChatID: 1})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseChatToken(other, token); err == nil {
		t.Fatal("expected issuer error")
	}
}

func TestParseChatTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintChatToken(cfg, time.Now().Add(-2*time.Hour), ChatTokenPayload{ChatID: 1})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, err = ParseChatToken(cfg, token)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestMintChatTokenRequiresChatID(t *testing.T) {
	if _, err := MintChatToken(testJWTConfig(), time.Now(), ChatTokenPayload{}); err == nil {
		t.Fatal("expected error for missing chat id")
	}
}
