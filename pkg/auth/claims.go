package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// ChatTokenPayload captures the data available when minting a service token.
type ChatTokenPayload struct {
	ChatID    int64
	Transport string
	JTI       string
}

// ChatTokenClaims is the JWT the chat transport presents for one end user.
type ChatTokenClaims struct {
	ChatID    int64  `json:"chat_id"`
	Transport string `json:"transport,omitempty"`
	jwt.RegisteredClaims
}
