package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/driveon/rental-billing/internal/model"
)

// Parser validates access tokens issued by the identity module and
// extracts the billing principal from them.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type claims struct {
	BranchID string `json:"branch_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return model.Principal{}, fmt.Errorf("invalid token claims")
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}

	principal := model.Principal{
		UserID: userID,
		Role:   c.Role,
	}
	if c.BranchID != "" {
		branchID, err := uuid.Parse(c.BranchID)
		if err != nil {
			return model.Principal{}, fmt.Errorf("invalid branch_id: %w", err)
		}
		principal.BranchID = branchID
	}
	return principal, nil
}
