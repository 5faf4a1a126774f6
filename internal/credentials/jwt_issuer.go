package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

const customerTypeClaim = "customerType"

// JWTIssuer reissues the customer's session token whenever a state
// change moves their tier. The token embeds the tier as the
// customerType claim so the HTTP edge can authorize without a lookup.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *JWTIssuer) Reissue(ctx context.Context, user *domain.User, tier domain.Tier) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":             user.Email,
		"user_id":         user.ID,
		customerTypeClaim: tier.String(),
		"iat":             now.Unix(),
		"exp":             now.Add(i.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token for user %d: %w", user.ID, err)
	}
	return signed, nil
}

// Verify parses a token issued by Reissue and returns the user id and
// tier claim. Used by the HTTP auth middleware.
func (i *JWTIssuer) Verify(tokenString string) (int64, domain.Tier, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("missing user_id claim")
	}
	tier, _ := claims[customerTypeClaim].(string)

	return int64(userID), domain.Tier(tier), nil
}
