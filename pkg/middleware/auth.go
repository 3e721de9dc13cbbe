// Package middleware holds fiber middleware shared by the HTTP routes.
package middleware

import (
	"errors"
	"fmt"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claim names carried by access tokens.
const (
	ClaimUserID        = "user_id"
	ClaimRole          = "role"
	ClaimInstitutionID = "institution_id"
)

// Roles accepted in the role claim.
const (
	RoleAdmin       = "admin"
	RoleBankManager = "bank_manager"
	RoleCustomer    = "customer"
)

const localsPrincipal = "principal"

// JwtProtected verifies the bearer token and stores the caller's Principal
// in the request locals.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	var secret []byte
	if cfg != nil {
		secret = []byte(cfg.Secret)
	}
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: secret},
		ErrorHandler:   jwtError,
		SuccessHandler: storePrincipal,
	})
}

func storePrincipal(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return problem(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return problem(c, fiber.StatusUnauthorized, "Unauthorized", "unexpected claims")
	}
	p, err := PrincipalFromClaims(claims)
	if err != nil {
		return problem(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
	}
	c.Locals(localsPrincipal, p)
	return c.Next()
}

// PrincipalFromClaims maps token claims onto an identity variant.
func PrincipalFromClaims(claims jwt.MapClaims) (identity.Principal, error) {
	userID, err := uuidClaim(claims, ClaimUserID)
	if err != nil {
		return nil, err
	}
	role, _ := claims[ClaimRole].(string)
	switch role {
	case RoleAdmin:
		return identity.Admin{ID: userID}, nil
	case RoleBankManager:
		inst, err := uuidClaim(claims, ClaimInstitutionID)
		if err != nil {
			return nil, err
		}
		return identity.BankManager{ID: userID, InstitutionID: inst}, nil
	case RoleCustomer, "":
		return identity.Customer{ID: userID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, role)
	}
}

func uuidClaim(claims jwt.MapClaims, name string) (uuid.UUID, error) {
	raw, ok := claims[name].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing %s claim", domain.ErrUnauthorized, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s claim", domain.ErrUnauthorized, name)
	}
	return id, nil
}

// CurrentPrincipal returns the caller stored by JwtProtected.
func CurrentPrincipal(c *fiber.Ctx) (identity.Principal, error) {
	p, ok := c.Locals(localsPrincipal).(identity.Principal)
	if !ok || p == nil {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return problem(c, fiber.StatusBadRequest, "Missing or malformed JWT", err.Error())
	}
	return problem(c, fiber.StatusUnauthorized, "Invalid or expired JWT", err.Error())
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": c.OriginalURL(),
	})
}
