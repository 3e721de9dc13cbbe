package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/identity"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Use(JwtProtected(&config.Jwt{Secret: testSecret}))
	app.Get("/", func(c *fiber.Ctx) error {
		p, err := CurrentPrincipal(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(p.Subject().String())
	})
	return app
}

func TestJwtProtected_MissingToken(t *testing.T) {
	resp, err := protectedApp().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
}

func TestJwtProtected_InvalidSignature(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimUserID: uuid.NewString(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJwtProtected_StoresPrincipal(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{ClaimUserID: id.String(), ClaimRole: RoleCustomer}))
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJwtProtected_RejectsUnknownRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{ClaimUserID: uuid.NewString(), ClaimRole: "auditor"}))
	resp, err := protectedApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPrincipalFromClaims(t *testing.T) {
	user := uuid.New()
	bank := uuid.New()

	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    identity.Principal
		wantErr bool
	}{
		{"customer", jwt.MapClaims{ClaimUserID: user.String(), ClaimRole: RoleCustomer}, identity.Customer{ID: user}, false},
		{"role defaults to customer", jwt.MapClaims{ClaimUserID: user.String()}, identity.Customer{ID: user}, false},
		{"admin", jwt.MapClaims{ClaimUserID: user.String(), ClaimRole: RoleAdmin}, identity.Admin{ID: user}, false},
		{"bank manager", jwt.MapClaims{ClaimUserID: user.String(), ClaimRole: RoleBankManager, ClaimInstitutionID: bank.String()},
			identity.BankManager{ID: user, InstitutionID: bank}, false},
		{"bank manager without institution", jwt.MapClaims{ClaimUserID: user.String(), ClaimRole: RoleBankManager}, nil, true},
		{"missing user", jwt.MapClaims{ClaimRole: RoleAdmin}, nil, true},
		{"bad user id", jwt.MapClaims{ClaimUserID: "nope"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrincipalFromClaims(tt.claims)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJwtError(t *testing.T) {
	app := fiber.New()
	app.Get("/malformed", func(c *fiber.Ctx) error { return jwtError(c, jwtware.ErrJWTMissingOrMalformed) })
	app.Get("/other", func(c *fiber.Ctx) error { return jwtError(c, errors.New("token is expired")) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/malformed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/other", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
