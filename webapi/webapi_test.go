package webapi

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/app"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type RateLimitTestSuite struct {
	suite.Suite
	app *fiber.App
}

func (s *RateLimitTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.App{
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "secret"}},
		Ledger:    &config.Ledger{LockTimeout: time.Second},
		RateLimit: &config.RateLimit{MaxRequests: 5, Window: time.Second},
	}
	deps := &config.Deps{Uow: memory.NewUoW(memory.NewStore()), Logger: logger, Config: cfg}
	s.app = SetupApp(app.New(deps, cfg))
}

func (s *RateLimitTestSuite) get(path string) *http.Response {
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	s.Require().NoError(err)
	return resp
}

func (s *RateLimitTestSuite) TestRateLimit() {
	for i := range 6 {
		resp := s.get("/")
		if i < 5 {
			s.Equal(fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		} else {
			s.Equal(fiber.StatusTooManyRequests, resp.StatusCode, "request %d", i+1)
		}
	}

	time.Sleep(1100 * time.Millisecond)
	s.Equal(fiber.StatusOK, s.get("/").StatusCode)
}

func (s *RateLimitTestSuite) TestUnknownRouteIsProblemJSON() {
	resp := s.get("/nope")
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	s.Equal("application/problem+json", resp.Header.Get(fiber.HeaderContentType))
}

func (s *RateLimitTestSuite) TestAccountRoutesRequireToken() {
	resp := s.get("/accounts/ACC-1/balance")
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func TestRateLimitTestSuite(t *testing.T) {
	suite.Run(t, new(RateLimitTestSuite))
}
