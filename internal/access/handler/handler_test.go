package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"linkgate/internal/access"
	"linkgate/internal/allowlist"
	"linkgate/internal/audit"
	"linkgate/internal/platform/middleware"
)

type LoginHandlerSuite struct {
	suite.Suite
	router *chi.Mux
	store  *audit.InMemoryStore
}

func (s *LoginHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	allowlistPath := filepath.Join(s.T().TempDir(), "allowlist.txt")
	s.Require().NoError(os.WriteFile(allowlistPath, []byte("# family\nAlice\nkatja\n"), 0o600))

	s.store = audit.NewInMemoryStore()
	publisher := audit.NewPublisher(s.store)
	s.T().Cleanup(publisher.Close)

	service := access.New(
		allowlist.New(allowlistPath),
		publisher,
		"https://drive.filen.io/f/abc#key",
		logger,
	)

	s.router = chi.NewRouter()
	s.router.Use(middleware.Metadata)
	New(service, logger).Register(s.router)
}

func (s *LoginHandlerSuite) postLogin(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *LoginHandlerSuite) TestAllowedUsernameGetsLink() {
	rec := s.postLogin("/api/login", `{"username":"Alice "}`)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"filenLink":"https://drive.filen.io/f/abc#key"}`, rec.Body.String())

	events, err := s.store.Recent(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("Alice", events[0].Username)
	s.Equal(audit.ResultSuccess, events[0].Result)
	s.Equal("203.0.113.7", events[0].SourceIP)
	s.Equal("Mozilla/5.0", events[0].UserAgent)
}

func (s *LoginHandlerSuite) TestUnknownUsernameRejected() {
	rec := s.postLogin("/api/login", `{"username":"mallory"}`)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.NotContains(rec.Body.String(), "filen", "denied responses must not leak the link")

	events, err := s.store.Recent(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("mallory", events[0].Username)
	s.Equal(audit.ResultUnauthorized, events[0].Result)
}

func (s *LoginHandlerSuite) TestCaseInsensitiveMatch() {
	rec := s.postLogin("/api/login", `{"username":"KATJA"}`)

	s.Equal(http.StatusOK, rec.Code)
}

func (s *LoginHandlerSuite) TestBlankUsernameRejected() {
	rec := s.postLogin("/api/login", `{"username":"   "}`)

	s.Equal(http.StatusUnauthorized, rec.Code)

	events, err := s.store.Recent(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ResultUnauthorized, events[0].Result)
}

func (s *LoginHandlerSuite) TestMalformedBodyIsBadRequest() {
	rec := s.postLogin("/api/login", `{"username"`)

	s.Equal(http.StatusBadRequest, rec.Code)

	events, err := s.store.Recent(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Empty(events, "undecodable requests are not attempts and leave no trail")
}

func (s *LoginHandlerSuite) TestLegacyLoginAlias() {
	rec := s.postLogin("/login", `{"username":"katja"}`)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"filenLink":"https://drive.filen.io/f/abc#key"}`, rec.Body.String())
}

func TestLoginHandlerSuite(t *testing.T) {
	suite.Run(t, new(LoginHandlerSuite))
}

func TestLoginResponseShape(t *testing.T) {
	// The field name is part of the client contract.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"katja"}`))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	allowlistPath := filepath.Join(t.TempDir(), "allowlist.txt")
	require.NoError(t, os.WriteFile(allowlistPath, []byte("katja\n"), 0o600))

	publisher := audit.NewPublisher(audit.NewInMemoryStore())
	t.Cleanup(publisher.Close)
	service := access.New(allowlist.New(allowlistPath), publisher, "https://example.invalid/link", logger)

	router := chi.NewRouter()
	New(service, logger).Register(router)
	router.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"filenLink"`)
}
