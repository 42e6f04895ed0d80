package http

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/walletauth/adapters/signature"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/internal/metrics"
	"github.com/layer-3/walletauth/service"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	svc    *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tk, err := tokenizer.NewJWTTokenizer(testSecret, "walletauth")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	svc := service.NewAuthService(
		st,
		signature.NewStellarVerifier(),
		service.NewChallengeManager(st),
		service.NewTokenIssuer(tk, st, 15*time.Minute, time.Hour),
		service.WithLogger(logger),
	)

	return &testServer{
		router: SetupRouter(svc, logger, metrics.NewCollector("walletauth")),
		store:  st,
		svc:    svc,
	}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type wallet struct {
	address string
	kp      *keypair.Full
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	kp, err := keypair.Random()
	require.NoError(t, err)
	return wallet{address: kp.Address(), kp: kp}
}

func (w wallet) sign(message string) string {
	sig, err := w.kp.Sign([]byte(message))
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(sig)
}

func (s *testServer) login(t *testing.T, w wallet) (string, string) {
	t.Helper()
	res := s.do(t, http.MethodPost, "/auth/challenge", "", gin.H{"walletAddress": w.address})
	require.Equal(t, http.StatusOK, res.Code)
	challenge := decode(t, res)

	res = s.do(t, http.MethodPost, "/auth/verify", "", gin.H{
		"walletAddress": w.address,
		"signature":     w.sign(challenge["message"].(string)),
		"publicKey":     w.address,
	})
	require.Equal(t, http.StatusOK, res.Code)
	tokens := decode(t, res)
	return tokens["accessToken"].(string), tokens["refreshToken"].(string)
}

func TestFullFlow(t *testing.T) {
	s := newTestServer(t)
	w := newWallet(t)

	access, refresh := s.login(t, w)

	res := s.do(t, http.MethodGet, "/auth/me", access, nil)
	require.Equal(t, http.StatusOK, res.Code)
	me := decode(t, res)
	assert.Equal(t, w.address, me["walletAddress"])
	assert.Equal(t, true, me["isActive"])
	assert.NotEmpty(t, me["id"])
	assert.NotEmpty(t, me["createdAt"])

	res = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, res.Code)
	rotated := decode(t, res)

	res = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "unauthorized", decode(t, res)["error"])

	newAccess := rotated["accessToken"].(string)
	newRefresh := rotated["refreshToken"].(string)

	res = s.do(t, http.MethodPost, "/auth/logout", newAccess, gin.H{"refreshToken": newRefresh})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Logged out", decode(t, res)["message"])

	res = s.do(t, http.MethodPost, "/auth/logout", newAccess, gin.H{"refreshToken": newRefresh})
	assert.Equal(t, http.StatusOK, res.Code, "logout is idempotent")

	res = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": newRefresh})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestChallengeValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing address", gin.H{}},
		{"malformed json", "{"},
		{"invalid address", gin.H{"walletAddress": "not-a-wallet"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := s.do(t, http.MethodPost, "/auth/challenge", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestVerifyFailures(t *testing.T) {
	s := newTestServer(t)
	w, other := newWallet(t), newWallet(t)

	res := s.do(t, http.MethodPost, "/auth/verify", "", gin.H{"walletAddress": w.address})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodPost, "/auth/challenge", "", gin.H{"walletAddress": w.address})
	require.Equal(t, http.StatusOK, res.Code)
	message := decode(t, res)["message"].(string)

	res = s.do(t, http.MethodPost, "/auth/verify", "", gin.H{
		"walletAddress": w.address,
		"signature":     other.sign(message),
		"publicKey":     w.address,
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, gin.H{"error": "unauthorized"}, gin.H(decode(t, res)))

	res = s.do(t, http.MethodPost, "/auth/verify", "", gin.H{
		"walletAddress": other.address,
		"signature":     other.sign(message),
		"publicKey":     other.address,
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "unknown wallet looks the same")
}

func TestRefreshValidation(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": "unknown"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestGuard(t *testing.T) {
	s := newTestServer(t)
	access, refresh := s.login(t, newWallet(t))

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":            "user-1",
		"wallet_address": "G",
		"type":           "refresh",
		"iss":            "walletauth",
		"exp":            time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + access},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer garbage"},
		{"wrong token type", "Bearer " + wrongType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decode(t, w)["error"])
		})
	}

	res := s.do(t, http.MethodPost, "/auth/logout", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "logout requires an access token")
}

func TestMeForDeactivatedUser(t *testing.T) {
	s := newTestServer(t)
	w := newWallet(t)
	access, _ := s.login(t, w)

	user, err := s.store.GetByAddress(context.Background(), w.address)
	require.NoError(t, err)
	require.NoError(t, s.svc.DeactivateUser(context.Background(), user.ID))

	res := s.do(t, http.MethodGet, "/auth/me", access, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, false, decode(t, res)["isActive"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", decode(t, res)["status"])

	res = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "walletauth_http_requests_total")
}
