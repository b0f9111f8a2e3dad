package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	httpserver "github.com/chancov/WebAppMiningGameTG/internal/http"
	"github.com/chancov/WebAppMiningGameTG/internal/http/handlers"
	"github.com/chancov/WebAppMiningGameTG/internal/migrations"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"
	"github.com/chancov/WebAppMiningGameTG/internal/service"
	"github.com/chancov/WebAppMiningGameTG/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStore uses Postgres when DATABASE_URL is set and the in-memory store
// otherwise, so the same flows run against both ledgers.
func newStore(t *testing.T) repository.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return repository.NewMemoryStore()
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, migrations.Apply(context.Background(), pool, nil))
	return repository.NewPgStore(pool)
}

type server struct {
	srv *httptest.Server
}

func startServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("e2e-secret")
	t.Cleanup(func() { service.InitJWT("") })

	store := newStore(t)
	hub := ws.NewHub()
	deps := service.Deps{Events: hub}

	accounts := service.NewAccountService(store, deps)
	shop := service.NewShopService(store, deps)
	_, err := shop.Bootstrap(context.Background())
	require.NoError(t, err)

	h := &handlers.Handler{
		Accounts:      accounts,
		Mining:        service.NewMiningService(store, deps),
		Upgrades:      service.NewUpgradeService(store, deps),
		Transfers:     service.NewTransferService(store, deps, false),
		Shop:          shop,
		Leaderboard:   service.NewLeaderboardService(store, service.NewLeaderboardCache(nil, 0)),
		Audit:         service.NewAuditService(store),
		Authenticator: service.NewAuthService(accounts, "e2e-bot"),
	}
	r := httpserver.NewRouter(h, handlers.NewHealthHandler(store, nil, "e2e"), hub, httpserver.RouteOptions{
		AuthRequired:  true,
		APIRateLimit:  10000,
		AuthRateLimit: 10000,
		RateWindow:    time.Minute,
	})

	s := &server{srv: httptest.NewServer(r)}
	t.Cleanup(s.srv.Close)
	return s
}

func (s *server) do(method, path, token string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return http.DefaultClient.Do(req)
}

func (s *server) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	res, err := s.do(method, path, token, body)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func (s *server) post(t *testing.T, path, token string, body any) (int, map[string]any) {
	t.Helper()
	return s.call(t, http.MethodPost, path, token, body)
}

func (s *server) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	require.Equal(t, ws.MsgReady, msg.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg ws.Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func identity() string {
	return "e2e-" + uuid.NewString()[:12]
}

func tokenFor(t *testing.T, id string) string {
	t.Helper()
	token, err := service.GenerateJWT(id)
	require.NoError(t, err)
	return token
}

func TestE2E_ReferralAndTransferEventsReachSockets(t *testing.T) {
	s := startServer(t)

	idA, idB := identity(), identity()
	tokA, tokB := tokenFor(t, idA), tokenFor(t, idB)

	code, regA := s.post(t, "/api/v1/register", tokA, map[string]any{"first_name": "A"})
	require.Equal(t, http.StatusOK, code, regA)

	connA := s.dial(t, tokA)

	code, regB := s.post(t, "/api/v1/register", tokB, map[string]any{"ref_code": regA["ref_code"]})
	require.Equal(t, http.StatusOK, code, regB)
	assert.Equal(t, true, regB["was_bonus"])

	msg := readMessage(t, connA)
	require.Equal(t, ws.MsgEvent, msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "referral.bonus", msg.Event.Type)
	assert.Equal(t, "50", msg.Event.Balance.String())

	connB := s.dial(t, tokB)

	code, sent := s.post(t, "/api/v1/send", tokA, map[string]any{"to": idB, "amount": 12.5})
	require.Equal(t, http.StatusOK, code, sent)
	assert.Equal(t, 37.5, sent["new_balance"])

	out := readMessage(t, connA)
	assert.Equal(t, "transfer.sent", out.Event.Type)
	in := readMessage(t, connB)
	assert.Equal(t, "transfer.received", in.Event.Type)
	assert.Equal(t, "12.5", in.Event.Amount.String())
	assert.Equal(t, "37.5", in.Event.Balance.String())
	assert.Equal(t, idA, in.Event.Data["from"])
}

func TestE2E_MiningStartPushesEvent(t *testing.T) {
	s := startServer(t)

	id := identity()
	tok := tokenFor(t, id)
	code, _ := s.post(t, "/api/v1/register", tok, map[string]any{})
	require.Equal(t, http.StatusOK, code)

	conn := s.dial(t, tok)

	code, out := s.post(t, "/api/v1/mine", tok, map[string]any{})
	require.Equal(t, http.StatusOK, code, out)

	msg := readMessage(t, conn)
	assert.Equal(t, "mining.started", msg.Event.Type)
	assert.Equal(t, id, msg.Event.Identity)
}

func TestE2E_ConcurrentOppositeTransfersKeepTotal(t *testing.T) {
	s := startServer(t)

	idA, idB := identity(), identity()
	tokA, tokB := tokenFor(t, idA), tokenFor(t, idB)
	for _, tok := range []string{tokA, tokB} {
		code, _ := s.post(t, "/api/v1/register", tok, map[string]any{})
		require.Equal(t, http.StatusOK, code)
	}

	send := func(token, to string) {
		res, err := s.do(http.MethodPost, "/api/v1/send", token, map[string]any{"to": to, "amount": 1})
		if err == nil {
			res.Body.Close()
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			send(tokA, idB)
		}()
		go func() {
			defer wg.Done()
			send(tokB, idA)
		}()
	}
	wg.Wait()

	total := 0.0
	for _, tok := range []string{tokA, tokB} {
		code, prof := s.call(t, http.MethodGet, "/api/v1/profile", tok, nil)
		require.Equal(t, http.StatusOK, code)
		total += prof["balance"].(float64)
	}
	assert.Equal(t, 50.0, total)
}
