package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"musicsocial/internal/auth"
	"musicsocial/internal/logger"
	"musicsocial/internal/model"
	"musicsocial/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roleAuthorizer map[string][]string

func (a roleAuthorizer) Authorize(_ context.Context, roles, required []string) ([]string, error) {
	granted := map[string]bool{}
	for _, r := range roles {
		for _, p := range a[r] {
			granted[p] = true
		}
	}
	for _, p := range required {
		if !granted[p] {
			return nil, apperror.Forbidden([]string{p})
		}
	}
	return nil, nil
}

func startServer(t *testing.T) (*Hub, *auth.TokenManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.Nop())
	go hub.Run(ctx)

	tokens := auth.NewTokenManager("secret", time.Hour)
	r := gin.New()
	r.GET("/ws", Handler(hub, tokens, roleAuthorizer{"admin": {SubscribePermission}}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, tokens, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	_, _, url := startServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_RejectsCallerWithoutPermission(t *testing.T) {
	_, tokens, url := startServer(t)
	token, _, err := tokens.Issue(7, []string{"common_user"})
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_DeliversArtistEvents(t *testing.T) {
	hub, tokens, url := startServer(t)
	token, _, err := tokens.Issue(1, []string{"admin"})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.PublishArtistEvent(model.ArtistEvent{Event: model.ArtistEventAccepted, ArtistID: 3, Status: model.ArtistActive})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got model.ArtistEvent
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, model.ArtistEvent{Event: model.ArtistEventAccepted, ArtistID: 3, Status: model.ArtistActive}, got)
}

func TestHub_PublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.Nop())
	for i := 0; i < sendBuffer+10; i++ {
		hub.PublishArtistEvent(model.ArtistEvent{Event: model.ArtistEventCreated, ArtistID: uint(i)})
	}
}
