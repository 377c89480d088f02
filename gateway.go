package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// ErrNotConnected is returned when a message is sent while the session is not connected.
var ErrNotConnected = errors.New("WhatsApp não está conectado")

// SendMessageRequest represents the request body for the send message API
type SendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendMessageResponse represents the response for the send message API
type SendMessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Status    Status `json:"status"`
	Connected bool   `json:"connected"`
}

// ReconnectResponse is returned by POST /reconnect.
type ReconnectResponse struct {
	Success bool   `json:"success"`
	Status  Status `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Gateway serves the REST API on top of a single session.
type Gateway struct {
	client  SessionClient
	tracker *Tracker
	log     waLog.Logger
	e       *echo.Echo
}

// NewGateway wires the routes. The tracker must already be subscribed to client.
func NewGateway(client SessionClient, tracker *Tracker, logger waLog.Logger) *Gateway {
	g := &Gateway{
		client:  client,
		tracker: tracker,
		log:     logger,
		e:       echo.New(),
	}

	e := g.e
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.INFO)
	e.Pre(corsHeaders)
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURI:        true,
		LogStatus:     true,
		LogLatency:    true,
		LogRemoteIP:   true,
		LogError:      true,
		LogValuesFunc: g.logRequest,
	}))
	e.Use(middleware.Recover())

	e.GET("/", g.handleStatusPage)
	e.GET("/status", g.handleStatus)
	e.POST("/send-message", g.handleSendMessage)
	e.POST("/reconnect", g.handleReconnect)
	return g
}

// Start listens on addr until Shutdown is called.
func (g *Gateway) Start(addr string) error {
	g.log.Infof("🚀 Server listening on %s", addr)
	if err := g.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.e.Shutdown(ctx)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.e.ServeHTTP(w, r)
}

// logRequest writes one access line per request through the gateway logger.
func (g *Gateway) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	if v.Error != nil {
		g.log.Warnf("%s %s -> %d (%s) from %s: %v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
		return nil
	}
	g.log.Infof("%s %s -> %d (%s) from %s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
	return nil
}

// corsHeaders allows every origin on every response.
func corsHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(echo.HeaderAccessControlAllowOrigin, "*")
		h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE")
		h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

func (g *Gateway) handleStatus(c echo.Context) error {
	status := g.tracker.Current()
	return c.JSON(http.StatusOK, StatusResponse{
		Status:    status,
		Connected: status == StatusConnected,
	})
}

func (g *Gateway) handleSendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, SendMessageResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request body: %v", err),
		})
	}

	if status := g.tracker.Current(); status != StatusConnected {
		err := fmt.Errorf("%w. Status: %s", ErrNotConnected, status)
		return c.JSON(http.StatusInternalServerError, SendMessageResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	to, err := PhoneAddress(req.Phone)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, SendMessageResponse{
			Success: false,
			Error:   err.Error(),
		})
	}
	g.log.Infof("📤 Sending message to %s", to)

	id, err := g.client.SendMessage(c.Request().Context(), to, req.Message)
	if err != nil {
		g.log.Errorf("❌ Failed to send message to %s: %v", to, err)
		return c.JSON(http.StatusInternalServerError, SendMessageResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	g.log.Infof("✅ Message %s sent to %s", id, to)
	return c.JSON(http.StatusOK, SendMessageResponse{
		Success:   true,
		Message:   "Mensagem enviada",
		MessageID: id,
	})
}

// handleReconnect restarts the session. The status in the response is read
// right after Initialize returns and usually still predates the new
// qr/ready event.
func (g *Gateway) handleReconnect(c echo.Context) error {
	ctx := c.Request().Context()
	if err := g.client.Destroy(ctx); err != nil {
		return g.reconnectFailed(c, err)
	}
	if err := g.client.Initialize(ctx); err != nil {
		return g.reconnectFailed(c, err)
	}
	return c.JSON(http.StatusOK, ReconnectResponse{
		Success: true,
		Status:  g.tracker.Current(),
	})
}

func (g *Gateway) reconnectFailed(c echo.Context, err error) error {
	g.log.Errorf("❌ Reconnect failed: %v", err)
	return c.JSON(http.StatusInternalServerError, ReconnectResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func (g *Gateway) handleStatusPage(c echo.Context) error {
	return c.HTML(http.StatusOK, statusPage)
}
