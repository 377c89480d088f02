package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

var (
	ErrSessionNotStarted = errors.New("WhatsApp session not initialized")
	ErrSessionRunning    = errors.New("WhatsApp session already initialized")
)

// waSession is one Initialize..Destroy lifetime of a whatsmeow client.
// Cancelling ctx retires the session: its QR channel and events stop
// reaching subscribers.
type waSession struct {
	client *whatsmeow.Client
	ctx    context.Context
	cancel context.CancelFunc
	// done is closed once the QR forwarder has returned.
	done chan struct{}
}

func newWASession(parent context.Context, client *whatsmeow.Client) *waSession {
	ctx, cancel := context.WithCancel(parent)
	return &waSession{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// WhatsAppClient is the SessionClient backed by whatsmeow, with the device
// session persisted in SQLite. Every Initialize builds a new whatsmeow client
// from the device store and Destroy throws it away.
type WhatsAppClient struct {
	// ctx is the process lifetime; each session derives its own from it.
	ctx       context.Context
	container *sqlstore.Container
	log       waLog.Logger

	sessionMu sync.Mutex
	session   *waSession

	mu       sync.RWMutex
	handlers []func(SessionEvent)
}

// NewWhatsAppClient opens the device store at dsn. No connection is made
// until Initialize.
func NewWhatsAppClient(ctx context.Context, dsn string, logger waLog.Logger) (*WhatsAppClient, error) {
	container, err := sqlstore.New(ctx, "sqlite3", dsn, logger.Sub("Database"))
	if err != nil {
		return nil, fmt.Errorf("failed to open device store: %w", err)
	}

	return &WhatsAppClient{
		ctx:       ctx,
		container: container,
		log:       logger,
	}, nil
}

func (wc *WhatsAppClient) Subscribe(handler func(SessionEvent)) {
	wc.mu.Lock()
	wc.handlers = append(wc.handlers, handler)
	wc.mu.Unlock()
}

func (wc *WhatsAppClient) emit(evt SessionEvent) {
	wc.mu.RLock()
	handlers := wc.handlers
	wc.mu.RUnlock()
	for _, h := range handlers {
		h(evt)
	}
}

// Initialize starts a new session for the first stored device, or a fresh
// device when nothing is paired (also the case after a logout). Without a
// stored session a QR channel is opened first so pairing codes reach
// subscribers as EventQR.
func (wc *WhatsAppClient) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wc.sessionMu.Lock()
	defer wc.sessionMu.Unlock()
	if wc.session != nil {
		return ErrSessionRunning
	}

	deviceStore, err := wc.container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	s := newWASession(wc.ctx, whatsmeow.NewClient(deviceStore, wc.log.Sub("Client")))
	s.client.AddEventHandler(func(evt interface{}) {
		wc.handleEvent(s, evt)
	})

	if s.client.Store.ID == nil {
		qrChan, err := s.client.GetQRChannel(s.ctx)
		if err != nil {
			s.cancel()
			return fmt.Errorf("failed to open QR channel: %w", err)
		}
		go wc.forwardQR(s, qrChan)
		wc.log.Infof("🔐 No session found, starting authentication...")
	} else {
		close(s.done)
		wc.log.Infof("📱 Existing session found, connecting...")
	}

	// Kept even if Connect fails so that Destroy can clean it up.
	wc.session = s
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Destroy retires the current session: its QR channel is closed, the
// connection is dropped, and nothing it produces afterwards is forwarded.
// The stored device is kept, so a following Initialize reconnects without
// pairing again.
func (wc *WhatsAppClient) Destroy(ctx context.Context) error {
	wc.sessionMu.Lock()
	s := wc.session
	wc.session = nil
	wc.sessionMu.Unlock()

	if s != nil {
		s.cancel()
		if s.client != nil {
			s.client.Disconnect()
		}
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// whatsmeow does not dispatch events.Disconnected for a requested disconnect.
	wc.emit(SessionEvent{Kind: EventDisconnected, Reason: "session destroyed"})
	return ctx.Err()
}

func (wc *WhatsAppClient) SendMessage(ctx context.Context, to types.JID, text string) (string, error) {
	wc.sessionMu.Lock()
	s := wc.session
	wc.sessionMu.Unlock()
	if s == nil {
		return "", ErrSessionNotStarted
	}

	msg := &waProto.Message{
		Conversation: proto.String(text),
	}
	resp, err := s.client.SendMessage(ctx, to, msg)
	if err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	return string(resp.ID), nil
}

func (wc *WhatsAppClient) forwardQR(s *waSession, qrChan <-chan whatsmeow.QRChannelItem) {
	defer close(s.done)
	for {
		var item whatsmeow.QRChannelItem
		var ok bool
		select {
		case <-s.ctx.Done():
			return
		case item, ok = <-qrChan:
			if !ok {
				return
			}
		}
		if s.ctx.Err() != nil {
			return
		}

		switch item.Event {
		case "code":
			wc.emit(SessionEvent{Kind: EventQR, Code: item.Code})
		case "success":
			wc.log.Infof("✅ QR authentication successful")
		case "timeout":
			wc.emit(SessionEvent{Kind: EventDisconnected, Reason: "QR code timeout"})
		case "error":
			wc.emit(SessionEvent{Kind: EventDisconnected, Reason: fmt.Sprintf("pairing failed: %v", item.Error)})
		default:
			wc.emit(SessionEvent{Kind: EventDisconnected, Reason: "pairing failed: " + item.Event})
		}
	}
}

func (wc *WhatsAppClient) handleEvent(s *waSession, evt interface{}) {
	if s.ctx.Err() != nil {
		return
	}

	switch v := evt.(type) {
	case *events.Connected:
		wc.emit(SessionEvent{Kind: EventReady})
	case *events.Disconnected:
		wc.emit(SessionEvent{Kind: EventDisconnected, Reason: "connection lost"})
	case *events.LoggedOut:
		wc.emit(SessionEvent{Kind: EventDisconnected, Reason: fmt.Sprintf("logged out (%v)", v.Reason)})
	case *events.StreamReplaced:
		wc.emit(SessionEvent{Kind: EventDisconnected, Reason: "session opened elsewhere"})
	case *events.Message:
		HandleIncomingMessage(v, wc.log)
	}
}
