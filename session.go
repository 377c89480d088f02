package main

import (
	"sync"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Status is the connection phase of the WhatsApp session.
// The string values are what /status reports and what the status page matches on.
type Status string

const (
	StatusDisconnected Status = "Desconectado"
	StatusAwaitingQR   Status = "Aguardando QR Code..."
	StatusConnected    Status = "Conectado"
)

// EventKind identifies a session lifecycle event.
type EventKind string

const (
	EventQR           EventKind = "qr"
	EventReady        EventKind = "ready"
	EventDisconnected EventKind = "disconnected"
)

// SessionEvent is a lifecycle notification emitted by a SessionClient.
type SessionEvent struct {
	Kind   EventKind
	Code   string // pairing code, set for EventQR
	Reason string // set for EventDisconnected
}

// Tracker mirrors the session lifecycle into a single status value.
// Only session events write to it; HTTP handlers only read.
type Tracker struct {
	mu     sync.RWMutex
	status Status
	log    waLog.Logger
}

func NewTracker(logger waLog.Logger) *Tracker {
	return &Tracker{
		status: StatusDisconnected,
		log:    logger,
	}
}

// Current returns the status as of now.
func (t *Tracker) Current() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Tracker) set(status Status) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

func (t *Tracker) OnQR(code string) {
	t.set(StatusAwaitingQR)
	t.log.Infof("📱 QR code received, waiting for scan")
}

func (t *Tracker) OnReady() {
	t.set(StatusConnected)
	t.log.Infof("✅ WhatsApp connected")
}

func (t *Tracker) OnDisconnected(reason string) {
	t.set(StatusDisconnected)
	t.log.Warnf("❌ WhatsApp disconnected: %s", reason)
}

// Handle applies a session event. Transitions are not validated: events are
// taken in whatever order the client delivers them.
func (t *Tracker) Handle(evt SessionEvent) {
	switch evt.Kind {
	case EventQR:
		t.OnQR(evt.Code)
	case EventReady:
		t.OnReady()
	case EventDisconnected:
		t.OnDisconnected(evt.Reason)
	default:
		t.log.Debugf("Ignoring unknown session event %q", evt.Kind)
	}
}
