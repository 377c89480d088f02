package main

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// recordingLogger is a waLog.Logger that keeps formatted lines as "LEVEL msg".
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(level, msg string, args ...interface{}) {
	l.mu.Lock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(msg, args...))
	l.mu.Unlock()
}

func (l *recordingLogger) Warnf(msg string, args ...interface{})  { l.add("WARN", msg, args...) }
func (l *recordingLogger) Errorf(msg string, args ...interface{}) { l.add("ERROR", msg, args...) }
func (l *recordingLogger) Infof(msg string, args ...interface{})  { l.add("INFO", msg, args...) }
func (l *recordingLogger) Debugf(msg string, args ...interface{}) { l.add("DEBUG", msg, args...) }
func (l *recordingLogger) Sub(module string) waLog.Logger         { return l }

func (l *recordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Matching returns the recorded lines containing substr.
func (l *recordingLogger) Matching(substr string) []string {
	var out []string
	for _, line := range l.Lines() {
		if strings.Contains(line, substr) {
			out = append(out, line)
		}
	}
	return out
}

func incomingMessage(sender string, fromMe bool, msg *waProto.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:     types.NewJID(sender, types.DefaultUserServer),
				Sender:   types.NewJID(sender, types.DefaultUserServer),
				IsFromMe: fromMe,
			},
			ID: "3EB0C431C26A1916E0B7",
		},
		Message: msg,
	}
}

func TestHandleIncomingMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  *events.Message
		want []string
	}{
		{
			name: "text from contact",
			msg:  incomingMessage("5562985114018", false, &waProto.Message{Conversation: proto.String("oi")}),
			want: []string{"INFO 📥 5562985114018: oi"},
		},
		{
			name: "extended text from contact",
			msg: incomingMessage("5562985114018", false, &waProto.Message{
				ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: proto.String("veja isso")},
			}),
			want: []string{"INFO 📥 5562985114018: veja isso"},
		},
		{
			name: "own message",
			msg:  incomingMessage("5562985114018", true, &waProto.Message{Conversation: proto.String("oi")}),
			want: nil,
		},
		{
			name: "blank text",
			msg:  incomingMessage("5562985114018", false, &waProto.Message{Conversation: proto.String("  ")}),
			want: []string{"DEBUG Skipping message without text content from 5562985114018@s.whatsapp.net"},
		},
		{
			name: "media without caption",
			msg:  incomingMessage("5562985114018", false, &waProto.Message{ImageMessage: &waProto.ImageMessage{}}),
			want: []string{"DEBUG Skipping message without text content from 5562985114018@s.whatsapp.net"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			HandleIncomingMessage(tt.msg, logger)
			assert.Equal(t, tt.want, logger.Lines())
		})
	}
}

func TestExtractTextContent(t *testing.T) {
	tests := []struct {
		name string
		msg  *waProto.Message
		want string
	}{
		{"nil", nil, ""},
		{"conversation", &waProto.Message{Conversation: proto.String("oi")}, "oi"},
		{
			"extended text",
			&waProto.Message{ExtendedTextMessage: &waProto.ExtendedTextMessage{Text: proto.String("veja https://example.com")}},
			"veja https://example.com",
		},
		{"image without caption", &waProto.Message{ImageMessage: &waProto.ImageMessage{}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTextContent(tt.msg))
		})
	}
}

func TestExtractPhoneFromJID(t *testing.T) {
	assert.Equal(t, "5562985114018", extractPhoneFromJID("5562985114018@s.whatsapp.net"))
	assert.Equal(t, "5562985114018", extractPhoneFromJID("5562985114018:12@s.whatsapp.net"))
	assert.Equal(t, "5562985114018", extractPhoneFromJID("5562985114018@c.us"))
	assert.Equal(t, "", extractPhoneFromJID("@s.whatsapp.net"))
}
