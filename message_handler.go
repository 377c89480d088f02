package main

import (
	"strings"

	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// HandleIncomingMessage logs text messages that arrive on the session.
// The gateway never replies; this only gives operators visibility.
func HandleIncomingMessage(msg *events.Message, logger waLog.Logger) {
	// Skip our own messages, including the ones sent through /send-message
	if msg.Info.IsFromMe {
		return
	}

	content := extractTextContent(msg.Message)
	if strings.TrimSpace(content) == "" {
		logger.Debugf("Skipping message without text content from %s", msg.Info.Sender)
		return
	}

	phoneNumber := extractPhoneFromJID(msg.Info.Sender.String())
	if phoneNumber == "" {
		logger.Warnf("Could not extract phone number from JID: %s", msg.Info.Sender)
		return
	}

	logger.Infof("📥 %s: %s", phoneNumber, content)
}

// Extract text content from WhatsApp message
func extractTextContent(message *waProto.Message) string {
	if message == nil {
		return ""
	}

	if message.Conversation != nil {
		return *message.Conversation
	}

	if message.ExtendedTextMessage != nil && message.ExtendedTextMessage.Text != nil {
		return *message.ExtendedTextMessage.Text
	}

	return ""
}

// extractPhoneFromJID returns the user part of a JID such as
// "5562985114018@s.whatsapp.net" or "5562985114018:12@s.whatsapp.net".
func extractPhoneFromJID(jid string) string {
	user, _, _ := strings.Cut(jid, "@")
	user, _, _ = strings.Cut(user, ":")
	return user
}
