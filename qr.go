package main

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal"
)

// printQR returns a session event handler that draws pairing codes on w so
// they can be scanned straight from the terminal.
func printQR(w io.Writer) func(SessionEvent) {
	return func(evt SessionEvent) {
		if evt.Kind != EventQR || evt.Code == "" {
			return
		}
		fmt.Fprintln(w, "📱 Scan this QR code with WhatsApp on your phone:")
		qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, w)
	}
}
