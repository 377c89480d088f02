package main

import _ "embed"

// statusPage polls /status every 5 seconds and has a button that sends a
// test message through /send-message.
//
//go:embed web/status.html
var statusPage string
