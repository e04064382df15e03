package config

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

// DefaultSTUNServer is used whenever no valid STUN URL is configured, so the
// ICE list handed to peers is never empty.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

// BuildICEServers constructs the process-wide ICE server list.
//
// stunURLs and turnURLs are comma-separated. Each valid URL becomes its own
// entry; TURN entries are added only when URL, username, and credential are
// all non-empty. Entries that fail the syntactic check are silently dropped,
// and if no STUN entry survives the default is substituted. The result is
// order-stable: identical input yields an identical list.
func BuildICEServers(stunURLs, turnURLs, turnUsername, turnCredential string) []webrtc.ICEServer {
	var servers []webrtc.ICEServer

	for _, url := range splitCommaSeparated(stunURLs) {
		if !isValidStunURL(url) {
			continue
		}
		servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
	}
	if len(servers) == 0 {
		servers = append(servers, webrtc.ICEServer{URLs: []string{DefaultSTUNServer}})
	}

	turnUsername = strings.TrimSpace(turnUsername)
	turnCredential = strings.TrimSpace(turnCredential)
	if turnUsername == "" || turnCredential == "" {
		return servers
	}
	for _, url := range splitCommaSeparated(turnURLs) {
		if !isValidTurnURL(url) {
			continue
		}
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{url},
			Username:   turnUsername,
			Credential: turnCredential,
		})
	}
	return servers
}

// The syntactic check is a scheme prefix plus a host:port separator after the
// scheme. URLs are otherwise opaque to the relay.

func isValidStunURL(url string) bool {
	return strings.HasPrefix(url, "stun:") && strings.Contains(url[len("stun:"):], ":")
}

func isValidTurnURL(url string) bool {
	return strings.HasPrefix(url, "turn:") && strings.Contains(url[len("turn:"):], ":")
}

func splitCommaSeparated(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
