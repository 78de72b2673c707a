package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
)

// RedactIP truncates an address before it reaches a log line: last octet
// zeroed for IPv4, everything past the /32 zeroed for IPv6. Unparseable
// input falls back to a short hash.
func RedactIP(ip string) string {
	host, _, err := net.SplitHostPort(ip)
	if err == nil {
		ip = host
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		hash := sha256.Sum256([]byte(ip))
		return "hash:" + hex.EncodeToString(hash[:8])
	}
	if ipv4 := parsed.To4(); ipv4 != nil {
		ipv4[3] = 0
		return ipv4.String()
	}
	if ipv6 := parsed.To16(); ipv6 != nil {
		for i := 4; i < 16; i++ {
			ipv6[i] = 0
		}
		return ipv6.String()
	}
	hash := sha256.Sum256([]byte(ip))
	return "hash:" + hex.EncodeToString(hash[:8])
}

// RedactID keeps enough of a note id to correlate log lines without making
// the full token harvestable from logs.
func RedactID(id string) string {
	if len(id) <= 8 {
		return "[ID-REDACTED]"
	}
	return id[:4] + "..." + id[len(id)-4:]
}
