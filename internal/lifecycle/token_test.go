package lifecycle

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var tokenPattern = regexp.MustCompile(`^GLS-\d+-[A-Z0-9]{6}$`)

func TestNewQRToken_Format(t *testing.T) {
	at := time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)
	token, err := NewQRToken(at)
	if err != nil {
		t.Fatalf("NewQRToken: %v", err)
	}
	if !tokenPattern.MatchString(token) {
		t.Fatalf("token %q does not match GLS-<millis>-<RAND6>", token)
	}

	parts := strings.Split(token, "-")
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		t.Fatalf("timestamp segment %q: %v", parts[1], err)
	}
	if millis != at.UnixMilli() {
		t.Errorf("timestamp: got %d, want %d", millis, at.UnixMilli())
	}
}

func TestNewQRToken_Unique(t *testing.T) {
	at := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		token, err := NewQRToken(at)
		if err != nil {
			t.Fatalf("NewQRToken: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q after %d mints", token, i)
		}
		seen[token] = true
	}
}
