package relay

import "testing"

func TestNewPairingTokenIsUniqueAndNonEmpty(t *testing.T) {
	a := NewPairingToken()
	b := NewPairingToken()
	if a == "" || b == "" {
		t.Fatal("expected non-empty tokens")
	}
	if a == b {
		t.Fatal("expected distinct tokens across calls")
	}
}
