package relay

import "golang.org/x/crypto/nacl/box"

// SealAnonymous encrypts message to peerPublic using an ephemeral
// sender keypair nacl/box generates and discards, so only the holder of
// the matching private key can recover it and the sender never needs a
// long-lived box identity. Used to seal a ClaimEnvelope to the pairing
// offer's ephemeral public key.
func SealAnonymous(peerPublic *[32]byte, message []byte) ([]byte, error) {
	return box.SealAnonymous(nil, message, peerPublic, nil)
}

// OpenAnonymous reverses SealAnonymous given the recipient's keypair.
// The bool is false if sealed was truncated or addressed to a different
// keypair.
func OpenAnonymous(public, private *[32]byte, sealed []byte) ([]byte, bool) {
	return box.OpenAnonymous(nil, sealed, public, private)
}
