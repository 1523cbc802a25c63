package relay

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateAndClaimPairLinksBothDevices(t *testing.T) {
	state := NewState()
	handlers := &PairingHandlers{State: state}

	macPub, _, _ := ed25519.GenerateKey(nil)
	createBody, _ := json.Marshal(PairRequest{
		DeviceID:     "mac-1",
		PubKey:       base64.StdEncoding.EncodeToString(macPub),
		OneTimeToken: "tok-123",
	})
	createReq := httptest.NewRequest(http.MethodPost, "/pair", bytes.NewReader(createBody))
	createRec := httptest.NewRecorder()
	handlers.CreatePair(createRec, createReq)

	if createRec.Code != http.StatusOK {
		t.Fatalf("CreatePair status = %d, body = %s", createRec.Code, createRec.Body.String())
	}
	var pairResp PairResponse
	if err := json.Unmarshal(createRec.Body.Bytes(), &pairResp); err != nil {
		t.Fatalf("decode pair response: %v", err)
	}
	relayBoxPub, err := base64.StdEncoding.DecodeString(pairResp.RelayBoxPublic)
	if err != nil || len(relayBoxPub) != 32 {
		t.Fatalf("bad relay box public key: %v", pairResp.RelayBoxPublic)
	}
	var boxPubArr [32]byte
	copy(boxPubArr[:], relayBoxPub)

	phonePub, _, _ := ed25519.GenerateKey(nil)
	envelope, _ := json.Marshal(ClaimEnvelope{
		DeviceID:            "phone-1",
		PubKey:              base64.StdEncoding.EncodeToString(phonePub),
		PubKeyEncryptedBlob: "opaque-blob",
	})
	sealed, err := SealAnonymous(&boxPubArr, envelope)
	if err != nil {
		t.Fatalf("SealAnonymous: %v", err)
	}

	claimBody, _ := json.Marshal(ClaimRequest{
		OneTimeToken:   "tok-123",
		SealedEnvelope: base64.StdEncoding.EncodeToString(sealed),
	})
	claimReq := httptest.NewRequest(http.MethodPost, "/pair/claim", bytes.NewReader(claimBody))
	claimRec := httptest.NewRecorder()
	handlers.ClaimPair(claimRec, claimReq)

	if claimRec.Code != http.StatusOK {
		t.Fatalf("ClaimPair status = %d, body = %s", claimRec.Code, claimRec.Body.String())
	}

	if !state.IsPaired("mac-1", "phone-1") || !state.IsPaired("phone-1", "mac-1") {
		t.Fatal("expected mac-1 and phone-1 to be mutually paired")
	}
	if _, ok := state.TakePairingOffer("tok-123"); ok {
		t.Fatal("expected the one-time token to be consumed")
	}
}

func TestClaimPairRejectsUnknownToken(t *testing.T) {
	state := NewState()
	handlers := &PairingHandlers{State: state}

	claimBody, _ := json.Marshal(ClaimRequest{OneTimeToken: "nope", SealedEnvelope: "x"})
	req := httptest.NewRequest(http.MethodPost, "/pair/claim", bytes.NewReader(claimBody))
	rec := httptest.NewRecorder()
	handlers.ClaimPair(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}
