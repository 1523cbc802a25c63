package relay

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// PairingTTL is how long a pairing offer stays claimable.
const PairingTTL = 5 * time.Minute

// PairRequest is the body of POST /pair, sent by the device creating a
// pairing offer (typically the desktop host).
type PairRequest struct {
	DeviceID     string `json:"device_id"`
	PubKey       string `json:"pubkey"` // base64 Ed25519 public key
	OneTimeToken string `json:"one_time_token"`
}

// PairResponse acknowledges a pairing request, carrying the ephemeral
// box public key the claimant must seal its ClaimEnvelope to.
type PairResponse struct {
	OK             bool   `json:"ok"`
	RelayBoxPublic string `json:"relay_box_pub,omitempty"`
}

// ClaimEnvelope is the plaintext a claiming device seals with
// SealAnonymous against the offer's box public key before sending it in
// ClaimRequest.SealedEnvelope, so the token and blob are unreadable to
// anyone who only sees the QR code or intercepts the request.
type ClaimEnvelope struct {
	DeviceID            string `json:"device_id"`
	PubKey              string `json:"pubkey"`
	PubKeyEncryptedBlob string `json:"pubkey_encrypted_blob"`
}

// ClaimRequest is the body of POST /pair/claim.
type ClaimRequest struct {
	OneTimeToken   string `json:"one_time_token"`
	SealedEnvelope string `json:"sealed_envelope"` // base64 box.SealAnonymous output
}

// PairingHandlers binds pairing HTTP handlers to shared relay state.
type PairingHandlers struct {
	State *State
}

// CreatePair handles POST /pair: registers the offering device (if new)
// and stores a pairing offer under its one-time token.
func (h *PairingHandlers) CreatePair(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	pubKeyRaw, err := base64.StdEncoding.DecodeString(req.PubKey)
	if err != nil || len(pubKeyRaw) != ed25519.PublicKeySize {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if _, ok := h.State.Device(req.DeviceID); !ok {
		h.State.UpsertDevice(&RegisteredDevice{
			DeviceID:      req.DeviceID,
			VerifyKeyRaw:  pubKeyRaw,
			PairedDevices: make(map[string]struct{}),
		})
	}

	offer, err := h.State.CreatePairingOffer(req.OneTimeToken, req.DeviceID, pubKeyRaw)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, PairResponse{
		OK:             true,
		RelayBoxPublic: base64.StdEncoding.EncodeToString(offer.BoxPublic[:]),
	})
}

// ClaimPair handles POST /pair/claim: consumes the one-time token,
// opens the sealed envelope, registers the claiming device, links both
// devices as paired, and pushes a pair_complete frame to the offering
// device if it is currently connected.
func (h *PairingHandlers) ClaimPair(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	offer, ok := h.State.TakePairingOffer(req.OneTimeToken)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if offer.Expired(PairingTTL) {
		http.Error(w, "offer expired", http.StatusGone)
		return
	}

	sealed, err := base64.StdEncoding.DecodeString(req.SealedEnvelope)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	plain, ok := OpenAnonymous(offer.BoxPublic, offer.BoxPrivate, sealed)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	var envelope ClaimEnvelope
	if err := json.Unmarshal(plain, &envelope); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	pubKeyRaw, err := base64.StdEncoding.DecodeString(envelope.PubKey)
	if err != nil || len(pubKeyRaw) != ed25519.PublicKeySize {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.State.UpsertDevice(&RegisteredDevice{
		DeviceID:     envelope.DeviceID,
		VerifyKeyRaw: pubKeyRaw,
		PairedDevices: map[string]struct{}{
			offer.DeviceID: {},
		},
	})
	h.State.PairDevices(offer.DeviceID, envelope.DeviceID)

	if conn, ok := h.State.Connection(offer.DeviceID); ok {
		push, _ := json.Marshal(map[string]string{
			"type":                  "pair_complete",
			"device_id":             envelope.DeviceID,
			"pubkey_encrypted_blob": envelope.PubKeyEncryptedBlob,
		})
		select {
		case conn.Send <- push:
		default:
		}
	}

	writeJSON(w, http.StatusOK, PairResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
