package relay

import "net/http"

// NewServeMux wires the relay's three HTTP surfaces against state,
// mirroring original_source/crates/relay/src/lib.rs's Router: a health
// check, the WebSocket upgrade endpoint, and the two pairing endpoints.
func NewServeMux(state *State) *http.ServeMux {
	hub := &Hub{State: state}
	pairing := &PairingHandlers{State: state}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /ws", hub.HandleWS)
	mux.HandleFunc("POST /pair", pairing.CreatePair)
	mux.HandleFunc("POST /pair/claim", pairing.ClaimPair)
	return mux
}
