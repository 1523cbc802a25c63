// Package relay is the pairing + WebSocket relay server that lets a
// paired companion device (phone) exchange end-to-end encrypted
// messages with the machine running the indexer, without the relay
// ever holding a key that can read message content.
//
// Grounded in original_source/crates/relay/src/{state,ws,auth,pairing}.rs
// and in the teacher's ws/handler.go connection-map idiom: a
// mutex-guarded map of live connections, one outbound buffered channel
// per connection instead of writing directly under lock.
package relay

import (
	"sync"
	"time"

	"golang.org/x/crypto/nacl/box"
)

// Connection is one authenticated device's live WebSocket session.
type Connection struct {
	DeviceID    string
	Send        chan []byte
	ConnectedAt time.Time
}

// PairingOffer is created by the host device (e.g. a Mac) via CreatePair
// and consumed exactly once by ClaimPair within its TTL.
type PairingOffer struct {
	DeviceID     string
	VerifyKeyRaw []byte // the offering device's Ed25519 public key
	BoxPublic    *[32]byte
	BoxPrivate   *[32]byte
	CreatedAt    time.Time
}

// Expired reports whether the offer has outlived its pairing window.
func (o *PairingOffer) Expired(ttl time.Duration) bool {
	return time.Since(o.CreatedAt) > ttl
}

// RegisteredDevice is a device that has completed pairing, identified
// by its Ed25519 public key and the set of devices it may relay
// messages to or from.
type RegisteredDevice struct {
	DeviceID      string
	VerifyKeyRaw  []byte
	PairedDevices map[string]struct{}
}

// State is the relay's shared, concurrency-safe tables. All access goes
// through its methods; callers never touch the maps directly, mirroring
// the teacher's Handler.mu discipline over its connections map.
type State struct {
	mu            sync.RWMutex
	connections   map[string]*Connection
	pairingOffers map[string]*PairingOffer
	devices       map[string]*RegisteredDevice
}

// NewState returns an empty relay state.
func NewState() *State {
	return &State{
		connections:   make(map[string]*Connection),
		pairingOffers: make(map[string]*PairingOffer),
		devices:       make(map[string]*RegisteredDevice),
	}
}

func (s *State) AddConnection(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[c.DeviceID] = c
}

func (s *State) RemoveConnection(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, deviceID)
}

func (s *State) Connection(deviceID string) (*Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[deviceID]
	return c, ok
}

func (s *State) Device(deviceID string) (*RegisteredDevice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[deviceID]
	return d, ok
}

func (s *State) UpsertDevice(d *RegisteredDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.DeviceID] = d
}

// PairDevices marks a and b as mutually paired. Only existing device
// records are updated; an id with no record is skipped.
func (s *State) PairDevices(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if da, ok := s.devices[a]; ok {
		da.PairedDevices[b] = struct{}{}
	}
	if db, ok := s.devices[b]; ok {
		db.PairedDevices[a] = struct{}{}
	}
}

// IsPaired reports whether from is allowed to relay messages to to.
func (s *State) IsPaired(from, to string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[from]
	if !ok {
		return false
	}
	_, paired := d.PairedDevices[to]
	return paired
}

// CreatePairingOffer stores an offer under token, generating a fresh
// ephemeral box keypair the claimant will seal its envelope to.
func (s *State) CreatePairingOffer(token, deviceID string, verifyKeyRaw []byte) (*PairingOffer, error) {
	pub, priv, err := box.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	offer := &PairingOffer{
		DeviceID:     deviceID,
		VerifyKeyRaw: verifyKeyRaw,
		BoxPublic:    pub,
		BoxPrivate:   priv,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.pairingOffers[token] = offer
	s.mu.Unlock()
	return offer, nil
}

// TakePairingOffer removes and returns the offer for token, if any. A
// token is consumed exactly once, matching DashMap::remove in the
// original.
func (s *State) TakePairingOffer(token string) (*PairingOffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.pairingOffers[token]
	if ok {
		delete(s.pairingOffers, token)
	}
	return offer, ok
}

// SweepExpiredOffers drops any pairing offer older than ttl. Intended to
// run on a periodic ticker.
func (s *State) SweepExpiredOffers(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, offer := range s.pairingOffers {
		if offer.Expired(ttl) {
			delete(s.pairingOffers, token)
			removed++
		}
	}
	return removed
}
