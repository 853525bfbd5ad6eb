package mockhsm

import (
	"log/slog"
	"sync"

	"github.com/riftlabs/yubihsm-go/authkey"
	"github.com/riftlabs/yubihsm-go/commands"
)

// defaultAuthKeyID is the factory-default authentication key slot every
// real device ships with (developers.yubico.com/YubiHSM2/Concepts/
// Authentication_Key.html), reproduced here so Credentials built from
// authkey.NewFromPassword("password") authenticate against a fresh
// simulator exactly as they would against real hardware.
const defaultAuthKeyID uint16 = 1

const defaultAuthPassword = "password"

// State is the simulator's entire mutable world: the object store, the
// open-session table, and the global audit configuration (spec.md §4.7).
// It is a single exclusive object mutated only by the dispatch loop
// (HandleFrame), never accessed concurrently — matching the real device's
// single in-flight-command-per-connection model.
type State struct {
	mu sync.Mutex

	objects *objects
	sessions map[uint8]*deviceSession

	forceAudit          commands.AuditOption
	commandAuditOptions map[commands.Code]commands.AuditOption

	enableRSA bool

	logger *slog.Logger
}

// NewState returns a freshly reset simulator: an empty object store save
// for the default admin authentication key at id 1, no open sessions,
// and every audit option off. logger defaults to slog.Default() if nil.
func NewState(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	s := &State{logger: logger}
	s.reset()
	return s
}

// EnableRSA lets PutAsymmetricKey accept RSA key material. It turns on
// nothing else: GenerateAsymmetricKey rejects RSA algorithms either way,
// and the simulator has no SignPkcs1/SignPss/DecryptPkcs1/DecryptOaep
// handlers. Off by default: spec.md §9 treats RSA as an
// optional module the core secure channel does not depend on, and this
// is this repository's runtime rendition of that compile-time feature
// flag (DESIGN.md).
func (s *State) EnableRSA(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enableRSA = on
}

// reset wipes every object except the hard-coded default admin key,
// clears every open session, and zeroes audit settings (spec.md §4.7's
// Reset). Caller must hold s.mu, except when called from NewState before
// any session exists.
func (s *State) reset() {
	s.objects = newObjects()
	s.sessions = make(map[uint8]*deviceSession)
	s.forceAudit = commands.AuditOptionOff
	s.commandAuditOptions = make(map[commands.Code]commands.AuditOption)

	defaultKey := authkey.NewFromPassword(defaultAuthPassword)
	s.objects.put(
		defaultAuthKeyID,
		commands.ObjectTypeAuthenticationKey,
		commands.AlgorithmYubicoAESAuthentication,
		"DEFAULT AUTHKEY CHANGE THIS ASAP",
		commands.CapabilityAll,
		commands.CapabilityAll,
		commands.DomainAll,
		commands.OriginImported,
		defaultKey,
	)
}

// Reset is the exported, lock-taking form of reset, for callers outside
// the dispatch loop. The ResetDevice command path does not use it: it
// calls reset directly under the lock it already holds, after the reply
// has been sealed under the still-live session keys (spec.md §4.7: the
// response goes out before the device actually reboots).
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// authKey looks up the enc||mac key material for an authentication-key
// object, for use in CreateSession/AuthenticateSession.
func (s *State) authKey(id uint16) (authkey.AuthKey, *object, bool) {
	obj, ok := s.objects.get(id, commands.ObjectTypeAuthenticationKey)
	if !ok {
		return nil, nil, false
	}
	return authkey.AuthKey(obj.payload), obj, true
}

// freeSessionID returns the lowest unused session id in 0..=15, the
// range a real device assigns from (spec.md §3's Session.id).
func (s *State) freeSessionID() (uint8, bool) {
	for id := uint8(0); id < 16; id++ {
		if _, ok := s.sessions[id]; !ok {
			return id, true
		}
	}
	return 0, false
}
