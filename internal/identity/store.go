package identity

import "time"

// Identity is what the server remembers about a client identifier.
type Identity struct {
	ClientID string
	Nickname string
	LastSeen time.Time
}

// Store maps opaque client identifiers to remembered nicknames.
// It is not safe for concurrent use; the hub owns it.
type Store struct {
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*Identity
}

// NewStore creates an empty store whose entries expire after ttl of inactivity.
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]*Identity),
	}
}

// Resolve returns the remembered nickname for clientID.
func (s *Store) Resolve(clientID string) (string, bool) {
	if clientID == "" {
		return "", false
	}
	id, ok := s.entries[clientID]
	if !ok {
		return "", false
	}
	return id.Nickname, true
}

// Remember stores nickname for clientID and refreshes LastSeen.
func (s *Store) Remember(clientID, nickname string) {
	if clientID == "" {
		return
	}
	s.entries[clientID] = &Identity{
		ClientID: clientID,
		Nickname: nickname,
		LastSeen: s.now(),
	}
}

// Touch refreshes LastSeen for a known clientID. Unknown ids are ignored.
func (s *Store) Touch(clientID string) {
	if id, ok := s.entries[clientID]; ok {
		id.LastSeen = s.now()
	}
}

// Sweep drops identities idle for longer than the TTL and returns how many were removed.
// Nickname reservations are not touched here: they belong to live users only.
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0
	for clientID, id := range s.entries {
		if now.Sub(id.LastSeen) > s.ttl {
			delete(s.entries, clientID)
			removed++
		}
	}
	return removed
}

// Len reports the number of remembered identities.
func (s *Store) Len() int {
	return len(s.entries)
}
