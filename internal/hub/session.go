package hub

import "sync"

// Session holds the identity bound to a connection at handshake time and the
// set of project rooms the connection has joined. Authentication happens once
// per connection; the identity never changes afterwards.
type Session struct {
	mu            sync.RWMutex
	userID        string
	userName      string
	authenticated bool
	rooms         map[string]struct{}
}

func NewSession() *Session {
	return &Session{
		rooms: make(map[string]struct{}),
	}
}

func (s *Session) Authenticate(userID, userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.userName = userName
	s.authenticated = true
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

func (s *Session) JoinRoom(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[projectID] = struct{}{}
}

func (s *Session) LeaveRoom(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, projectID)
}

func (s *Session) InRoom(projectID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[projectID]
	return ok
}

func (s *Session) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]string, 0, len(s.rooms))
	for projectID := range s.rooms {
		rooms = append(rooms, projectID)
	}
	return rooms
}
