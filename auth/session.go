package auth

import "sync"

// Session holds the currently signed-in user and tells subscribers when it
// changes. Subscribers only ever see the latest identity; intermediate
// changes they were too slow to receive are dropped.
type Session struct {
	mu     sync.Mutex
	userID string
	nextID int
	subs   map[int]chan string
}

func NewSession() *Session {
	return &Session{subs: make(map[int]chan string)}
}

func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) SignIn(userID string) {
	s.set(userID)
}

func (s *Session) SignOut() {
	s.set("")
}

func (s *Session) Subscribe() (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan string, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Session) set(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == userID {
		return
	}
	s.userID = userID

	for _, ch := range s.subs {
		// Replace any identity the subscriber has not picked up yet.
		select {
		case <-ch:
		default:
		}
		ch <- userID
	}
}
