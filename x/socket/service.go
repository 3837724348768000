package socket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Service tracks the connected websocket clients
type Service struct {
	clients      map[*websocket.Conn]bool
	clientsMutex *sync.Mutex
}

// NewService creates a new socket service
func NewService() *Service {
	return &Service{
		make(map[*websocket.Conn]bool),
		&sync.Mutex{},
	}
}

// AddClient adds a connection to the registry
func (s *Service) AddClient(ws *websocket.Conn) {
	s.clientsMutex.Lock()
	s.clients[ws] = true
	s.clientsMutex.Unlock()
}

// RemoveClient removes a connection from the registry. Closing the
// connection is the caller's job.
func (s *Service) RemoveClient(ws *websocket.Conn) {
	s.clientsMutex.Lock()
	delete(s.clients, ws)
	s.clientsMutex.Unlock()
}

// CurrentConnectionCount returns the number of connected clients
func (s *Service) CurrentConnectionCount() int {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	return len(s.clients)
}
