package socket

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestService(t *testing.T) {

	test_service := NewService()

	first := &websocket.Conn{}
	second := &websocket.Conn{}

	test_service.AddClient(first)
	test_service.AddClient(second)
	assert.Equal(t, 2, test_service.CurrentConnectionCount())

	// re-adding the same connection does not double-count
	test_service.AddClient(first)
	assert.Equal(t, 2, test_service.CurrentConnectionCount())

	test_service.RemoveClient(first)
	assert.Equal(t, 1, test_service.CurrentConnectionCount())

	// removing twice is a no-op
	test_service.RemoveClient(first)
	assert.Equal(t, 1, test_service.CurrentConnectionCount())

	test_service.RemoveClient(second)
	assert.Equal(t, 0, test_service.CurrentConnectionCount())
}
