package socket

// ChannelRequest is what a connected client sends to (re)select the
// namespace channels it wants events for.
type ChannelRequest struct {
	Channels []string `json:"channels"`
}
