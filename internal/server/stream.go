package server

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petaldocs/docsign/internal/events"
)

const streamHeartbeatInterval = 25 * time.Second

type streamEventPayload struct {
	Topic     string `json:"topic"`
	TokenID   uint32 `json:"token_id"`
	Recipient string `json:"recipient,omitempty"`
	Signer    string `json:"signer,omitempty"`
	Status    string `json:"status,omitempty"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
}

// handleEventStream serves mint and signed events over server-sent events.
func (h *httpHandler) handleEventStream(c *gin.Context) {
	ctx := c.Request.Context()
	mintStream, cancelMint := h.dispatcher.Subscribe(ctx, events.TopicMint)
	defer cancelMint()
	signedStream, cancelSigned := h.dispatcher.Subscribe(ctx, events.TopicSigned)
	defer cancelSigned()

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	// Both subscriptions are live at this point; flushing the headers tells
	// the client the stream is established.
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"timestamp": time.Now().UTC().Unix()})
			return true
		case message, ok := <-mintStream:
			if !ok {
				return false
			}
			c.SSEvent(message.Topic, toStreamPayload(message))
			return true
		case message, ok := <-signedStream:
			if !ok {
				return false
			}
			c.SSEvent(message.Topic, toStreamPayload(message))
			return true
		}
	})
}

func toStreamPayload(message events.Message) streamEventPayload {
	return streamEventPayload{
		Topic:     message.Topic,
		TokenID:   message.TokenID,
		Recipient: message.Recipient,
		Signer:    message.Signer,
		Status:    message.Status,
		Source:    message.Source,
		Timestamp: message.Timestamp.UTC().Unix(),
	}
}
