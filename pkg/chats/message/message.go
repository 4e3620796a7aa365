// Package message defines the text messages sent in a chat completion request.
package message

import "github.com/germanamz/keyprobe/pkg/chats/role"

// Message is a single text message in a conversation.
type Message struct {
	Role role.Role
	Text string
}

// New creates a message with the given role and text.
func New(r role.Role, text string) Message {
	return Message{Role: r, Text: text}
}

// User is shorthand for New(role.User, text).
func User(text string) Message {
	return New(role.User, text)
}
