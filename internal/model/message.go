package model

import "time"

type MessageStatus string

const (
	MessageStatusAccepted  MessageStatus = "ACCEPTED"
	MessageStatusProcessed MessageStatus = "PROCESSED"
	MessageStatusRejected  MessageStatus = "REJECTED"
	MessageStatusFailed    MessageStatus = "FAILED"
)

type ChannelStatus string

const ChannelStatusSent ChannelStatus = "SENT"

type Channel string

const (
	ChannelEmail   Channel = "EMAIL"
	ChannelWebhook Channel = "WEBHOOK"
)

// BlockedInboxOrChannel is one entry of a per-sender block list. INBOX blocks
// the message entirely; EMAIL and WEBHOOK block a single delivery channel.
type BlockedInboxOrChannel string

const (
	BlockedInbox   BlockedInboxOrChannel = "INBOX"
	BlockedEmail   BlockedInboxOrChannel = "EMAIL"
	BlockedWebhook BlockedInboxOrChannel = "WEBHOOK"
)

type MessageStatusRecord struct {
	MessageID string
	Status    MessageStatus
	UpdatedAt time.Time
}

type ChannelStatusRecord struct {
	MessageID      string
	NotificationID string
	Channel        Channel
	Status         ChannelStatus
	UpdatedAt      time.Time
}
