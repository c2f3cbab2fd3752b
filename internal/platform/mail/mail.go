// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package mail delivers outbound email on a best-effort, fire-and-forget basis.

Architecture:

  - Message: a rendered email (recipient, subject, HTML and plain bodies).
  - Templates: embedded html/template + text/template pairs.
  - RedisOutbox: a Redis list that request handlers push to.
  - Dispatcher: a background loop draining the outbox into a [Sender].
  - SMTPSender: the production [Sender].

Delivery failures are logged and counted, never returned to the code that
enqueued the message.
*/
package mail

import "context"

// Message is a fully rendered email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Sender performs the actual delivery of a message.
type Sender interface {
	Send(context context.Context, message Message) error
}

// Queue decouples producers from delivery.
type Queue interface {
	Enqueue(context context.Context, message Message) error

	// Dequeue blocks until a message is available or the wait elapses.
	// It returns (nil, nil) when nothing arrived in time.
	Dequeue(context context.Context) (*Message, error)
}
