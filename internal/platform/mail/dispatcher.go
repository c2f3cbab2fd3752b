// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mail

import (
	"context"
	"log/slog"
	"time"
)

// Recorder counts delivery outcomes.
type Recorder interface {
	MailDelivery(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) MailDelivery(string) {}

// Dispatcher drains a [Queue] into a [Sender] until its context ends.
type Dispatcher struct {
	queue       Queue
	sender      Sender
	logger      *slog.Logger
	recorder    Recorder
	sendTimeout time.Duration
	backoff     time.Duration
}

// NewDispatcher constructs a [Dispatcher]. A nil recorder is allowed.
func NewDispatcher(queue Queue, sender Sender, logger *slog.Logger, recorder Recorder, sendTimeout time.Duration) *Dispatcher {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		logger:      logger,
		recorder:    recorder,
		sendTimeout: sendTimeout,
		backoff:     time.Second,
	}
}

/*
Run processes messages until context is cancelled.

Description: each message gets one delivery attempt bounded by the send
timeout. Failures are logged and dropped. Queue errors (e.g. Redis down) are
logged and retried after a short pause.
*/
func (dispatcher *Dispatcher) Run(context context.Context) {
	dispatcher.logger.Info("mail_dispatcher_started")
	defer dispatcher.logger.Info("mail_dispatcher_stopped")

	for context.Err() == nil {
		message, err := dispatcher.queue.Dequeue(context)
		if err != nil {
			if context.Err() != nil {
				return
			}
			dispatcher.logger.Error("mail_outbox_unavailable", slog.Any("error", err))
			dispatcher.pause(context)
			continue
		}

		if message == nil {
			continue
		}

		dispatcher.deliver(context, *message)
	}
}

// deliver makes a single bounded attempt.
func (dispatcher *Dispatcher) deliver(parent context.Context, message Message) {
	sendCtx, cancel := context.WithTimeout(parent, dispatcher.sendTimeout)
	defer cancel()

	if err := dispatcher.sender.Send(sendCtx, message); err != nil {
		dispatcher.recorder.MailDelivery("failure")
		dispatcher.logger.Error("mail_delivery_failed",
			slog.String("subject", message.Subject),
			slog.Any("error", err),
		)
		return
	}

	dispatcher.recorder.MailDelivery("success")
	dispatcher.logger.Info("mail_delivered", slog.String("subject", message.Subject))
}

func (dispatcher *Dispatcher) pause(context context.Context) {
	timer := time.NewTimer(dispatcher.backoff)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-context.Done():
	}
}
