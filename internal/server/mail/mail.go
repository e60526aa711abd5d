// Package mail delivers account emails on a best-effort basis. Sends never
// block the request that triggered them and failures are only logged.
package mail

import (
	"context"
	"sync"
	"time"

	"github.com/privnotes/notes/internal/logging"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Sender hands a message to a delivery backend.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender only logs who a message would have gone to. Bodies carry
// one-time links and are never logged.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "mail", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Notifier runs sends in the background with their own deadline.
type Notifier struct {
	sender  Sender
	from    string
	timeout time.Duration
	log     logging.Logger
	wg      sync.WaitGroup
}

func NewNotifier(sender Sender, from string, timeout time.Duration, log logging.Logger) *Notifier {
	return &Notifier{sender: sender, from: from, timeout: timeout, log: log}
}

// Notify queues msg for delivery and returns immediately. The send outlives
// ctx cancellation but keeps its values.
func (n *Notifier) Notify(ctx context.Context, msg Message) {
	if msg.From == "" {
		msg.From = n.from
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.sender.Send(sendCtx, msg); err != nil {
			n.log.Error(sendCtx, "mail delivery failed", "subject", msg.Subject, "error", err)
			return
		}
		n.log.Debug(sendCtx, "mail sent", "subject", msg.Subject)
	}()
}

// Wait blocks until every queued send has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
