package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tbrandt/grouppot/internal/db"
)

// sessionLimit mirrors the UI's 24-hour session timer.
const sessionLimit = 24 * time.Hour

// watchdog posts a notice to a linked channel when its session runs past
// the duration limit.
type watchdog struct {
	db       *db.DB
	session  watchdogSession
	stopChan chan struct{}
	ticker   *time.Ticker
	interval time.Duration
}

// Minimal session interface for sending channel messages.
type watchdogSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func newWatchdog(session watchdogSession, database *db.DB) *watchdog {
	return &watchdog{
		db:       database,
		session:  session,
		stopChan: make(chan struct{}),
		interval: time.Minute,
	}
}

func (w *watchdog) start() {
	if w == nil {
		return
	}
	w.ticker = time.NewTicker(w.interval)
	go w.loop()
}

func (w *watchdog) stop() {
	if w == nil {
		return
	}
	close(w.stopChan)
	if w.ticker != nil {
		w.ticker.Stop()
	}
}

func (w *watchdog) loop() {
	ctx := context.Background()
	for {
		select {
		case <-w.ticker.C:
			w.tick(ctx)
		case <-w.stopChan:
			return
		}
	}
}

func (w *watchdog) tick(ctx context.Context) {
	now := time.Now()
	overdue, err := w.db.OverdueSessions(ctx, now.Add(-sessionLimit))
	if err != nil {
		log.Printf("watchdog: failed to load overdue sessions: %v", err)
		return
	}

	for _, o := range overdue {
		msg := fmt.Sprintf("Session \"%s\" has reached its 24-hour limit. Record end amounts and run `/poker settle`.", o.SessionName)
		if err := w.sendWithRetry(ctx, o.ChannelID, msg); err != nil {
			// Not marked as notified, so the next tick tries again.
			log.Printf("watchdog: failed to notify channel %s: %v", o.ChannelID, err)
			continue
		}
		if err := w.db.MarkLimitNotified(ctx, o.SessionID, now); err != nil {
			log.Printf("watchdog: failed to mark session %s notified: %v", o.SessionID, err)
		}
	}
}

func (w *watchdog) sendWithRetry(ctx context.Context, channelID, content string) error {
	const attemptTimeout = 12 * time.Second
	const maxAttempts = 2

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		_, err := w.session.ChannelMessageSend(channelID, content, discordgo.WithContext(sendCtx))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}
		time.Sleep(time.Duration(300+rand.Intn(500)) * time.Millisecond)
	}
	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}
