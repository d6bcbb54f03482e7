// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

// subscriberBuffer is the per-correlation-ID channel depth. Progress events
// are small and consumers drain promptly; the terminal event is always
// delivered even if intermediate ones are dropped.
const subscriberBuffer = 32

// ProgressChannel is the long-lived websocket subscription multiplexing
// execution updates for many correlation IDs.
//
// Description:
//
//	One channel exists per editing session. A single reader goroutine owns
//	the websocket and routes each inbound update to the subscriber for its
//	correlation ID. Updates for unknown IDs (never subscribed, cancelled,
//	or already terminal) are discarded, never treated as errors. Progress
//	values are clamped to be monotonically non-decreasing per ID, and the
//	first terminal event closes that ID's stream; anything after it is
//	dropped.
//
// Thread Safety:
//
//	Safe for concurrent use.
type ProgressChannel struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	subs      map[string]*subscriber
	connected bool
	closeOnce sync.Once
	done      chan struct{}
}

type subscriber struct {
	ch           chan datatypes.ExecutionUpdate
	lastProgress float64
}

// Dial connects the progress channel and starts its reader goroutine.
func Dial(ctx context.Context, url string) (*ProgressChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect progress channel: %w", err)
	}
	p := &ProgressChannel{
		conn:      conn,
		subs:      make(map[string]*subscriber),
		connected: true,
		done:      make(chan struct{}),
	}
	go p.readLoop()
	slog.Info("Progress channel connected", "url", url)
	return p, nil
}

// Connected reports whether the websocket is still up.
func (p *ProgressChannel) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Subscribe registers interest in one correlation ID.
//
// The returned channel delivers updates in arrival order and is closed
// after the terminal event. Call Cancel to stop early.
func (p *ProgressChannel) Subscribe(correlationID string) (<-chan datatypes.ExecutionUpdate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.connected {
		return nil, ErrChannelClosed
	}
	if _, exists := p.subs[correlationID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySubscribed, correlationID)
	}
	sub := &subscriber{ch: make(chan datatypes.ExecutionUpdate, subscriberBuffer)}
	p.subs[correlationID] = sub
	return sub.ch, nil
}

// Cancel stops forwarding updates for a correlation ID and closes its
// stream. Later updates for that ID are silently discarded.
func (p *ProgressChannel) Cancel(correlationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.subs[correlationID]; ok {
		delete(p.subs, correlationID)
		close(sub.ch)
	}
}

// Close tears the channel down, closing every outstanding subscription.
func (p *ProgressChannel) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.connected = false
		for id, sub := range p.subs {
			delete(p.subs, id)
			close(sub.ch)
		}
		conn := p.conn
		p.mu.Unlock()
		close(p.done)
		err = conn.Close()
	})
	return err
}

// readLoop owns the websocket until it errors or the channel is closed.
func (p *ProgressChannel) readLoop() {
	defer p.Close()
	for {
		var update datatypes.ExecutionUpdate
		if err := p.conn.ReadJSON(&update); err != nil {
			select {
			case <-p.done:
			default:
				slog.Warn("Progress channel disconnected", "error", err)
			}
			return
		}
		p.dispatch(update)
	}
}

// dispatch routes one update to its subscriber, enforcing the ordering
// contract. Sends happen under the mutex and never block: Cancel and Close
// are the only other paths that touch a subscriber channel, and they hold
// the same lock, so a send can never race a close.
func (p *ProgressChannel) dispatch(update datatypes.ExecutionUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subs[update.ID]
	if !ok {
		slog.Debug("Dropping update for unknown correlation id", "correlation_id", update.ID)
		return
	}

	// Progress never moves backwards for a given id.
	if update.Progress < sub.lastProgress {
		update.Progress = sub.lastProgress
	} else {
		sub.lastProgress = update.Progress
	}

	if update.Status.IsTerminal() {
		// Remove before delivery so anything after the terminal event
		// finds no subscriber.
		delete(p.subs, update.ID)
		select {
		case sub.ch <- update:
		default:
			// Full buffer: evict the oldest queued update. dispatch is
			// the only sender, so after the eviction this send cannot
			// block.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- update
			slog.Warn("Subscriber slow, evicted an update to deliver the terminal event",
				"correlation_id", update.ID, "status", update.Status)
		}
		close(sub.ch)
		return
	}
	select {
	case sub.ch <- update:
	default:
		// Slow consumer; a newer event will supersede this one anyway.
		slog.Debug("Dropping progress update for slow consumer", "correlation_id", update.ID)
	}
}
