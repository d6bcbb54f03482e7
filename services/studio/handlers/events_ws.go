// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jinterlante1206/RecipeStudio/services/studio/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// eventBuffer bounds the per-client event queue. A client that stops
// reading is disconnected rather than backing up the session.
const eventBuffer = 64

// HandleEventsWebSocket streams session events to a connected UI.
//
// On connect the client immediately receives a validation event carrying
// the current error list, then every state transition, validation result
// and compile progress event as it happens.
func HandleEventsWebSocket(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to upgrade the events websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("Events client connected", "session_id", ctrl.ID())

		events := make(chan session.Event, eventBuffer)
		subID := ctrl.Subscribe(func(ev session.Event) {
			select {
			case events <- ev:
			default:
				// Slow client; drop rather than block the session.
			}
		})
		defer ctrl.Unsubscribe(subID)

		// Prime the client with the current picture.
		if err := ws.WriteJSON(viewOf(ctrl)); err != nil {
			return
		}

		// Reader goroutine: we never expect inbound messages, but reading
		// is how websocket close frames are noticed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				slog.Info("Events client disconnected", "session_id", ctrl.ID())
				return
			case ev := <-events:
				if err := ws.WriteJSON(ev); err != nil {
					slog.Debug("Failed to write event, dropping client", "error", err)
					return
				}
			}
		}
	}
}
