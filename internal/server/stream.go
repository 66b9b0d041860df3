package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/backmassage/galleryscan/internal/manifest"
	"github.com/backmassage/galleryscan/internal/pipeline"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// wsMessage is one outbound frame: "batch" per resolved batch, then a
// single "done" carrying the manifest.
type wsMessage struct {
	Type     string                `json:"type"`
	Batch    *pipeline.BatchReport `json:"batch,omitempty"`
	Manifest *manifest.Manifest    `json:"manifest,omitempty"`
}

func (s *Server) handleDiscoverWS(w http.ResponseWriter, r *http.Request) {
	req, err := s.requestFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("refresh") == "1" {
		s.purgeCache()
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Reader: processes control frames; a closed client cancels the scan.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	writeCh := make(chan wsMessage, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case out, ok := <-writeCh:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
						time.Now().Add(wsWriteWait))
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					cancel()
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	push := func(m wsMessage) {
		select {
		case writeCh <- m:
		case <-ctx.Done():
		case <-writerDone:
		}
	}

	res := pipeline.Discover(ctx, s.checker, req, func(b pipeline.BatchReport) {
		push(wsMessage{Type: "batch", Batch: &b})
	})
	s.log.Debug(s.cfg.Verbose, "WS %s: %d items in %d batches, stop=%s",
		r.URL.RequestURI(), res.Stats.Found, res.Stats.Batches, res.Stop)

	m := manifest.New(req, res)
	push(wsMessage{Type: "done", Manifest: &m})
	close(writeCh)
	<-writerDone
}
