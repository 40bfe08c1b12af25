package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func startStream(w http.ResponseWriter) (*eventWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventWriter{w: w, flusher: flusher}, true
}

func (e *eventWriter) send(event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	e.flusher.Flush()

	return nil
}

// ping sends a comment so proxies keep the connection open.
func (e *eventWriter) ping() {
	fmt.Fprint(e.w, ": ping\n\n")
	e.flusher.Flush()
}

// handleBalanceStream pushes the current wallets and then every balance change.
func (s *Server) handleBalanceStream(w http.ResponseWriter, r *http.Request) {
	if s.services.Balances == nil {
		s.writeError(w, http.StatusServiceUnavailable, "balance stream not available")
		return
	}

	ch := s.services.Balances.Subscribe()
	defer s.services.Balances.Unsubscribe(ch)

	stream, ok := startStream(w)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	if err := stream.send("wallets", s.services.Wallets.List()); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			stream.ping()
		case snapshot, open := <-ch:
			if !open {
				return
			}
			if err := stream.send("balance", snapshot); err != nil {
				s.logger.Debug("balance stream closed", zap.Error(err))
				return
			}
		}
	}
}

// handleExchangeStream replays the exchange journal and then polls it for new entries.
func (s *Server) handleExchangeStream(w http.ResponseWriter, r *http.Request) {
	if s.services.Journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "exchange journal not available")
		return
	}

	lastIndex := uint64(0)
	sendExchanges := func(stream *eventWriter) error {
		records, err := s.services.Journal.TransactionsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			if err := stream.send("exchange", record.Transaction); err != nil {
				return err
			}
			lastIndex = record.Index
		}
		return nil
	}

	// fail before the stream starts so the client sees a proper status
	records, err := s.services.Journal.TransactionsAfter(lastIndex)
	if err != nil {
		s.logger.Error("exchange stream initial load", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load exchanges")
		return
	}

	stream, ok := startStream(w)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	for _, record := range records {
		if err := stream.send("exchange", record.Transaction); err != nil {
			return
		}
		lastIndex = record.Index
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(journalPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			stream.ping()
		case <-poll.C:
			if err := sendExchanges(stream); err != nil {
				s.logger.Warn("exchange stream poll", zap.Error(err))
			}
		}
	}
}
