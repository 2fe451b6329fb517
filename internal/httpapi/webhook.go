package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"strava-directus-layer/internal/domain"
)

// webhookAckBody is the fixed acknowledgment Strava expects on event
// delivery.
const webhookAckBody = "EVENT_RECEIVED"

// handleWebhookVerify answers the subscription-verification challenge. The
// token must match the pending value stored at subscription-create time;
// there is no other accepted state.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	verifyToken := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "" || verifyToken == "" {
		http.Error(w, "missing hub.mode or hub.verify_token", http.StatusBadRequest)
		return
	}

	pending, err := s.VerifyStore.Get(r.Context())
	if err != nil {
		s.Logger.Error().Err(err).Msg("Verify token lookup failed")
	}
	if mode != "subscribe" || pending == "" || verifyToken != pending {
		s.Logger.Warn().Str("mode", mode).Msg("Webhook verification rejected")
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	s.Logger.Info().Msg("Webhook subscription verified")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"hub.challenge": challenge})
}

// handleWebhookEvent ingests one change notification. The acknowledgment is
// written and flushed before the event leaves the handler; resolution
// happens on the sync worker, never on this goroutine.
func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.WebhookEvent
	decodeErr := json.NewDecoder(r.Body).Decode(&event)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(webhookAckBody))
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if decodeErr != nil {
		s.Logger.Warn().Err(decodeErr).Msg("Discarding unparseable webhook payload")
		return
	}

	event.ReceivedAt = time.Now()
	s.Bus.Publish(&event)
}
