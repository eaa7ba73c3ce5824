package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/JonMunkholm/claims/internal/chat"
	"github.com/JonMunkholm/claims/internal/logging"
)

// ChatRequest is the body of POST /chat. Stream defaults to true.
type ChatRequest struct {
	Message string `json:"message"`
	Stream  *bool  `json:"stream"`
}

// handleChat answers with a canned reply, either as one JSON completion or
// as Server-Sent Events terminated by "data: [DONE]".
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := chat.Validate(req.Message); err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.FromContext(r.Context())
	logger.Info("chat message received", "length", utf8.RuneCountInString(req.Message))

	reply := chat.Reply(req.Message, s.now())
	if req.Stream != nil && !*req.Stream {
		writeJSON(w, http.StatusOK, chat.NewCompletion(reply, s.now()))
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	emit := func(c chat.Chunk) error {
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	opts := chat.Options{
		ChunkWords: s.cfg.Chat.ChunkWords,
		Delay:      s.cfg.Chat.Delay,
		Now:        s.now,
	}
	if err := chat.Stream(r.Context(), reply, opts, emit); err != nil {
		// Headers are sent; the client sees a stream without [DONE].
		logger.Warn("chat stream aborted", "error", err)
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	rc.Flush()
	logger.Info("chat stream completed")
}

func (s *Server) handleChatInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chat.NewInfo(Version))
}
