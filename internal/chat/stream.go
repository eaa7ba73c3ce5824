package chat

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const finishStop = "stop"

// Delta is the incremental content of a streamed chunk. The first chunk
// carries the role; the terminating chunk carries neither field.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ChunkChoice is one choice inside a Chunk.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Chunk is a chat.completion.chunk event.
type Chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// Message is a complete assistant message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionChoice is one choice inside a Completion.
type CompletionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Completion is the non-streaming chat.completion response.
type Completion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
}

// NewCompletion wraps text in a single-choice completion.
func NewCompletion(text string, now time.Time) Completion {
	return Completion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: now.Unix(),
		Model:   Model,
		Choices: []CompletionChoice{{
			Message:      Message{Role: "assistant", Content: text},
			FinishReason: finishStop,
		}},
	}
}

// Options control how Stream paces its output.
type Options struct {
	// ChunkWords is the number of words per chunk; values below 1 mean 1.
	ChunkWords int
	// Delay is the pause between chunks. Zero streams without pausing.
	Delay time.Duration
	// Now stamps each chunk; nil means time.Now.
	Now func() time.Time
}

// Split breaks text into groups of n whitespace-separated words. Every
// group but the last keeps a trailing space so the concatenation reads
// naturally.
func Split(text string, n int) []string {
	if n < 1 {
		n = 1
	}
	words := strings.Fields(text)
	parts := make([]string, 0, (len(words)+n-1)/n)
	for i := 0; i < len(words); i += n {
		end := min(i+n, len(words))
		part := strings.Join(words[i:end], " ")
		if end < len(words) {
			part += " "
		}
		parts = append(parts, part)
	}
	return parts
}

// Stream emits text as a sequence of chunks followed by an empty chunk with
// finish_reason "stop". It waits opts.Delay between chunks and stops early
// with ctx.Err() when ctx is done, or with the first error emit returns.
func Stream(ctx context.Context, text string, opts Options, emit func(Chunk) error) error {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	base := "chatcmpl-" + uuid.NewString()
	chunk := func(id string, delta Delta, finish *string) Chunk {
		return Chunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: now().Unix(),
			Model:   Model,
			Choices: []ChunkChoice{{Delta: delta, FinishReason: finish}},
		}
	}

	var timer *time.Timer
	if opts.Delay > 0 {
		timer = time.NewTimer(opts.Delay)
		defer timer.Stop()
	}

	for i, part := range Split(text, opts.ChunkWords) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 && timer != nil {
			timer.Reset(opts.Delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}

		delta := Delta{Content: part}
		if i == 0 {
			delta.Role = "assistant"
		}
		if err := emit(chunk(base+"-"+strconv.Itoa(i), delta, nil)); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	stop := finishStop
	return emit(chunk(base+"-final", Delta{}, &stop))
}
