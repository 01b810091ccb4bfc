package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Error marks any enrichment failure. Callers in the write pipeline treat it
// as non-fatal; the /api/enrich endpoint surfaces it.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enrichment failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the gateway's response shape. Sentiment deliberately echoes the
// caller's mood: the model produces free-text support, not a classification.
type Result struct {
	Feedback  string
	Sentiment string
}

type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service is the enrichment gateway. It exists server-side so the API key
// never reaches the client.
type Service struct {
	gen generator
}

func NewService(gen generator) *Service {
	return &Service{gen: gen}
}

func NewServiceWithClient(client *GeminiClient) *Service {
	return &Service{gen: client}
}

// Enrich builds the support prompt and runs one model call. No retry, no
// cache; a session ending mid-call just abandons the response.
func (s *Service) Enrich(ctx context.Context, mood, text string) (Result, error) {
	prompt := buildPrompt(mood, text)

	feedback, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Result{}, &Error{Err: err}
	}

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Result{}, &Error{Err: fmt.Errorf("empty feedback")}
	}

	log.Printf("enrich: generated %d bytes of feedback for mood %s", len(feedback), mood)
	return Result{Feedback: feedback, Sentiment: mood}, nil
}

// buildPrompt embeds mood and text verbatim; JSON encoding on the wire is the
// only escaping the entry ever gets.
func buildPrompt(mood, text string) string {
	return fmt.Sprintf(`Analyze this journal entry and provide supportive feedback for a youth mental wellness app.
User selected mood: %s
Journal text: "%s"

Respond with empathetic, supportive feedback in 1-2 sentences. Be encouraging and understanding.`, mood, text)
}
