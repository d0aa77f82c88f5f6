package voice

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/ayusman/handsheet/internal/command"
)

// Errors returned by the parsers.
var (
	ErrEmptyTranscript = errors.New("empty transcript")
	ErrNotUnderstood   = errors.New("command not understood")
	ErrNoAPIKey        = errors.New("missing OpenAI API key")
	ErrQuotaExceeded   = errors.New("OpenAI quota exceeded, check plan and billing")
	ErrInvalidAPIKey   = errors.New("invalid OpenAI API key")
	ErrUnparseable     = errors.New("could not parse command")
	ErrNoAction        = errors.New("invalid command format (no action)")
	ErrBackend         = errors.New("command interpretation failed")
)

// Interpreter turns a cleaned transcript into a command.
type Interpreter interface {
	Interpret(ctx context.Context, transcript string) (command.Command, error)
}

// Parser cleans a transcript, asks the interpreter, and falls back to the
// local rules when the interpreter is missing, fails, or returns no action.
type Parser struct {
	llm Interpreter
}

// NewParser creates a Parser. llm may be nil.
func NewParser(llm Interpreter) *Parser {
	return &Parser{llm: llm}
}

// Parse returns the command for transcript.
func (p *Parser) Parse(ctx context.Context, transcript string) (command.Command, error) {
	s := Clean(transcript)
	if s == "" {
		return command.Command{}, ErrEmptyTranscript
	}

	var llmErr error
	if p.llm != nil {
		cmd, err := p.llm.Interpret(ctx, s)
		if err == nil && cmd.Action != "" && cmd.Action != "none" {
			cmd.Source = command.SourceSpeech
			return cmd, nil
		}
		if err != nil {
			log.Printf("[voice] interpreter failed for %q: %v", s, err)
			llmErr = err
		}
	}

	if m, ok := ParseLocal(s); ok && m.Confidence >= MinLocalConfidence {
		return m.Command, nil
	}
	if llmErr != nil {
		return command.Command{}, llmErr
	}
	return command.Command{}, ErrNotUnderstood
}

// HTTPStatus maps a parse error to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrEmptyTranscript):
		return http.StatusBadRequest
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotUnderstood), errors.Is(err, ErrUnparseable), errors.Is(err, ErrNoAction):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
