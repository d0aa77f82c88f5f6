package voice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"

	"github.com/ayusman/handsheet/internal/command"
	"github.com/ayusman/handsheet/internal/geometry"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You convert natural language into spreadsheet commands.
Reply with ONLY a single JSON object. No prose, no code fences.
Use this schema:
{ "action": "<one-of: select|scroll|undo|redo|delete|merge|zoom|copy|paste|autofill|write|sort|sum|average|none>",
  "range": "A1:C10",       // select/delete/merge/copy/autofill/write/sum/average
  "at": "D5",              // paste or scroll target cell
  "row": 12,               // scroll to a 1-based row
  "col": "C",              // scroll to a column
  "delta": -3,             // scroll by rows
  "column": "C",           // sort
  "direction": "asc|desc|in|out|reset",  // sort or zoom
  "pattern": "series|repeat",            // autofill
  "value": "foo"           // write
}
Use "this" for range, at or column when the user says "this" or "here".
Examples:
 - "total of C2 to C8" -> {"action":"sum","range":"C2:C8"}
 - "average of column B" -> {"action":"average","range":"B:B"}
 - "sort column D descending" -> {"action":"sort","column":"D","direction":"desc"}
 - "write 42 here" -> {"action":"write","range":"this","value":"42"}
 - "paste at E4" -> {"action":"paste","at":"E4"}
 - "zoom out" -> {"action":"zoom","direction":"out"}`

// OpenAIConfig configures the LLM interpreter.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAI interprets transcripts with a chat completion.
type OpenAI struct {
	model    string
	timeout  time.Duration
	complete func(ctx context.Context, system, user string) (string, error)
}

// NewOpenAI creates an interpreter. It returns ErrNoAPIKey without a key.
func NewOpenAI(config OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	client := openai.NewClient(option.WithAPIKey(config.APIKey))
	o := &OpenAI{model: config.Model, timeout: config.Timeout}
	o.complete = func(ctx context.Context, system, user string) (string, error) {
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(o.model),
			Temperature: openai.Float(0),
			Messages: []openai.ChatCompletionMessageParamUnion{
				{
					OfSystem: &openai.ChatCompletionSystemMessageParam{
						Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(system)},
					},
				},
				{
					OfUser: &openai.ChatCompletionUserMessageParam{
						Content: openai.ChatCompletionUserMessageParamContentUnion{OfString: openai.String(user)},
					},
				},
			},
		})
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return o, nil
}

// Interpret asks the model for a command.
func (o *OpenAI) Interpret(ctx context.Context, transcript string) (command.Command, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.complete(ctx, systemPrompt, transcript)
	if err != nil {
		return command.Command{}, classify(err)
	}
	raw = strings.TrimSpace(raw)
	log.Printf("[voice] model reply: %s", raw)

	js, ok := extractJSON(raw)
	if !ok {
		return command.Command{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}
	if !gjson.Get(js, "action").Exists() {
		return command.Command{}, fmt.Errorf("%w: %s", ErrNoAction, js)
	}
	return commandFromJSON(js), nil
}

// extractJSON finds the JSON object in a model reply that may be wrapped in
// code fences or surrounded by prose.
func extractJSON(text string) (string, bool) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		cleaned = strings.Replace(cleaned, "json\n", "", 1)
		cleaned = strings.Replace(cleaned, "JSON\n", "", 1)
		cleaned = strings.TrimSpace(cleaned)
	}
	if gjson.Valid(cleaned) && gjson.Parse(cleaned).IsObject() {
		return cleaned, true
	}
	start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	candidate := cleaned[start : end+1]
	if !gjson.Valid(candidate) || !gjson.Parse(candidate).IsObject() {
		return "", false
	}
	return candidate, true
}

func commandFromJSON(js string) command.Command {
	get := func(path string) gjson.Result { return gjson.Get(js, path) }
	cmd := command.Command{
		Action:    strings.ToLower(strings.TrimSpace(get("action").String())),
		Range:     strings.TrimSpace(get("range").String()),
		At:        strings.TrimSpace(get("at").String()),
		Column:    strings.TrimSpace(get("column").String()),
		Row:       int(get("row").Int()),
		Delta:     int(get("delta").Int()),
		DeltaCols: int(get("deltaCols").Int()),
		Direction: strings.ToLower(get("direction").String()),
		Step:      get("step").Float(),
		Pattern:   strings.ToLower(get("pattern").String()),
		Value:     get("value").String(),
		Source:    command.SourceSpeech,
	}
	if col := get("col"); col.Exists() {
		if col.Type == gjson.Number {
			if n := int(col.Int()); n > 0 {
				cmd.Col = command.ColumnRef(geometry.ColumnLetters(n - 1))
			}
		} else {
			cmd.Col = command.ColumnRef(strings.ToUpper(strings.TrimSpace(col.String())))
		}
	}
	if !command.IsDeictic(cmd.Range) {
		cmd.Range = strings.ToUpper(cmd.Range)
	}
	if !command.IsDeictic(cmd.At) {
		cmd.At = strings.ToUpper(cmd.At)
	}
	if !command.IsDeictic(cmd.Column) {
		cmd.Column = strings.ToUpper(cmd.Column)
	}
	return cmd
}

// classify maps backend failures onto the package errors.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "insufficient_quota") || strings.Contains(lower, "429"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case strings.Contains(lower, "invalid_api_key") || strings.Contains(lower, "incorrect api key"):
		return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}
