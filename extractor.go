package quizbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultMaxInputChars bounds the text sent upstream, in runes
	DefaultMaxInputChars = 10000
	// DefaultExtractTimeout bounds one extraction call
	DefaultExtractTimeout = 60 * time.Second

	defaultTemperature = 0.1
	defaultMaxTokens   = 4096

	// backwards scan limit when cutting truncated output to the last complete object
	maxRepairAttempts = 32
)

const extractionPrompt = `You are a data extraction program. Extract every quiz question in the user's text into a JSON array.
Target format: [{"type":"单选/多选/判断","content":"...","options":[{"label":"A","text":"..."}],"answer":"A"}]
Rules:
- "type" is 单选 for single answer, 多选 for multiple answers, 判断 for true/false.
- "answer" is the correct label; for 多选 concatenate the labels without separators, e.g. "ACD".
- Escape double quotes inside strings.
- Ignore text that is not part of a question.
Output only the JSON array.`

// CandidateExtractor turns raw study text into candidate questions
type CandidateExtractor interface {
	Extract(ctx context.Context, rawText string) ExtractionResult
}

// ExtractionResult holds candidates and the diagnostic log of one call.
// Err is nil only when Candidates is non-empty. DecodeErrors lists the array
// elements that were valid JSON but could not be read as a question.
type ExtractionResult struct {
	Candidates   []Question
	DecodeErrors []string
	Log          string
	Truncated    bool
	Err          *ExtractionError
}

// ExtractorConfig configures the connection to an OpenAI-compatible chat endpoint
type ExtractorConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	MaxInputChars int
	Temperature   float32
	MaxTokens     int
}

// Extractor extracts questions through a chat-completion call
type Extractor struct {
	client *openai.Client
	cfg    ExtractorConfig
}

// NewExtractor creates a new extractor with an OpenAI client
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExtractTimeout
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Extract sends rawText upstream and parses the reply into candidates.
// It never returns a Go error: every failure is reported through result.Err.
func (e *Extractor) Extract(ctx context.Context, rawText string) ExtractionResult {
	text := truncateRunes(rawText, e.cfg.MaxInputChars)
	VerboseLog("Extracting questions from %d characters with model %s", len([]rune(text)), e.cfg.Model)

	userPrompt := "Text:\n" + text
	logger := LLMLoggerFrom(ctx)
	if logger != nil {
		logger.LogLLMRequest("Extractor", extractionPrompt+"\n\n"+userPrompt)
	}

	resp, err := e.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: e.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: extractionPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userPrompt,
				},
			},
			Temperature: e.cfg.Temperature,
			MaxTokens:   e.cfg.MaxTokens,
		},
	)
	if err != nil {
		failure := classifyUpstreamError(err)
		if logger != nil {
			logger.LogLLMResponse("Extractor", failure.Log)
		}
		log.Printf("Extraction failed: %v", failure)
		return ExtractionResult{Log: failure.Log, Err: failure}
	}

	if len(resp.Choices) == 0 {
		failure := newExtractionError(ErrMalformedExtraction, "no choices in response", nil)
		return ExtractionResult{Log: failure.Log, Err: failure}
	}

	content := resp.Choices[0].Message.Content
	if logger != nil {
		logger.LogLLMResponse("Extractor", content)
	}

	return parseCandidates(content)
}

// parseCandidates repairs and decodes the model output
func parseCandidates(content string) ExtractionResult {
	repaired, truncated, err := repairJSONArray(content)
	if err != nil {
		failure := newExtractionError(ErrMalformedExtraction, err.Error(), err)
		return ExtractionResult{Log: failure.Log, Truncated: truncated, Err: failure}
	}

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &records); err != nil {
		failure := newExtractionError(ErrMalformedExtraction, err.Error(), err)
		return ExtractionResult{Log: failure.Log, Truncated: truncated, Err: failure}
	}

	if len(records) == 0 {
		failure := newExtractionError(ErrEmptyExtraction, repaired, nil)
		return ExtractionResult{Log: repaired, Truncated: truncated, Err: failure}
	}

	// one bad record must not cost the rest of the batch
	candidates := make([]Question, 0, len(records))
	var decodeErrors []string
	var firstErr error
	for i, record := range records {
		var q Question
		if err := json.Unmarshal(record, &q); err != nil {
			VerboseLog("Record %d is not a question: %v", i, err)
			decodeErrors = append(decodeErrors, fmt.Sprintf("record %d: %v", i, err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		candidates = append(candidates, q)
	}

	if len(candidates) == 0 {
		failure := newExtractionError(ErrMalformedExtraction, strings.Join(decodeErrors, "\n"), firstErr)
		return ExtractionResult{DecodeErrors: decodeErrors, Log: failure.Log, Truncated: truncated, Err: failure}
	}

	if truncated {
		log.Printf("Extraction output was truncated, kept %d complete questions", len(candidates))
	}
	return ExtractionResult{Candidates: candidates, DecodeErrors: decodeErrors, Log: repaired, Truncated: truncated}
}

// repairJSONArray strips code fences and surrounding prose, and cuts output that
// was cut off mid-generation back to the last complete top-level object.
// The bool result reports whether such a cut happened.
func repairJSONArray(content string) (string, bool, error) {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	open := strings.Index(content, "[")
	obj := strings.Index(content, "{")
	if open > 0 && (obj < 0 || open < obj) {
		content = content[open:]
	}

	if strings.HasSuffix(content, "]") {
		return content, false, nil
	}

	// a complete array followed by trailing prose
	if closing := strings.LastIndex(content, "]"); closing >= 0 && json.Valid([]byte(content[:closing+1])) {
		return content[:closing+1], false, nil
	}

	end := len(content)
	for attempt := 0; attempt < maxRepairAttempts; attempt++ {
		end = strings.LastIndex(content[:end], "}")
		if end < 0 {
			break
		}
		candidate := content[:end+1] + "]"
		if json.Valid([]byte(candidate)) {
			return candidate, true, nil
		}
	}
	return content, true, errors.New("truncated output holds no complete question")
}

// classifyUpstreamError maps client errors onto the extraction failure kinds
func classifyUpstreamError(err error) *ExtractionError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		body, marshalErr := json.Marshal(openai.ErrorResponse{Error: apiErr})
		if marshalErr != nil {
			body = []byte(apiErr.Message)
		}
		return newExtractionError(ErrUpstreamRejected, string(body),
			fmt.Errorf("status %d: %w", apiErr.HTTPStatusCode, err))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if body == "" {
			body = reqErr.Error()
		}
		return newExtractionError(ErrUpstreamRejected, body,
			fmt.Errorf("status %d: %w", reqErr.HTTPStatusCode, err))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return newExtractionError(ErrMalformedExtraction, err.Error(), err)
	}

	return newExtractionError(ErrUpstreamUnavailable, err.Error(), err)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
