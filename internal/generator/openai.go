package generator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMax  = 10 * time.Second
)

var transientPattern = regexp.MustCompile(`(?i)(\b429\b|\b5\d\d\b|rate limit|timeout|temporar|unavailable|connection reset|overloaded)`)

// Options configures the OpenAI-backed generator.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	Retries     int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// OpenAI asks a chat model for a JSON plan, retrying transient failures.
type OpenAI struct {
	model       llms.Model
	retries     int
	backoffBase time.Duration
	backoffMax  time.Duration
	log         zerolog.Logger
}

// NewOpenAI builds a client that requests JSON object responses.
func NewOpenAI(opts Options, log zerolog.Logger) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	clientOpts := []openai.Option{
		openai.WithModel(opts.Model),
		openai.WithToken(opts.APIKey),
		openai.WithResponseFormat(&openai.ResponseFormat{Type: "json_object"}),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(opts.BaseURL))
	}
	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return NewWithModel(llm, opts, log), nil
}

// NewWithModel wraps any langchaingo model.
func NewWithModel(model llms.Model, opts Options, log zerolog.Logger) *OpenAI {
	base := opts.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	maxWait := opts.BackoffMax
	if maxWait <= 0 {
		maxWait = defaultBackoffMax
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &OpenAI{
		model:       model,
		retries:     retries,
		backoffBase: base,
		backoffMax:  maxWait,
		log:         log.With().Str("component", "generator").Logger(),
	}
}

// Generate returns the raw JSON content of the model's answer.
func (g *OpenAI) Generate(ctx context.Context, req Request) ([]byte, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, userPrompt(req)),
	}

	backoff := retry.NewExponential(g.backoffBase)
	backoff = retry.WithCappedDuration(g.backoffMax, backoff)
	backoff = retry.WithMaxRetries(uint64(g.retries), backoff)

	var content string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := g.model.GenerateContent(ctx, messages, llms.WithTemperature(0.2))
		if err == nil {
			content, err = firstChoice(resp)
		}
		if err != nil {
			if isTransient(err) {
				g.log.Warn().Err(err).Int("attempt", attempt).Msg("generation failed, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	g.log.Debug().Str("topic", req.Topic).Int("attempts", attempt).Int("bytes", len(content)).Msg("plan generated")
	return []byte(content), nil
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return transientPattern.MatchString(err.Error())
}
