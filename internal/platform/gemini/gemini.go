package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/arcana/internal/config"
	"github.com/phrazzld/arcana/internal/interpretation"
	"github.com/phrazzld/arcana/internal/platform/logger"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used by the interpreter.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Interpreter implements interpretation.Interpreter using Gemini.
type Interpreter struct {
	logger    *slog.Logger
	models    contentGenerator
	model     string
	timeout   time.Duration
	prompt    *template.Template
	genConfig *genai.GenerateContentConfig
}

var _ interpretation.Interpreter = (*Interpreter)(nil)

// NewInterpreter creates a Gemini client from cfg.
func NewInterpreter(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Interpreter, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", interpretation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", interpretation.ErrInvalidConfig, err)
	}

	return newInterpreter(log, client.Models, cfg)
}

func newInterpreter(log *slog.Logger, models contentGenerator, cfg config.LLMConfig) (*Interpreter, error) {
	if models == nil {
		return nil, errors.New("models cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", interpretation.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	tmpl, err := loadTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Interpreter{
		logger:  log.With(slog.String("component", "gemini_interpreter")),
		models:  models,
		model:   cfg.ModelName,
		timeout: timeout,
		prompt:  tmpl,
		genConfig: &genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0.9),
		},
	}, nil
}

// Interpret sends one GenerateContent request for req.
func (g *Interpreter) Interpret(ctx context.Context, req interpretation.Request) (*interpretation.Result, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	prompt, err := renderPrompt(g.prompt, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	log.DebugContext(ctx, "calling Gemini",
		"model", g.model,
		"kind", req.Kind,
		"prompt_length", len(prompt))

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.genConfig)
	if err != nil {
		log.WarnContext(ctx, "Gemini API call failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %w", interpretation.ErrInterpretationFailed, err)
	}

	text, err := extractText(resp)
	if err != nil {
		log.WarnContext(ctx, "Gemini returned no usable text", "error", err)
		return nil, err
	}

	log.InfoContext(ctx, "Gemini API call successful",
		"model", g.model,
		"response_length", len(text),
		"duration_ms", time.Since(start).Milliseconds())

	return &interpretation.Result{Text: text, Model: g.model}, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	switch {
	case resp == nil:
		return "", fmt.Errorf("%w: nil response", interpretation.ErrInvalidResponse)
	case resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "":
		return "", fmt.Errorf("%w: prompt blocked (%s)", interpretation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	case len(resp.Candidates) == 0:
		return "", fmt.Errorf("%w: no content generated", interpretation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", interpretation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", interpretation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty text in response", interpretation.ErrInvalidResponse)
	}
	return text, nil
}
