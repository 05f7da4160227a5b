package completion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/net/context"

	"github.com/inboxpilot/mailsync/config"
	"github.com/inboxpilot/mailsync/dto"
	"github.com/inboxpilot/mailsync/interfaces"
	engineErrors "github.com/inboxpilot/mailsync/internal/errors"
	"github.com/inboxpilot/mailsync/internal/logger"
	"github.com/inboxpilot/mailsync/internal/tracing"
)

type completionService struct {
	cfg *config.CompletionConfig
	log logger.Logger
}

func NewCompletionService(cfg *config.CompletionConfig, log logger.Logger) interfaces.CompletionService {
	return &completionService{
		cfg: cfg,
		log: log,
	}
}

// GenerateText posts the prompt to the completion endpoint and returns the
// generated text. Timeouts and non-2xx responses surface as completion
// failures for the caller to skip the reply.
func (s *completionService) GenerateText(ctx context.Context, request dto.CompletionRequest) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "completionService.GenerateText")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("prompt.length", len(request.Prompt))

	payload, err := json.Marshal(request)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.Url+"/v1/completions", bytes.NewBuffer(payload))
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	if s.cfg.ApiKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.ApiKey)
	}

	client := &http.Client{
		Timeout: time.Duration(s.cfg.TimeoutSeconds) * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(engineErrors.ErrCompletionFailed, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(engineErrors.ErrCompletionFailed, "read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, string(body))
		tracing.TraceErr(span, err)
		return "", errors.Wrap(engineErrors.ErrCompletionFailed, err.Error())
	}

	var response dto.CompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(engineErrors.ErrCompletionFailed, "decode response: %v", err)
	}

	if response.Text == "" {
		err = errors.Wrap(engineErrors.ErrCompletionFailed, "completion endpoint returned empty text")
		tracing.TraceErr(span, err)
		return "", err
	}

	return response.Text, nil
}
