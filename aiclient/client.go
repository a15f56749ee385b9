// Package aiclient talks to the external question-generation service.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"quizai/apperr"
	"quizai/logger"
	"quizai/models"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     *logger.Logger
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	log        *logger.Logger

	initialInterval time.Duration
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ai base url required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:         baseURL,
		timeout:         timeout,
		maxRetries:      maxRetries,
		httpClient:      hc,
		log:             log.With("component", "aiclient"),
		initialInterval: 500 * time.Millisecond,
	}, nil
}

// GenerateRequest is one call to the model service.
type GenerateRequest struct {
	Filename string
	Content  []byte
	MCQCount int
	TFCount  int
}

// Generate uploads the document and converts the answer into unsaved
// questions. Upstream failures come back as apperr upstream errors carrying
// the service's status and message.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) ([]models.Question, error) {
	body, contentType, err := multipartBody(req.Filename, req.Content)
	if err != nil {
		return nil, apperr.Internal("build ai request", err)
	}

	q := url.Values{}
	q.Set("mcq_count", strconv.Itoa(req.MCQCount))
	q.Set("tf_count", strconv.Itoa(req.TFCount))
	endpoint := c.baseURL + "/ask_ai_model?" + q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := backoff.Retry(ctx, func() (*Response, error) {
		return c.post(ctx, endpoint, contentType, body)
	},
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Warn("ai request failed, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return nil, c.upstreamError(err)
	}
	c.log.Debug("ai request completed", "filename", req.Filename, "questions", len(resp.Questions), "took", time.Since(started))

	questions, err := ToQuestions(resp.Questions)
	if err != nil {
		return nil, apperr.Upstream("AI model returned an unusable question set.", http.StatusBadGateway, err.Error(), err)
	}
	return questions, nil
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		herr := parseHTTPError(res.StatusCode, raw)
		if herr.Retryable() {
			return nil, herr
		}
		return nil, backoff.Permanent(herr)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode ai response: %w", err))
	}
	return &out, nil
}

func (c *Client) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = 10 * time.Second
	return b
}

func (c *Client) upstreamError(err error) error {
	var herr *HTTPError
	if errors.As(err, &herr) {
		msg := strings.TrimSpace(herr.Message)
		if msg == "" {
			msg = "AI model request failed."
		}
		return apperr.Upstream(msg, herr.StatusCode, herr.Body, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Upstream("AI model request timed out.", http.StatusGatewayTimeout, "", err)
	}
	if errors.Is(err, context.Canceled) {
		return apperr.Upstream("AI model request was cancelled.", 0, "", err)
	}
	return apperr.Upstream("AI model service is unreachable.", http.StatusBadGateway, err.Error(), err)
}

// Ping reports whether the model service answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/docs", nil)
	if err != nil {
		return err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
	res.Body.Close()
	if res.StatusCode >= 500 {
		return fmt.Errorf("ai model service returned %d", res.StatusCode)
	}
	return nil
}

func multipartBody(filename string, content []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ToQuestions validates generated questions and converts them to models.
// True/false questions without options get "True"/"False".
func ToQuestions(in []Question) ([]models.Question, error) {
	out := make([]models.Question, 0, len(in))
	for i, q := range in {
		typ, err := models.ParseQuestionType(q.Type)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		choices := q.Choices
		if typ == models.QuestionTypeTF && len(choices) == 0 {
			choices = []string{"True", "False"}
		}
		question := models.Question{
			Type:            typ,
			Content:         strings.TrimSpace(q.Content),
			SuggestedAnswer: strings.TrimSpace(q.Answer),
			Position:        i,
		}
		for j, text := range choices {
			question.Choices = append(question.Choices, models.Choice{Text: strings.TrimSpace(text), Position: j})
		}
		if err := question.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		out = append(out, question)
	}
	return out, nil
}
