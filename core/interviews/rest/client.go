package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/vvskad1/interview-core/core/audio"
	"github.com/vvskad1/interview-core/core/interviews"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Client talks to the interview backend over its REST surface. The wire
// format is owned by the backend: snake_case JSON bodies and a multipart
// upload for the answer artifact.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ interviews.Client = (*Client)(nil)

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}

	if baseURL, ok := os.LookupEnv("INTERVIEW_API_BASE_URL"); ok {
		client.baseURL = strings.TrimRight(baseURL, "/")
	}
	if token, ok := os.LookupEnv("INTERVIEW_API_TOKEN"); ok {
		client.token = token
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) StartSession(ctx context.Context, inviteID int64) (*interviews.StartSessionResponse, error) {
	ctx, span := tracer.Start(ctx, "start session")
	defer span.End()

	reqBody := struct {
		InviteID int64 `json:"invite_id"`
	}{InviteID: inviteID}

	response := interviews.StartSessionResponse{}
	if err := c.postJSON(ctx, "/session/start", reqBody, &response); err != nil {
		err = fmt.Errorf("failed to start session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("session.id", response.SessionID))
	return &response, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID int64, artifact *audio.Artifact, question string, turnIndex int) (*interviews.TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "submit answer")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("session.id", sessionID),
		attribute.Int("turn.index", turnIndex),
		attribute.Int("artifact.bytes", len(artifact.Bytes)),
	)

	body := bytes.Buffer{}
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", "answer.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(artifact.Bytes); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("question", question); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.WriteField("turn_idx", strconv.Itoa(turnIndex)); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, fmt.Sprintf("/session/%d/speech", sessionID), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	response := interviews.TurnResponse{}
	if err := c.do(req, &response); err != nil {
		err = fmt.Errorf("failed to submit answer: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &response, nil
}

func (c *Client) SubmitTimeout(ctx context.Context, sessionID int64, turnIndex int) (*interviews.TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "submit timeout")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("session.id", sessionID),
		attribute.Int("turn.index", turnIndex),
	)

	reqBody := struct {
		TurnIdx int `json:"turn_idx"`
	}{TurnIdx: turnIndex}

	response := interviews.TurnResponse{}
	if err := c.postJSON(ctx, fmt.Sprintf("/session/%d/timeout", sessionID), reqBody, &response); err != nil {
		err = fmt.Errorf("failed to submit timeout: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &response, nil
}

func (c *Client) RecordProctorEvent(ctx context.Context, sessionID int64, event interviews.ProctorEvent) (*interviews.ProctorResponse, error) {
	ctx, span := tracer.Start(ctx, "record proctor event")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("session.id", sessionID),
		attribute.String("proctor.event_type", event.Type),
	)

	response := interviews.ProctorResponse{}
	if err := c.postJSON(ctx, fmt.Sprintf("/proctor/%d/event", sessionID), event, &response); err != nil {
		err = fmt.Errorf("failed to record proctor event: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &response, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, response any) error {
	requestBodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := c.newRequest(ctx, path, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, response)
}

func (c *Client) newRequest(ctx context.Context, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("interview api base url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

func (c *Client) do(req *http.Request, response any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil && len(errorBody) > 0 {
			logger.Warn("interview api returned an error body",
				"status", resp.Status, "body", string(errorBody))
		}
		return fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	if response == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	return nil
}
