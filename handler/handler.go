package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"starlight-postoffice/internal/domain"
	"starlight-postoffice/internal/observability"
	"starlight-postoffice/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	maxBodyBytes      = 16 << 10
)

type UseCase interface {
	Respond(ctx context.Context, in usecase.Input) usecase.Output
}

// Handler exposes the post office over API Gateway and plain net/http.
type Handler struct {
	uc    UseCase
	newID func() string
}

type chatRequest struct {
	Message  string `json:"message"`
	Identity string `json:"identity"`
}

type chatResponse struct {
	Reply       string   `json:"reply,omitempty"`
	Replies     []string `json:"replies,omitempty"`
	Phase       string   `json:"phase,omitempty"`
	Buttons     []string `json:"buttons,omitempty"`
	Emotion     string   `json:"emotion,omitempty"`
	Letter      string   `json:"letter,omitempty"`
	StampCode   string   `json:"stamp_code,omitempty"`
	IsLetterEnd bool     `json:"is_letter_end,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: usecase must not be nil")
	}
	return &Handler{uc: uc, newID: uuid.NewString}, nil
}

// Handle serves an API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(event.Headers, correlationHeader)
	if corrID == "" {
		corrID = h.newID()
	}
	ctx = observability.WithCorrelationID(ctx, corrID)

	status, body := h.respond(ctx, []byte(event.Body))
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}, nil
}

// ServeHTTP serves the same JSON contract over net/http.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corrID := strings.TrimSpace(r.Header.Get(correlationHeader))
	if corrID == "" {
		corrID = h.newID()
	}
	ctx := observability.WithCorrelationID(r.Context(), corrID)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	status, body := http.StatusBadRequest, chatResponse{Error: string(usecase.ErrorInvalidInput)}
	if err == nil {
		status, body = h.respond(ctx, raw)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(correlationHeader, corrID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to write response", "reason", "response_write_error", "err", err)
	}
}

func (h *Handler) respond(ctx context.Context, raw []byte) (int, chatResponse) {
	log := observability.LoggerFromContext(ctx)

	var req chatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Warn("invalid request body", "reason", "invalid_json", "err", err)
		return http.StatusBadRequest, chatResponse{Error: string(usecase.ErrorInvalidInput)}
	}

	out := h.uc.Respond(ctx, usecase.Input{Text: req.Message, Identity: req.Identity})
	status, body := render(out)
	log.Info("turn handled", "status", status, "phase", body.Phase, "error", body.Error)
	return status, body
}

// render maps a turn result onto the wire shape.
func render(out usecase.Output) (int, chatResponse) {
	body := chatResponse{Emotion: string(out.Emotion)}
	switch r := out.Response.(type) {
	case domain.Reply:
		body.Reply = r.Text
		body.Phase = string(r.Phase)
		body.Buttons = r.Buttons
	case domain.MultiReply:
		body.Replies = r.Texts
		body.Phase = string(r.Phase)
		body.Buttons = r.Buttons
	case domain.Transition:
		body.Replies = r.Texts
		body.Phase = string(r.To)
		body.Buttons = r.Buttons
	case domain.ArtifactDelivered:
		body.Replies = r.Texts
		body.Phase = string(domain.PhaseEnding)
		body.Letter = r.Letter
		body.StampCode = r.StampCode
		body.IsLetterEnd = true
		body.Buttons = r.Buttons
	case domain.ErrorReply:
		return statusFor(usecase.ErrorCode(r.Code)), chatResponse{
			Reply: r.Text,
			Phase: string(r.Phase),
			Error: r.Code,
		}
	default:
		return http.StatusInternalServerError, chatResponse{Error: string(usecase.ErrorInternal)}
	}
	return http.StatusOK, body
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
