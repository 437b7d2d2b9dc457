package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"docvia-widget/internal/api"
	"docvia-widget/internal/api/middleware"
	"docvia-widget/internal/dto"
	"docvia-widget/internal/model"
	chatbotservice "docvia-widget/internal/service/chatbot"
)

const maxRequestBody = 64 << 10

type ChatbotEndpoints interface {
	AccessToken(http.ResponseWriter, *http.Request) error
	Query(http.ResponseWriter, *http.Request) error
}

type chatbotEndpoints struct {
	service *chatbotservice.Service
	metrics *api.ChatbotMetrics
}

// NewChatbotEndpoints serves the widget routes. metrics may be nil.
func NewChatbotEndpoints(service *chatbotservice.Service, metrics *api.ChatbotMetrics) ChatbotEndpoints {
	return &chatbotEndpoints{
		service: service,
		metrics: metrics,
	}
}

func (h *chatbotEndpoints) AccessToken(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleAccessToken,
	})
}

func (h *chatbotEndpoints) Query(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleQuery,
	})
}

func (h *chatbotEndpoints) handleAccessToken(w http.ResponseWriter, r *http.Request) error {
	var req dto.AccessTokenRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	result, err := h.service.Access(r.Context(), req.AppSecret, req.UUID)
	if err != nil {
		return mapChatbotServiceError(err)
	}

	h.metrics.TokenIssued()

	widget := toWidgetResponse(result.App)
	return WriteJSON(w, http.StatusOK, dto.AccessTokenResponse{
		Data: &dto.AccessTokenData{
			Widget: &widget,
			Token: &dto.TokenResponse{
				Token:    result.Token,
				ExpireAt: result.ExpireAt.UTC().Format(time.RFC3339),
			},
			UID: result.VisitorID,
		},
	})
}

func (h *chatbotEndpoints) handleQuery(w http.ResponseWriter, r *http.Request) error {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   errors.New("query without session"),
		}
	}

	var req dto.QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		return err
	}

	reply, err := h.service.Answer(r.Context(), session, req.Query)
	if err != nil {
		return mapChatbotServiceError(err)
	}
	h.metrics.QueryAnswered(reply.Matched)

	return WriteJSON(w, http.StatusOK, dto.QueryResponse{Data: reply.Text})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode %T: %w", v, err),
		}
	}
	return nil
}

func toWidgetResponse(app model.AppItem) dto.WidgetResponse {
	return dto.WidgetResponse{
		ID:                  app.Widget.WidgetID,
		AppID:               app.AppID,
		CreatedAt:           app.CreatedAt,
		UpdatedAt:           app.UpdatedAt,
		AgentName:           app.Widget.AgentName,
		AgentPhoto:          app.Widget.AgentPhoto,
		HeaderColor:         app.Widget.HeaderColor,
		HeaderTextColor:     app.Widget.HeaderTextColor,
		AgentMessageColor:   app.Widget.AgentMessageColor,
		AgentTextColor:      app.Widget.AgentTextColor,
		VisitorMessageColor: app.Widget.VisitorMessageColor,
		VisitorTextColor:    app.Widget.VisitorTextColor,
	}
}

func mapChatbotServiceError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *chatbotservice.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   fmt.Errorf("chatbot service: %w", err),
		}
	}

	var errorLog error
	if svcErr.Err != nil {
		errorLog = fmt.Errorf("%s: %w", svcErr.Message, svcErr.Err)
	} else {
		errorLog = svcErr
	}

	switch svcErr.Code {
	case chatbotservice.ErrorCodeValidation:
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    svcErr.Message,
			ErrorLog:   errorLog,
		}
	case chatbotservice.ErrorCodeUnauthorized:
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    svcErr.Message,
			ErrorLog:   errorLog,
		}
	case chatbotservice.ErrorCodeNotFound:
		return &HTTPError{
			StatusCode: http.StatusNotFound,
			Message:    svcErr.Message,
			ErrorLog:   errorLog,
		}
	default:
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   errorLog,
		}
	}
}
