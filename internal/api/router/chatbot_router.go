package router

import (
	"net/http"

	"docvia-widget/internal/api"
	"docvia-widget/internal/api/endpoints"
	"docvia-widget/internal/api/middleware"
	chatbotservice "docvia-widget/internal/service/chatbot"
)

// ChatbotRoutes registers the two widget calls under prefix+"/chat-bot".
// The query route needs a session token and is rate limited per client.
func ChatbotRoutes(prefix string, service *chatbotservice.Service, limiter *middleware.RateLimiter) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		chatbotMetrics := s.ChatbotMetrics()
		chatbotEndpoints := endpoints.NewChatbotEndpoints(service, chatbotMetrics)

		mux.HandleFunc(prefix+"/chat-bot/access-token", s.MakeHTTPHandleFunc(chatbotEndpoints.AccessToken))

		queryMiddleware := []middleware.Middleware{middleware.ValidateSessionJWT(service, chatbotMetrics)}
		if limiter != nil {
			queryMiddleware = append([]middleware.Middleware{middleware.RateLimit(limiter)}, queryMiddleware...)
		}
		mux.HandleFunc(prefix+"/chat-bot/query", s.MakeHTTPHandleFunc(chatbotEndpoints.Query, queryMiddleware...))
	}
}
