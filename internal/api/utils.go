package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"docvia-widget/internal/api/middleware"
	"docvia-widget/internal/queue"
)

type apiFunc func(http.ResponseWriter, *http.Request) error

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// MakeHTTPHandleFunc runs f on the request queue behind CORS and access
// logging. routeMiddleware runs inside those, before the queue.
func (s *APIServer) MakeHTTPHandleFunc(f apiFunc, routeMiddleware ...middleware.Middleware) http.HandlerFunc {
	baseHandler := func(w http.ResponseWriter, r *http.Request) {
		errc := make(chan error, 1)

		job := queue.Job{
			Fn: func() error {
				return f(w, r)
			},
			Errc: errc,
		}

		if err := s.requestQueueManager.EnqueueJob(r.Context(), job); err != nil {
			s.log.Warn().Err(err).Str("path", r.URL.Path).Msg("request not queued")
			WriteJSON(w, http.StatusServiceUnavailable, ApiError{Error: "Service unavailable"})
			return
		}

		err := <-errc
		if err == nil {
			return
		}

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			event := s.log.Warn()
			if httpErr.StatusCode >= http.StatusInternalServerError {
				event = s.log.Error()
			}
			event.Err(httpErr.ErrorLog).Int("status", httpErr.StatusCode).Str("path", r.URL.Path).Msg(httpErr.Message)
			WriteJSON(w, httpErr.StatusCode, ApiError{Error: httpErr.Message})
			return
		}

		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled handler error")
		WriteJSON(w, http.StatusInternalServerError, ApiError{Error: "Internal server error"})
	}

	middlewares := []middleware.Middleware{
		middleware.CORS(s.corsConfig),
		middleware.Logging(s.log),
	}

	return middleware.Chain(middleware.Chain(baseHandler, routeMiddleware...), middlewares...)
}
