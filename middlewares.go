package agora

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhchabran/agora/metrics"
	"github.com/julienschmidt/httprouter"
)

// middleware is a convenient type for declaring middlewares.
type middleware func(httprouter.Handle) httprouter.Handle

// contextKey is a type for storing values in each request context.
type contextKey string

// String returns a stringified context key.
func (k contextKey) String() string { return string(k) }

// ctxKeyClientID is the context key for storing the current client id in a context
var ctxKeyClientID = contextKey("client_id")

// ctxKeyStore is the context key for storing the store of the current client in a context
var ctxKeyStore = contextKey("store")

// ctxClientID is a helper func to fetch the client id from the context.
func ctxClientID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyClientID).(string)
	return v
}

// ctxStore is a helper func to fetch the store of the current client from the context.
func ctxStore(ctx context.Context) *Store {
	v := ctx.Value(ctxKeyStore)
	if v != nil {
		return v.(*Store)
	}
	return nil
}

// withMiddlewares is a helper function to declare routes with middlewares more easily.
// The caller declares its routes in the body on the f function, calling f's argument on its
// httprouter.Handle to wrap them.
func withMiddlewares(f func(middleware), middlewares ...middleware) {
	wrapper := func(handle httprouter.Handle) httprouter.Handle {
		h := handle
		for i := len(middlewares) - 1; i >= 0; i-- {
			m := middlewares[i]
			h = m(h)
		}
		return h
	}

	f(wrapper)
}

// ClientNamespace is the key prefix under which the state of a client lives.
func ClientNamespace(clientID string) string {
	return "client:" + clientID + ":"
}

// loadClientMiddleware identifies the client through its session cookie, issuing a new
// client id on first visit, and stores a Store scoped to that client in the request context.
func (s *Server) loadClientMiddleware() middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
			// a cookie that fails to decode, signed with a rotated secret for example,
			// still yields a fresh session.
			session, err := s.sessionStore.Get(r, sessionKey)
			if err != nil {
				s.Logger.Debug().Err(err).Msg("Discarding invalid session")
			}

			clientID, _ := session.Values["client_id"].(string)
			if clientID == "" {
				clientID = uuid.NewString()
				session.Values["client_id"] = clientID
				if err := session.Save(r, w); err != nil {
					s.Logger.Error().Err(err).Msg("Failed to save session")
					http.Error(w, "Failed to save session", http.StatusInternalServerError)
					return
				}
				s.Logger.Debug().Str("client_id", clientID).Msg("New client")
			}

			logger := s.Logger.With().Str("client_id", clientID).Logger()
			store := NewStore(Namespace(s.backend, ClientNamespace(clientID)), logger)
			store.SetCurrentUser(s.config.CurrentUser)

			ctx := context.WithValue(r.Context(), ctxKeyClientID, clientID)
			ctx = context.WithValue(ctx, ctxKeyStore, store)
			next(w, r.WithContext(ctx), p)
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// routeLabel turns a request path into a low cardinality label, replacing numeric
// segments with ":id".
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// logRequestMiddleware logs every request and records its metrics.
func (s *Server) logRequestMiddleware() middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		return httprouter.Handle(func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next(rec, r, p)

			elapsed := time.Since(start)
			route := routeLabel(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

			s.Logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("elapsed", elapsed).
				Msg("Request")
		})
	}
}
