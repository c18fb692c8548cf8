package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dutch/internal/game"
	"dutch/internal/model"
)

type Handler struct {
	Manager   *game.Manager
	Hub       *Hub
	StaticDir string

	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler wires the HTTP surface. An empty allowedOrigins accepts any
// origin.
func NewHandler(m *game.Manager, hub *Hub, allowedOrigins []string, staticDir string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{Manager: m, Hub: hub, StaticDir: staticDir, log: log}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/api/rooms", h.ListRooms)
	r.Get("/api/rooms/{code}", h.CheckRoom)
	r.Get("/api/rooms/{code}/stats", h.RoomStats)
	r.Get("/ws", h.HandleGameWS)
	r.Get("/lobby_ws", h.HandleLobbyWS)
	if h.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.StaticDir)))
	}
	return r
}

func (h *Handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Manager.Rooms())
}

func (h *Handler) CheckRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	writeJSON(w, http.StatusOK, map[string]bool{"exists": h.Manager.Exists(code)})
}

func (h *Handler) RoomStats(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	stats, err := h.Manager.Stats(r.Context(), code)
	if errors.Is(err, game.ErrRoomNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	if err != nil {
		h.log.Error("room stats", zap.String("room", code), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) HandleLobbyWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient("lobby-"+uuid.NewString(), ws, h.log)
	go c.writePump()
	h.Hub.joinLobby(c)
	defer h.Hub.leaveLobby(c)

	c.writeJSON(model.Message{Type: model.EventRoomList, Payload: h.Manager.Rooms()})

	ws.SetReadLimit(readLimit)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Handler) HandleGameWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s := &session{playerID: uuid.NewString()}
	c := newClient(s.playerID, ws, h.log)
	h.Hub.register(c)
	go c.writePump()
	log := h.log.With(zap.String("player", s.playerID))
	log.Info("connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		h.Manager.Disconnect(s.playerID, s.roomCode)
		h.Hub.unregister(c)
		log.Info("disconnected", zap.String("room", s.roomCode))
	}()

	c.writeJSON(model.Message{Type: model.EventIdentity, Payload: model.IdentityPayload{PlayerID: s.playerID}})

	ws.SetReadLimit(readLimit)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("read failed", zap.Error(err))
			}
			break
		}
		var action model.Action
		if err := json.Unmarshal(data, &action); err != nil {
			c.writeJSON(errorMessage(game.ErrMalformed))
			continue
		}
		if err := h.dispatch(c, s, action); err != nil {
			c.writeJSON(errorMessage(err))
		}
	}
}

// errorMessage turns a rejection into the error event sent to the actor only.
func errorMessage(err error) model.Message {
	var ge *game.Error
	if !errors.As(err, &ge) {
		ge = &game.Error{Kind: game.KindValidation, Code: "INTERNAL", Message: err.Error()}
	}
	return model.Message{Type: model.EventError, Payload: model.ErrorPayload{
		Kind: string(ge.Kind), Code: ge.Code, Message: ge.Message,
	}}
}
