package ginserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"villarent/internal/app/apperr"
	"villarent/internal/app/dto"
	quoteapp "villarent/internal/app/handlers/quote"
	"villarent/internal/app/queries"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 30 * time.Second
	liveReadLimit  = 4096
)

type QuoteHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
	// CheckOrigin overrides the websocket origin check; nil accepts any origin.
	CheckOrigin func(r *http.Request) bool
}

type quoteRequest struct {
	VillaID  string `json:"villa_id"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Guests   int    `json:"guests"`
}

func (r quoteRequest) query() (quoteapp.GetQuoteQuery, bool) {
	checkIn, ok := parseDay(r.CheckIn)
	if !ok {
		return quoteapp.GetQuoteQuery{}, false
	}
	checkOut, ok := parseDay(r.CheckOut)
	if !ok {
		return quoteapp.GetQuoteQuery{}, false
	}
	return quoteapp.GetQuoteQuery{
		VillaID:  r.VillaID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   r.Guests,
	}, true
}

func (h QuoteHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Format permintaan tidak valid")
		return
	}
	query, ok := req.query()
	if !ok {
		badRequest(c, "Format tanggal tidak valid")
		return
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// liveFrame is written for every request frame: either a quote or the same
// code and message the REST endpoint would return.
type liveFrame struct {
	Type  string     `json:"type"`
	Quote *dto.Quote `json:"quote,omitempty"`
	Code  string     `json:"code,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Live upgrades to a websocket that prices each request frame as the guest
// edits dates. villa_id from the query string is the default for frames
// that omit it.
func (h QuoteHandler) Live(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("websocket upgrade failed", "error", err)
		}
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	s := &liveSession{conn: conn}
	defer s.close()
	go s.pingLoop(ctx)
	h.readLoop(ctx, s, c.Query("villa_id"))
}

func (h QuoteHandler) readLoop(ctx context.Context, s *liveSession, defaultVilla string) {
	s.conn.SetReadLimit(liveReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && h.Logger != nil {
				h.Logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		if err := s.write(h.answer(ctx, message, defaultVilla)); err != nil {
			return
		}
	}
}

func (h QuoteHandler) answer(ctx context.Context, message []byte, defaultVilla string) liveFrame {
	var req quoteRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return liveFrame{Type: "error", Code: string(apperr.KindValidation), Error: "Format permintaan tidak valid"}
	}
	if req.VillaID == "" {
		req.VillaID = defaultVilla
	}
	query, ok := req.query()
	if !ok {
		return liveFrame{Type: "error", Code: string(apperr.KindValidation), Error: "Format tanggal tidak valid"}
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, dto.Quote](ctx, h.Queries, query)
	if err != nil {
		kind := apperr.KindOf(err)
		if _, known := kindStatus[kind]; !known {
			kind = apperr.KindInternal
			if h.Logger != nil {
				h.Logger.Error("live quote failed", "error", err)
			}
		}
		return liveFrame{Type: "error", Code: string(kind), Error: errorMessage(kind, err)}
	}
	return liveFrame{Type: "quote", Quote: &result}
}

type liveSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *liveSession) write(frame liveFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return s.conn.WriteJSON(frame)
}

func (s *liveSession) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait))
			s.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *liveSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = s.conn.Close()
}

var _ QuoteHTTP = QuoteHandler{}
