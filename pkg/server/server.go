package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nikolaydubina/fpdecimal"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openvenue/matchd/pkg/core"
	"github.com/openvenue/matchd/pkg/logging"
	"github.com/openvenue/matchd/pkg/messaging"
	"github.com/openvenue/matchd/pkg/otel"
)

// Server exposes one order book over an HTTP JSON API with websocket
// streams for executed trades and book snapshots.
type Server struct {
	book     *core.OrderBook
	sender   messaging.TradeSender
	tradeHub *hub[messaging.TradeMessage]
	bookHub  *hub[BookView]
	upgrader websocket.Upgrader
}

// OrderRequest is the submission payload. Price is ignored for MARKET
// orders. Decimal fields are strings.
type OrderRequest struct {
	ID       string `json:"id"`
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// ModifyRequest carries replacement parameters for a resting order
type ModifyRequest struct {
	Side     string `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// CancelBulkRequest lists order ids to cancel
type CancelBulkRequest struct {
	IDs []string `json:"ids"`
}

// TradesResponse reports the executions caused by one submission
type TradesResponse struct {
	Trades core.Trades `json:"trades"`
	Size   int         `json:"size"`
}

// LevelView is one price level in a snapshot
type LevelView struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// BookView is a full level snapshot of both sides
type BookView struct {
	Bids []LevelView `json:"bids"`
	Asks []LevelView `json:"asks"`
	Size int         `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a Server around an order book. The sender may be
// nil when no trade feed is configured.
func NewServer(book *core.OrderBook, sender messaging.TradeSender) *Server {
	return &Server{
		book:     book,
		sender:   sender,
		tradeHub: newHub[messaging.TradeMessage](),
		bookHub:  newHub[BookView](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Routes returns the handler tree with request logging attached
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", s.handleSubmit)
	mux.HandleFunc("DELETE /orders/{id}", s.handleCancel)
	mux.HandleFunc("PUT /orders/{id}", s.handleModify)
	mux.HandleFunc("POST /orders/cancel", s.handleCancelBulk)
	mux.HandleFunc("GET /book", s.handleBook)
	mux.HandleFunc("GET /ws/trades", s.handleTradeStream)
	mux.HandleFunc("GET /ws/book", s.handleBookStream)
	return logging.Middleware(mux)
}

func parseSide(s string) (core.Side, error) {
	switch s {
	case "BUY":
		return core.Buy, nil
	case "SELL":
		return core.Sell, nil
	default:
		return 0, errors.New("side must be BUY or SELL")
	}
}

func buildOrder(req OrderRequest) (*core.Order, error) {
	side, err := parseSide(req.Side)
	if err != nil {
		return nil, err
	}

	quantity, err := fpdecimal.FromString(req.Quantity)
	if err != nil {
		return nil, errors.New("quantity must be a decimal string")
	}

	orderType := core.OrderType(req.Type)
	if orderType == core.Market {
		return core.NewMarketOrder(req.ID, side, quantity)
	}

	price, err := fpdecimal.FromString(req.Price)
	if err != nil {
		return nil, errors.New("price must be a decimal string")
	}

	return core.NewLimitOrder(req.ID, side, quantity, price, orderType)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx, span := otel.StartOrderSpan(r.Context(), otel.SpanSubmitOrder,
		attribute.String(otel.AttributeOrderID, req.ID),
		attribute.String(otel.AttributeOrderSide, req.Side),
		attribute.String(otel.AttributeOrderType, req.Type),
		attribute.String(otel.AttributeOrderQuantity, req.Quantity),
		attribute.String(otel.AttributeOrderPrice, req.Price),
	)
	defer span.End()

	order, err := buildOrder(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	metrics := otel.GetOrderMetrics()
	metrics.RecordSubmission(ctx, req.Type)

	trades := s.book.Add(order)
	if len(trades) == 0 {
		metrics.RecordRejection(ctx, req.Type)
	}
	metrics.RecordTrades(ctx, int64(len(trades)))
	size := s.book.Size()
	otel.AddAttributes(span,
		attribute.Int(otel.AttributeTradeCount, len(trades)),
		attribute.Int(otel.AttributeBookSize, size),
	)

	s.publish(ctx, trades)

	logger.Debug().
		Str("order_id", req.ID).
		Int("trades", len(trades)).
		Msg("order submitted")

	writeJSON(w, http.StatusOK, TradesResponse{Trades: trades, Size: size})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	_, span := otel.StartOrderSpan(r.Context(), otel.SpanCancelOrder,
		attribute.String(otel.AttributeOrderID, orderID),
	)
	defer span.End()

	s.book.Cancel(orderID)
	s.broadcastBook()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelBulk(w http.ResponseWriter, r *http.Request) {
	var req CancelBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	s.book.CancelBulk(req.IDs)
	s.broadcastBook()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	price, err := fpdecimal.FromString(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "price must be a decimal string"})
		return
	}
	quantity, err := fpdecimal.FromString(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "quantity must be a decimal string"})
		return
	}

	ctx, span := otel.StartOrderSpan(r.Context(), otel.SpanModifyOrder,
		attribute.String(otel.AttributeOrderID, orderID),
	)
	defer span.End()

	trades := s.book.Modify(orderID, side, price, quantity)
	s.publish(ctx, trades)

	writeJSON(w, http.StatusOK, TradesResponse{Trades: trades, Size: s.book.Size()})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bookView())
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	streamLoop(conn, s.tradeHub)
}

func (s *Server) handleBookStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	streamLoop(conn, s.bookHub)
}

// streamLoop forwards hub broadcasts to one websocket client until the
// client goes away.
func streamLoop[T any](conn *websocket.Conn, h *hub[T]) {
	sub := h.Subscribe(64)
	defer h.Unsubscribe(sub)
	defer conn.Close()

	// Reader goroutine detects client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case value, ok := <-sub.C():
			if !ok {
				return
			}
			if err := conn.WriteJSON(value); err != nil {
				return
			}
		}
	}
}

// publish fans executed trades out to the feed sender and stream
// subscribers, then refreshes book snapshots.
func (s *Server) publish(ctx context.Context, trades core.Trades) {
	if len(trades) > 0 {
		_, span := otel.StartOrderSpan(ctx, otel.SpanPublishFeed,
			attribute.Int(otel.AttributeTradeCount, len(trades)),
		)
		defer span.End()

		messages := messaging.FromTrades(trades, time.Now().UnixMilli())
		if s.sender != nil {
			if err := s.sender.SendTrades(messages); err != nil {
				log.Error().Err(err).Msg("failed to publish trades")
			}
		}
		for _, msg := range messages {
			s.tradeHub.Broadcast(msg)
		}
	}
	s.broadcastBook()
}

func (s *Server) broadcastBook() {
	s.bookHub.Broadcast(s.bookView())
}

func (s *Server) bookView() BookView {
	bids, asks := s.book.Levels()
	return BookView{
		Bids: toLevelViews(bids),
		Asks: toLevelViews(asks),
		Size: s.book.Size(),
	}
}

func toLevelViews(levels []core.Level) []LevelView {
	views := make([]LevelView, 0, len(levels))
	for _, level := range levels {
		views = append(views, LevelView{
			Price:    level.Price.String(),
			Quantity: level.Quantity.String(),
		})
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
