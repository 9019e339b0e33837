package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/diegodinero/orderpanel/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// BrokerAdapter implements domain.Gateway against the execution venue's REST
// API, with a websocket stream for quotes and execution notifications.
type BrokerAdapter struct {
	apiKey    string
	apiSecret string
	baseURL   string
	wsURL     string
	client    *http.Client
	logger    *zap.Logger

	wsConn *websocket.Conn
	// wsDone belongs to the current connection's read loop and is closed
	// exactly once, when that loop exits. A reconnect gets a fresh channel.
	wsDone          chan struct{}
	quoteCallbacks  []func(symbol string, bid, ask float64)
	fillCallbacks   []func(domain.FillEvent)
	cancelCallbacks []func(domain.CancelEvent)
	mu              sync.Mutex
}

func NewBrokerAdapter(apiKey, apiSecret, baseURL, wsURL string, logger *zap.Logger) *BrokerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrokerAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		wsURL:     wsURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

// --- REST API ---

func (b *BrokerAdapter) sign(params string, timestamp int64, recvWindow int) string {
	toSign := fmt.Sprintf("%d%s%d%s", timestamp, b.apiKey, recvWindow, params)
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	h.Write([]byte(toSign))
	return hex.EncodeToString(h.Sum(nil))
}

func (b *BrokerAdapter) sendRequest(ctx context.Context, method, path string, payload map[string]interface{}) ([]byte, error) {
	timestamp := time.Now().UnixMilli()
	recvWindow := 5000

	var body []byte
	var paramsStr string

	if payload != nil {
		jsonBody, _ := json.Marshal(payload)
		body = jsonBody
		paramsStr = string(jsonBody)
	} else if method == "GET" {
		if idx := strings.Index(path, "?"); idx != -1 {
			paramsStr = path[idx+1:]
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	signature := b.sign(paramsStr, timestamp, recvWindow)

	req.Header.Set("X-API-KEY", b.apiKey)
	req.Header.Set("X-API-TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-API-SIGN", signature)
	req.Header.Set("X-API-RECV-WINDOW", strconv.Itoa(recvWindow))
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(respBody))
	}

	return respBody, nil
}

func (b *BrokerAdapter) PlaceOrder(ctx context.Context, req *domain.OrderRequest) (*domain.OrderResult, error) {
	payload := map[string]interface{}{
		"symbol":          req.Symbol,
		"account":         req.Account,
		"kind":            string(req.Kind),
		"side":            string(req.Side),
		"quantity":        fmt.Sprintf("%f", req.Quantity),
		"stop_loss_ticks": req.StopLoss.OffsetTicks,
		"time_in_force":   string(req.TimeInForce),
	}
	if req.Price.Set {
		payload["price"] = fmt.Sprintf("%f", req.Price.Value)
	}
	if req.TriggerPrice.Set {
		payload["trigger_price"] = fmt.Sprintf("%f", req.TriggerPrice.Value)
	}
	if req.TakeProfit != nil {
		payload["take_profit_ticks"] = req.TakeProfit.OffsetTicks
	}

	resp, err := b.sendRequest(ctx, "POST", "/v1/orders", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int    `json:"ret_code"`
		RetMsg  string `json:"ret_msg"`
		Result  struct {
			OrderID string `json:"order_id"`
			Status  string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	if result.RetCode != 0 {
		return nil, fmt.Errorf("order rejected: %s", result.RetMsg)
	}

	return &domain.OrderResult{
		OrderID:     result.Result.OrderID,
		Status:      result.Result.Status,
		SubmittedAt: time.Now(),
	}, nil
}

func (b *BrokerAdapter) FlattenAll(ctx context.Context, account string) error {
	payload := map[string]interface{}{"account": account}
	return b.execSimple(ctx, "/v1/positions/flatten-all", payload)
}

func (b *BrokerAdapter) FlattenPosition(ctx context.Context, positionID string) error {
	payload := map[string]interface{}{"position_id": positionID}
	return b.execSimple(ctx, "/v1/positions/flatten", payload)
}

func (b *BrokerAdapter) CancelPendingOrders(ctx context.Context, account, symbol string, kind domain.OrderKind) error {
	payload := map[string]interface{}{
		"account": account,
		"symbol":  symbol,
		"kind":    string(kind),
	}
	return b.execSimple(ctx, "/v1/orders/cancel", payload)
}

func (b *BrokerAdapter) AmendStopToBreakEven(ctx context.Context, account, symbol string) error {
	payload := map[string]interface{}{
		"account": account,
		"symbol":  symbol,
	}
	return b.execSimple(ctx, "/v1/positions/break-even", payload)
}

func (b *BrokerAdapter) PartialClose(ctx context.Context, account, symbol string, fraction float64) error {
	payload := map[string]interface{}{
		"account":  account,
		"symbol":   symbol,
		"fraction": fraction,
	}
	return b.execSimple(ctx, "/v1/positions/partial-close", payload)
}

func (b *BrokerAdapter) execSimple(ctx context.Context, path string, payload map[string]interface{}) error {
	resp, err := b.sendRequest(ctx, "POST", path, payload)
	if err != nil {
		return err
	}
	var result struct {
		RetCode int    `json:"ret_code"`
		RetMsg  string `json:"ret_msg"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	if result.RetCode != 0 {
		return fmt.Errorf("request failed: %s", result.RetMsg)
	}
	return nil
}

type positionPayload struct {
	PositionID    string `json:"position_id"`
	Account       string `json:"account"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	EntryPrice    string `json:"entry_price"`
	UnrealizedPnL string `json:"unrealized_pnl"`
}

func (p positionPayload) toDomain() *domain.Position {
	qty, _ := strconv.ParseFloat(p.Quantity, 64)
	entry, _ := strconv.ParseFloat(p.EntryPrice, 64)
	pnl, _ := strconv.ParseFloat(p.UnrealizedPnL, 64)
	return &domain.Position{
		PositionID:    p.PositionID,
		Account:       p.Account,
		Symbol:        p.Symbol,
		Side:          domain.Side(p.Side),
		Quantity:      qty,
		EntryPrice:    entry,
		UnrealizedPnL: pnl,
	}
}

func (b *BrokerAdapter) GetPosition(ctx context.Context, account, symbol string) (*domain.Position, error) {
	path := "/v1/positions?account=" + account + "&symbol=" + symbol
	resp, err := b.sendRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int `json:"ret_code"`
		Result  struct {
			List []positionPayload `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	if len(result.Result.List) == 0 {
		return nil, nil
	}
	return result.Result.List[0].toDomain(), nil
}

func (b *BrokerAdapter) GetPositions(ctx context.Context, account string) ([]*domain.Position, error) {
	path := "/v1/positions?account=" + account
	resp, err := b.sendRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int `json:"ret_code"`
		Result  struct {
			List []positionPayload `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}

	positions := make([]*domain.Position, 0, len(result.Result.List))
	for _, p := range result.Result.List {
		positions = append(positions, p.toDomain())
	}
	return positions, nil
}

// --- WebSocket ---

func (b *BrokerAdapter) OnQuote(callback func(symbol string, bid, ask float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quoteCallbacks = append(b.quoteCallbacks, callback)
}

func (b *BrokerAdapter) OnFill(callback func(domain.FillEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fillCallbacks = append(b.fillCallbacks, callback)
}

func (b *BrokerAdapter) OnCancel(callback func(domain.CancelEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelCallbacks = append(b.cancelCallbacks, callback)
}

func (b *BrokerAdapter) Subscribe(symbols []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.wsConn == nil {
		c, _, err := websocket.DefaultDialer.Dial(b.wsURL, nil)
		if err != nil {
			return err
		}
		done := make(chan struct{})
		b.wsConn = c
		b.wsDone = done
		go b.readLoop(c, done)
	}
	return b.subscribe(symbols)
}

func (b *BrokerAdapter) subscribe(symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(symbols)+1)
	for _, s := range symbols {
		args = append(args, "quote."+s)
	}
	args = append(args, "execution")

	subMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": args,
	}
	return b.wsConn.WriteJSON(subMsg)
}

func (b *BrokerAdapter) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		conn.Close()
		b.mu.Lock()
		if b.wsConn == conn {
			b.wsConn = nil
		}
		b.mu.Unlock()
		close(done)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			b.logger.Error("ws read error", zap.Error(err))
			return
		}

		var event struct {
			Topic string          `json:"topic"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &event); err != nil {
			b.logger.Warn("ws unmarshal error", zap.Error(err))
			continue
		}

		switch {
		case strings.HasPrefix(event.Topic, "quote."):
			b.handleQuote(strings.TrimPrefix(event.Topic, "quote."), event.Data)
		case event.Topic == "execution":
			b.handleExecution(event.Data)
		}
	}
}

func (b *BrokerAdapter) handleQuote(symbol string, data json.RawMessage) {
	var quote struct {
		Bid string `json:"bid"`
		Ask string `json:"ask"`
	}
	if err := json.Unmarshal(data, &quote); err != nil {
		return
	}
	bid, err1 := strconv.ParseFloat(quote.Bid, 64)
	ask, err2 := strconv.ParseFloat(quote.Ask, 64)
	if err1 != nil || err2 != nil {
		return
	}

	b.mu.Lock()
	callbacks := make([]func(string, float64, float64), len(b.quoteCallbacks))
	copy(callbacks, b.quoteCallbacks)
	b.mu.Unlock()

	for _, cb := range callbacks {
		cb(symbol, bid, ask)
	}
}

func (b *BrokerAdapter) handleExecution(data json.RawMessage) {
	var exec struct {
		Account    string `json:"account"`
		Symbol     string `json:"symbol"`
		PositionID string `json:"position_id"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(data, &exec); err != nil {
		return
	}

	status := domain.OrderStatus(exec.Status)
	switch status {
	case domain.OrderStatusFilled:
		ev := domain.FillEvent{
			Account:    exec.Account,
			Symbol:     exec.Symbol,
			PositionID: exec.PositionID,
			Status:     status,
		}
		b.mu.Lock()
		callbacks := make([]func(domain.FillEvent), len(b.fillCallbacks))
		copy(callbacks, b.fillCallbacks)
		b.mu.Unlock()
		for _, cb := range callbacks {
			cb(ev)
		}
	case domain.OrderStatusCancelled:
		ev := domain.CancelEvent{
			Account: exec.Account,
			Symbol:  exec.Symbol,
			Status:  status,
		}
		b.mu.Lock()
		callbacks := make([]func(domain.CancelEvent), len(b.cancelCallbacks))
		copy(callbacks, b.cancelCallbacks)
		b.mu.Unlock()
		for _, cb := range callbacks {
			cb(ev)
		}
	}
}

// GetSymbolMetrics fetches the instrument reference data used for sizing.
func (b *BrokerAdapter) GetSymbolMetrics(ctx context.Context, symbol string) (*domain.SymbolMetrics, error) {
	path := "/v1/instruments?symbol=" + symbol
	resp, err := b.sendRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		RetCode int `json:"ret_code"`
		Result  struct {
			List []struct {
				Symbol   string `json:"symbol"`
				Bid      string `json:"bid"`
				Ask      string `json:"ask"`
				TickSize string `json:"tick_size"`
				TickCost string `json:"tick_cost"`
				MinLot   string `json:"min_lot"`
				MaxLot   string `json:"max_lot"`
				LotStep  string `json:"lot_step"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	if len(result.Result.List) == 0 {
		return nil, fmt.Errorf("symbol not found: %s", symbol)
	}

	raw := result.Result.List[0]
	parse := func(s string) float64 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	return &domain.SymbolMetrics{
		Symbol:   raw.Symbol,
		Bid:      parse(raw.Bid),
		Ask:      parse(raw.Ask),
		TickSize: parse(raw.TickSize),
		TickCost: parse(raw.TickCost),
		MinLot:   parse(raw.MinLot),
		MaxLot:   parse(raw.MaxLot),
		LotStep:  parse(raw.LotStep),
	}, nil
}
