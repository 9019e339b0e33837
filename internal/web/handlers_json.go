package web

import (
	"encoding/json"
	"net/http"

	"github.com/diegodinero/orderpanel/internal/usecase"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.panel.Status(r.Context()))
}

type clickRequest struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	ChartPrice float64 `json:"chart_price"`
}

type clickResponse struct {
	Action usecase.Action `json:"action"`
	Error  string         `json:"error,omitempty"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid click payload", http.StatusBadRequest)
		return
	}

	action, err := s.panel.HandleClick(usecase.ClickEvent{
		X:          req.X,
		Y:          req.Y,
		ChartPrice: req.ChartPrice,
		Button:     usecase.MouseLeft,
	})

	resp := clickResponse{Action: action}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, resp)
}

type settingsRequest struct {
	RiskAmount       float64 `json:"risk_amount"`
	RewardMultiplier float64 `json:"reward_multiplier"`
	XShift           int     `json:"x_shift"`
	YShift           int     `json:"y_shift"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid settings payload", http.StatusBadRequest)
		return
	}
	if req.RiskAmount <= 0 {
		http.Error(w, "risk_amount must be positive", http.StatusBadRequest)
		return
	}

	s.panel.UpdateSettings(req.RiskAmount, req.RewardMultiplier, req.XShift, req.YShift)
	s.writeJSON(w, s.panel.Status(r.Context()))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.tradeRepo.ListOrders(r.Context(), 100)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		http.Error(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, orders)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.tradeRepo.ListPositionHistory(r.Context(), 100)
	if err != nil {
		s.logger.Error("Failed to list position history", zap.Error(err))
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, history)
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	positions, err := s.gateway.GetPositions(r.Context(), account)
	if err != nil {
		s.logger.Error("Failed to list positions", zap.Error(err))
		http.Error(w, "Failed to list positions", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, positions)
}
