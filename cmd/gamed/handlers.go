package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/merchant-quest/internal/feed"
	"github.com/rickgao/merchant-quest/internal/merchant"
	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/oracle"
	"github.com/rickgao/merchant-quest/internal/travel"
	"github.com/rickgao/merchant-quest/internal/watch"
	"github.com/rickgao/merchant-quest/internal/world"
)

// server bundles the handler dependencies.
type server struct {
	world   *world.World
	engine  *oracle.Engine
	stream  *feed.Stream
	watcher *watch.Watcher
	db      *pgxpool.Pool
	logger  *slog.Logger
}

// routes builds the HTTP surface: health, player operations, and the
// privileged admin operations. Operator access control is assumed to be
// enforced upstream (network policy or reverse proxy).
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /v1/prices", s.handlePrices)
	mux.HandleFunc("GET /v1/prices/{commodity}", s.handlePriceBreakdown)
	mux.HandleFunc("GET /v1/cities", s.handleCities)

	mux.HandleFunc("POST /v1/merchants", s.handleCreateMerchant)
	mux.HandleFunc("GET /v1/merchants/{id}", s.handleGetMerchant)
	mux.HandleFunc("GET /v1/merchants/{id}/inventory", s.handleInventory)
	mux.HandleFunc("GET /v1/merchants/{id}/achievements", s.handleAchievements)
	mux.HandleFunc("GET /v1/merchants/{id}/travel", s.handleTravelStatus)
	mux.HandleFunc("POST /v1/merchants/{id}/travel", s.handleTravel)
	mux.HandleFunc("POST /v1/merchants/{id}/travel/complete", s.handleCompleteTravel)
	mux.HandleFunc("POST /v1/merchants/{id}/buy", s.handleBuy)
	mux.HandleFunc("POST /v1/merchants/{id}/sell", s.handleSell)

	mux.HandleFunc("POST /admin/trends", s.handleTrends)
	mux.HandleFunc("POST /admin/scenario", s.handleScenario)
	mux.HandleFunc("POST /admin/event", s.handleEvent)
	mux.HandleFunc("POST /admin/fallback", s.handleFallback)
	mux.HandleFunc("POST /admin/amplifier", s.handleAmplifier)
	mux.HandleFunc("POST /admin/reference", s.handleReference)

	return mux
}

// merchantJSON is the wire view of a merchant.
type merchantJSON struct {
	ID         uuid.UUID `json:"id"`
	Owner      string    `json:"owner"`
	Name       string    `json:"name"`
	Level      int       `json:"level"`
	Experience int64     `json:"experience"`
	Gold       int64     `json:"gold"`
	City       int       `json:"city"`
	CityName   string    `json:"cityName"`
	Trades     int64     `json:"trades"`
	Profit     int64     `json:"profit"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toMerchantJSON(m model.Merchant) merchantJSON {
	return merchantJSON{
		ID:         m.ID,
		Owner:      m.Owner,
		Name:       m.Name,
		Level:      m.Level,
		Experience: m.Experience,
		Gold:       m.Gold,
		City:       int(m.City),
		CityName:   m.City.String(),
		Trades:     m.Trades,
		Profit:     m.Profit,
		CreatedAt:  m.CreatedAt,
	}
}

// travelStatusJSON is the wire view of a travel status.
type travelStatusJSON struct {
	MerchantID       uuid.UUID `json:"merchantId"`
	IsTraveling      bool      `json:"isTraveling"`
	City             int       `json:"city"`
	FromCity         int       `json:"fromCity"`
	ToCity           int       `json:"toCity"`
	TimeRemainingSec int64     `json:"timeRemainingSec"`
}

func toTravelStatusJSON(st model.TravelStatus) travelStatusJSON {
	return travelStatusJSON{
		MerchantID:       st.MerchantID,
		IsTraveling:      st.IsTraveling,
		City:             int(st.City),
		FromCity:         int(st.FromCity),
		ToCity:           int(st.ToCity),
		TimeRemainingSec: int64(st.TimeRemaining.Round(time.Second).Seconds()),
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}
	} else {
		health.Components["postgres"] = "disabled"
	}

	if s.stream != nil {
		if s.stream.IsConnected() {
			health.Components["feed"] = "connected"
		} else {
			health.Components["feed"] = "disconnected"
			if health.Status == "healthy" {
				health.Status = "degraded"
			}
		}
	}

	health.Components["oracle"] = map[string]any{
		"usingFallback": s.engine.UsingFallback(),
	}
	if s.watcher != nil {
		stats := s.watcher.Stats()
		health.Components["watcher"] = map[string]any{
			"cycles": stats.Cycles,
			"heals":  stats.Heals,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

func (s *server) handlePrices(w http.ResponseWriter, r *http.Request) {
	prices := s.engine.GetAllPrices()

	out := make([]map[string]any, 0, len(prices))
	for i, price := range prices {
		out = append(out, map[string]any{
			"commodity": i,
			"name":      model.Commodity(i).String(),
			"price":     price,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"prices":        out,
		"usingFallback": s.engine.UsingFallback(),
	})
}

func (s *server) handlePriceBreakdown(w http.ResponseWriter, r *http.Request) {
	c, ok := s.parseCommodity(w, r.PathValue("commodity"))
	if !ok {
		return
	}

	bd, err := s.engine.GetPriceBreakdown(c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"commodity":       int(bd.Commodity),
		"name":            bd.Commodity.String(),
		"finalPrice":      bd.FinalPrice,
		"basePrice":       bd.BasePrice,
		"trendMultiplier": bd.TrendMultiplier,
		"feedDelta":       bd.FeedDelta,
		"usingFallback":   bd.UsingFallback,
	})
}

func (s *server) handleCities(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(world.Cities))
	for _, city := range world.Cities {
		commodities := make([]map[string]any, 0, model.CommodityCount)
		for c := 0; c < model.CommodityCount; c++ {
			buy, sell, err := s.world.Quote(city.ID, model.Commodity(c))
			if err != nil {
				s.writeError(w, err)
				return
			}
			commodities = append(commodities, map[string]any{
				"commodity": c,
				"name":      model.Commodity(c).String(),
				"buy":       buy,
				"sell":      sell,
			})
		}
		out = append(out, map[string]any{
			"id":          int(city.ID),
			"name":        city.Name,
			"description": city.Description,
			"specialty":   city.Specialty,
			"travelCost":  city.TravelCost,
			"market":      commodities,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"cities": out})
}

func (s *server) handleCreateMerchant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner string `json:"owner"`
		Name  string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	m, err := s.world.CreateMerchant(req.Owner, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMerchantJSON(m))
}

func (s *server) handleGetMerchant(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	m, err := s.world.Merchant(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMerchantJSON(m))
}

func (s *server) handleInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	inv, err := s.world.Inventory(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(inv))
	for _, line := range inv {
		out = append(out, map[string]any{
			"commodity": int(line.Commodity),
			"name":      line.Commodity.String(),
			"quantity":  line.Quantity,
			"avgPrice":  line.AvgPrice,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"inventory": out})
}

func (s *server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	achievements, err := s.world.Achievements(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if achievements == nil {
		achievements = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"achievements": achievements})
}

func (s *server) handleTravelStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	st, err := s.world.TravelStatus(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTravelStatusJSON(st))
}

func (s *server) handleTravel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	var req struct {
		Owner string `json:"owner"`
		To    int    `json:"to"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	st, err := s.world.Travel(req.Owner, id, model.CityID(req.To))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTravelStatusJSON(st))
}

func (s *server) handleCompleteTravel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	var req struct {
		Owner string `json:"owner"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	city, err := s.world.CompleteTravel(req.Owner, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"city":     int(city),
		"cityName": city.String(),
	})
}

func (s *server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, model.Buy)
}

func (s *server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, model.Sell)
}

func (s *server) handleTrade(w http.ResponseWriter, r *http.Request, side model.TradeSide) {
	id, ok := s.parseMerchantID(w, r)
	if !ok {
		return
	}

	var req struct {
		Owner     string `json:"owner"`
		Commodity int    `json:"commodity"`
		Quantity  int64  `json:"quantity"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	c := model.Commodity(req.Commodity)
	var (
		m      model.Merchant
		profit int64
		err    error
	)
	if side == model.Buy {
		m, err = s.world.Buy(req.Owner, id, c, req.Quantity)
	} else {
		m, profit, err = s.world.Sell(req.Owner, id, c, req.Quantity)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{"merchant": toMerchantJSON(m)}
	if side == model.Sell {
		resp["profit"] = profit
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleTrends(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Trends []int64 `json:"trends"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Trends) != model.CommodityCount {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "trends must have exactly 5 elements",
		})
		return
	}

	var trends [model.CommodityCount]int64
	copy(trends[:], req.Trends)

	if err := s.engine.UpdateTrends(trends); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (s *server) handleScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	scenario, ok := oracle.Scenarios[req.Name]
	if !ok {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "unknown scenario",
			"available": oracle.ScenarioNames(),
		})
		return
	}

	trends := scenario()
	if err := s.engine.UpdateTrends(trends); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "applied",
		"scenario": req.Name,
		"trends":   trends,
	})
}

func (s *server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset      string  `json:"preset"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Commodities []int   `json:"commodities"`
		Modifiers   []int64 `json:"modifiers"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	name := req.Name
	description := req.Description
	commodities := make([]model.Commodity, len(req.Commodities))
	for i, c := range req.Commodities {
		commodities[i] = model.Commodity(c)
	}
	modifiers := req.Modifiers

	if req.Preset != "" {
		event, ok := oracle.Events[req.Preset]
		if !ok {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":     "unknown event",
				"available": oracle.EventNames(),
			})
			return
		}
		name = event.Name
		description = event.Description
		commodities = event.Commodities
		modifiers = event.Modifiers
	}

	if err := s.engine.TriggerEvent(name, description, commodities, modifiers); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "triggered",
		"event":  name,
	})
}

func (s *server) handleFallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	s.engine.SetFallbackMode(req.Enabled)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "applied",
		"usingFallback": s.engine.UsingFallback(),
	})
}

func (s *server) handleAmplifier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BasisPoints int64 `json:"basisPoints"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.SetVolatilityAmplifier(req.BasisPoints); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

func (s *server) handleReference(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := s.engine.UpdateReferencePrices(ctx); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "snapshotted"})
}

// decode reads a JSON request body, answering 400 on malformed input.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "malformed request body",
		})
		return false
	}
	return true
}

func (s *server) parseMerchantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "malformed merchant id",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (s *server) parseCommodity(w http.ResponseWriter, raw string) (model.Commodity, bool) {
	c, err := strconv.Atoi(raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "malformed commodity id",
		})
		return 0, false
	}
	return model.Commodity(c), true
}

func (s *server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: validation 400,
// authorization 403, unknown entities 404, retryable preconditions 409,
// external feed trouble 502.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, oracle.ErrInvalidCommodity),
		errors.Is(err, oracle.ErrTrendOutOfRange),
		errors.Is(err, oracle.ErrArityMismatch),
		errors.Is(err, oracle.ErrAmplifierOutOfRange),
		errors.Is(err, travel.ErrInvalidCity),
		errors.Is(err, travel.ErrNoOpTravel),
		errors.Is(err, merchant.ErrInvalidQuantity),
		errors.Is(err, merchant.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.Is(err, merchant.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, merchant.ErrUnknownMerchant),
		errors.Is(err, travel.ErrUnknownMerchant):
		status = http.StatusNotFound
	case errors.Is(err, travel.ErrStillTraveling),
		errors.Is(err, travel.ErrNotTraveling),
		errors.Is(err, merchant.ErrInsufficientFunds),
		errors.Is(err, merchant.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, oracle.ErrFeedUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
