package txapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"txlive/clients/gateway"
	"txlive/config"
	"txlive/internal/types"
)

// recordingExecutor answers every request with a fixed response.
type recordingExecutor struct {
	got  []gateway.Descriptor
	resp gateway.Response
}

func (r *recordingExecutor) Execute(_ context.Context, d gateway.Descriptor) gateway.Response {
	r.got = append(r.got, d)
	return r.resp
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) *gateway.Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.Backend.APIBase = srv.URL
	cfg.Gateway.SimulatedLatency = time.Millisecond
	return gateway.NewGateway(nil, cfg)
}

func TestActiveAlerts_NormalizesAlertsKey(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/get_active_alerts" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"alerts":[{"id":9,"symbol":"NVDA","alert_type":"Doji","confidence_pct":81.5,"price":480}]}`))
	})
	c := NewClient(nil, g)

	res := c.ActiveAlerts(context.Background())
	if res.Synthetic {
		t.Fatal("expected live result")
	}
	if len(res.Data) != 1 || res.Data[0].Symbol != "NVDA" || res.Data[0].ID != 9 {
		t.Errorf("unexpected alerts: %+v", res.Data)
	}
}

func TestCandles_NormalizesNestedCandles(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "AAPL" || q.Get("period") != "1d" || q.Get("interval") != "1h" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Write([]byte(`{"success":true,"data":{"symbol":"AAPL","candles":[{"timestamp":"t1","close":1},{"timestamp":"t2","close":2},{"timestamp":"t3","close":3}]}}`))
	})
	c := NewClient(nil, g)

	res := c.Candles(context.Background(), "AAPL", "", "")
	if res.Synthetic {
		t.Fatal("expected live result")
	}
	if len(res.Data) != 3 || res.Data[2].Close != 3 {
		t.Errorf("unexpected candles: %+v", res.Data)
	}
}

func TestFetch_FallbackOnFailure(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := NewClient(nil, g)

	res := c.ScanStatus(context.Background())
	if !res.Synthetic {
		t.Fatal("expected synthetic result")
	}
	if !res.Data.Active || res.Data.SymbolsScanned != 150 {
		t.Errorf("unexpected scan status: %+v", res.Data)
	}
}

func TestFetch_UnexpectedShapeUsesFallback(t *testing.T) {
	exec := &recordingExecutor{resp: gateway.Response{
		Success: true,
		Data:    json.RawMessage(`"not an object"`),
	}}
	c := NewClient(nil, exec)

	res := c.AnalyticsSummary(context.Background())
	if !res.Synthetic {
		t.Error("expected shape mismatch to fall back to synthetic data")
	}
	if res.Data.TotalSymbols != 150 {
		t.Errorf("unexpected summary: %+v", res.Data)
	}
}

func TestDescriptors(t *testing.T) {
	exec := &recordingExecutor{resp: gateway.Response{Success: true, Data: json.RawMessage(`null`)}}
	c := NewClient(nil, exec)
	ctx := context.Background()

	c.MarketScan(ctx, "volume")
	c.MarketData(ctx, "BRK/B")
	c.StartScan(ctx, types.ScanConfig{Interval: 30})
	c.DismissAlert(ctx, 42)
	c.ExecuteTrade(ctx, types.TradeRequest{Symbol: "AAPL", Side: "BUY", Quantity: 1})
	c.ExplainPattern(ctx, "Bullish Engulfing")
	c.ExplainAlert(ctx, types.AlertExplainRequest{AlertID: 7, Symbol: "AAPL"})
	c.HandleAlertResponse(ctx, 7, "dismiss")
	c.EnhanceConfidence(ctx, "AAPL", "Doji", 70)
	c.TwitterHealth(ctx)
	c.EntryExitSignals(ctx, "AAPL", "1d", "")
	c.GenerateSignals(ctx, types.SignalRequest{Symbols: []string{"AAPL"}, Timeframe: "1d"})
	c.PatternHeatmap(ctx, "TSLA")
	c.AIReasoning(ctx, types.ReasoningRequest{Symbol: "AAPL", PatternName: "Doji"})
	c.MLLearningStatus(ctx)
	c.ModelPerformance(ctx)
	c.PerformanceAttribution(ctx, "")
	c.PredictiveForecast(ctx, "")

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/market-scan"},
		{http.MethodGet, "/api/market/BRK%2FB"},
		{http.MethodPost, "/api/scan/start"},
		{http.MethodPost, "/api/alerts/dismiss/42"},
		{http.MethodPost, "/api/paper-trades"},
		{http.MethodGet, "/api/explain/pattern/Bullish%20Engulfing"},
		{http.MethodPost, "/api/explain/alert"},
		{http.MethodPost, "/api/handle_alert_response"},
		{http.MethodPost, "/api/sentiment/enhance-confidence"},
		{http.MethodGet, "/api/sentiment/twitter-health"},
		{http.MethodGet, "/api/signals/entry-exit"},
		{http.MethodPost, "/api/signals/entry-exit"},
		{http.MethodGet, "/api/patterns/heatmap"},
		{http.MethodPost, "/api/explain/reasoning"},
		{http.MethodGet, "/api/ml/learning-status"},
		{http.MethodGet, "/api/ml/model-performance"},
		{http.MethodGet, "/api/analytics/attribution"},
		{http.MethodGet, "/api/analytics/forecast"},
	}
	if len(exec.got) != len(tests) {
		t.Fatalf("unexpected descriptor count: %d", len(exec.got))
	}
	for i, tt := range tests {
		d := exec.got[i]
		method := d.Method
		if method == "" {
			method = http.MethodGet
		}
		if method != tt.method || d.Path != tt.path {
			t.Errorf("descriptor %d: got %s %s, want %s %s", i, method, d.Path, tt.method, tt.path)
		}
		if d.Fallback == nil {
			t.Errorf("descriptor %d: missing fallback", i)
		}
	}
	if exec.got[0].Query.Get("type") != "volume" {
		t.Errorf("unexpected market scan query: %v", exec.got[0].Query)
	}
	if q := exec.got[10].Query; q.Get("symbol") != "AAPL" || q.Get("timeframe") != "1d" || q.Has("type") {
		t.Errorf("unexpected signals query: %v", q)
	}
	if q := exec.got[16].Query; q.Get("period") != "30d" {
		t.Errorf("unexpected attribution query: %v", q)
	}
	if q := exec.got[17].Query; q.Get("period") != "7d" {
		t.Errorf("unexpected forecast query: %v", q)
	}
}

func TestExplainAlert_LiveAndFallback(t *testing.T) {
	var calls int
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body types.AlertExplainRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Symbol != "NVDA" {
			t.Errorf("unexpected body: %+v %v", body, err)
		}
		if calls == 1 {
			w.Write([]byte(`{"success":true,"data":{"explanation":"volume spike","confidence":91,"next_steps":["watch"]}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := NewClient(nil, g)
	req := types.AlertExplainRequest{AlertID: 3, AlertType: "Hammer", Symbol: "NVDA"}

	res := c.ExplainAlert(context.Background(), req)
	if res.Synthetic || res.Data.Explanation != "volume spike" || res.Data.Confidence != 91 {
		t.Errorf("unexpected live explanation: %+v", res)
	}

	res = c.ExplainAlert(context.Background(), req)
	if !res.Synthetic {
		t.Fatal("expected synthetic result")
	}
	if res.Data.Explanation != "Alert triggered for NVDA based on Hammer detection." || res.Data.Confidence != 75 {
		t.Errorf("unexpected fallback explanation: %+v", res.Data)
	}
}

func TestDemoMode_EveryCallIsSynthetic(t *testing.T) {
	cfg := config.Defaults()
	cfg.DemoMode = true
	cfg.Gateway.SimulatedLatency = 0
	c := NewClient(nil, gateway.NewGateway(nil, cfg))
	ctx := context.Background()

	if res := c.MarketScan(ctx, "trending"); !res.Synthetic || len(res.Data) != 5 {
		t.Errorf("unexpected market scan: %+v", res)
	}
	if res := c.ActiveAlerts(ctx); !res.Synthetic || len(res.Data) != 2 {
		t.Errorf("unexpected alerts: %+v", res)
	}
	if res := c.Sentiment(ctx, "TSLA"); !res.Synthetic || res.Data.Symbol != "TSLA" {
		t.Errorf("unexpected sentiment: %+v", res)
	}
	if res := c.ExecuteTrade(ctx, types.TradeRequest{Symbol: "MSFT", Side: "SELL", Quantity: 3}); res.Data.EntryPrice != 100 {
		t.Errorf("unexpected trade: %+v", res.Data)
	}
	if res := c.ProviderHealth(ctx); !res.Data["yfinance"].OK {
		t.Errorf("unexpected provider health: %+v", res.Data)
	}
	if res := c.PatternHeatmap(ctx, "AMD"); res.Data.Symbol != "AMD" || len(res.Data.Patterns) != 1 || res.Data.Patterns[0].MaxConfidence != 85 {
		t.Errorf("unexpected heatmap: %+v", res.Data)
	}
	if res := c.AIReasoning(ctx, types.ReasoningRequest{Symbol: "AAPL", PatternName: "Doji"}); res.Data.QualityBadge != "ELITE" || len(res.Data.Reasoning) != 4 {
		t.Errorf("unexpected reasoning: %+v", res.Data)
	}
	if res := c.MLLearningStatus(ctx); !res.Synthetic || !res.Data.IsLearning {
		t.Errorf("unexpected learning status: %+v", res)
	}
	if res := c.ModelPerformance(ctx); len(res.Data.Models) != 1 || res.Data.Models[0].Metrics.Accuracy != 87.3 {
		t.Errorf("unexpected model performance: %+v", res.Data)
	}
	if res := c.PerformanceAttribution(ctx, ""); res.Data.Period != "30d" || len(res.Data.Layers) != 4 {
		t.Errorf("unexpected attribution: %+v", res.Data)
	}
	if res := c.PredictiveForecast(ctx, "14d"); res.Data.Period != "14d" || len(res.Data.UpcomingSetups) != 1 {
		t.Errorf("unexpected forecast: %+v", res.Data)
	}
	if res := c.GenerateSignals(ctx, types.SignalRequest{Symbols: []string{"A", "B"}, Timeframe: "4h"}); res.Data.SignalsGenerated != 2 || res.Data.MinConfidence != 60 {
		t.Errorf("unexpected signal run: %+v", res.Data)
	}
}
