// Package txapi is the catalog of backend requests. Every method binds one
// live route to its synthetic stand-in and always returns a usable value.
package txapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"txlive/clients/gateway"
	"txlive/clients/mockdata"
	"txlive/internal/types"

	"go.uber.org/zap"
)

// Executor runs a request descriptor. *gateway.Gateway satisfies it.
type Executor interface {
	Execute(ctx context.Context, d gateway.Descriptor) gateway.Response
}

// Result is a decoded response.
type Result[T any] struct {
	Data      T
	Message   string
	Synthetic bool
}

type Client struct {
	logger *zap.Logger
	exec   Executor
}

func NewClient(logger *zap.Logger, exec Executor) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		logger: logger,
		exec:   exec,
	}
}

// fetch executes d and decodes the payload into T. A live payload that does
// not decode into T is replaced by the fallback value.
func fetch[T any](ctx context.Context, c *Client, d gateway.Descriptor) Result[T] {
	resp := c.exec.Execute(ctx, d)

	var out T
	if err := resp.Decode(&out); err == nil {
		return Result[T]{Data: out, Message: resp.Message, Synthetic: resp.Synthetic}
	} else if !resp.Synthetic {
		c.logger.Warn("unexpected payload shape, using synthetic data",
			zap.String("request", d.Name),
			zap.Error(err),
		)
	}

	if d.Fallback != nil {
		if v, ok := d.Fallback().(T); ok {
			out = v
		}
	}
	return Result[T]{Data: out, Message: mockdata.ResponseMessage, Synthetic: true}
}

// ---- Status ----

func (c *Client) Health(ctx context.Context) Result[types.Health] {
	return fetch[types.Health](ctx, c, gateway.Descriptor{
		Name:     "health",
		Path:     gateway.HealthPath,
		Fallback: func() any { return mockdata.Health() },
	})
}

func (c *Client) ProviderHealth(ctx context.Context) Result[map[string]types.ProviderStatus] {
	return fetch[map[string]types.ProviderStatus](ctx, c, gateway.Descriptor{
		Name:     "provider_health",
		Path:     "/api/provider-health",
		Fallback: func() any { return mockdata.ProviderHealth() },
	})
}

// ---- Market data ----

// MarketScan lists movers. kind is "trending" or "volume".
func (c *Client) MarketScan(ctx context.Context, kind string) Result[[]types.Mover] {
	return fetch[[]types.Mover](ctx, c, gateway.Descriptor{
		Name:     "market_scan_" + kind,
		Path:     "/api/market-scan",
		Query:    url.Values{"type": {kind}},
		Fallback: func() any { return mockdata.MarketScan(kind) },
	})
}

func (c *Client) MarketData(ctx context.Context, symbol string) Result[types.Mover] {
	return fetch[types.Mover](ctx, c, gateway.Descriptor{
		Name:     "market_data",
		Path:     "/api/market/" + url.PathEscape(symbol),
		Fallback: func() any { return mockdata.MarketData(symbol) },
	})
}

// Candles returns OHLCV bars. The backend nests them under data.candles.
func (c *Client) Candles(ctx context.Context, symbol, period, interval string) Result[[]types.Candle] {
	if period == "" {
		period = "1d"
	}
	if interval == "" {
		interval = "1h"
	}
	return fetch[[]types.Candle](ctx, c, gateway.Descriptor{
		Name:      "candles",
		Path:      "/api/candles",
		Query:     url.Values{"symbol": {symbol}, "period": {period}, "interval": {interval}},
		Normalize: gateway.LiftDataArray("candles"),
		Fallback:  func() any { return mockdata.Candles() },
	})
}

// ---- Live scanning ----

func (c *Client) StartScan(ctx context.Context, cfg types.ScanConfig) Result[types.ScanStatus] {
	return fetch[types.ScanStatus](ctx, c, gateway.Descriptor{
		Name:     "scan_start",
		Method:   http.MethodPost,
		Path:     "/api/scan/start",
		Body:     cfg,
		Fallback: func() any { return mockdata.ScanStatus(true) },
	})
}

func (c *Client) StopScan(ctx context.Context) Result[types.ScanStatus] {
	return fetch[types.ScanStatus](ctx, c, gateway.Descriptor{
		Name:     "scan_stop",
		Method:   http.MethodPost,
		Path:     "/api/scan/stop",
		Fallback: func() any { return mockdata.ScanStatus(false) },
	})
}

func (c *Client) ScanStatus(ctx context.Context) Result[types.ScanStatus] {
	return fetch[types.ScanStatus](ctx, c, gateway.Descriptor{
		Name:     "scan_status",
		Path:     "/api/scan/status",
		Fallback: func() any { return mockdata.ScanStatus(true) },
	})
}

func (c *Client) ScanConfig(ctx context.Context) Result[types.ScanConfig] {
	return fetch[types.ScanConfig](ctx, c, gateway.Descriptor{
		Name:     "scan_config",
		Path:     "/api/scan/config",
		Fallback: func() any { return mockdata.ScanConfig() },
	})
}

func (c *Client) SetScanConfig(ctx context.Context, cfg types.ScanConfig) Result[map[string]any] {
	return fetch[map[string]any](ctx, c, gateway.Descriptor{
		Name:     "scan_config_set",
		Method:   http.MethodPost,
		Path:     "/api/scan/config",
		Body:     cfg,
		Fallback: func() any { return mockdata.Ack(nil) },
	})
}

// ---- Patterns ----

func (c *Client) DetectPatterns(ctx context.Context, symbol string) Result[[]types.DetectedPattern] {
	return fetch[[]types.DetectedPattern](ctx, c, gateway.Descriptor{
		Name:     "detect_patterns",
		Method:   http.MethodPost,
		Path:     "/api/detect-enhanced",
		Body:     map[string]string{"symbol": symbol},
		Fallback: func() any { return mockdata.Patterns() },
	})
}

func (c *Client) PatternStats(ctx context.Context) Result[types.PatternStats] {
	return fetch[types.PatternStats](ctx, c, gateway.Descriptor{
		Name:     "pattern_stats",
		Path:     "/api/pattern-stats",
		Fallback: func() any { return mockdata.PatternStats() },
	})
}

func (c *Client) PatternsList(ctx context.Context) Result[[]types.PatternInfo] {
	return fetch[[]types.PatternInfo](ctx, c, gateway.Descriptor{
		Name:     "patterns_list",
		Path:     "/api/patterns/list",
		Fallback: func() any { return mockdata.PatternsList() },
	})
}

func (c *Client) ExplainPattern(ctx context.Context, name string) Result[types.PatternExplanation] {
	return fetch[types.PatternExplanation](ctx, c, gateway.Descriptor{
		Name:     "explain_pattern",
		Path:     "/api/explain/pattern/" + url.PathEscape(name),
		Fallback: func() any { return mockdata.ExplainPattern(name) },
	})
}

// ---- Sentiment ----

func (c *Client) Sentiment(ctx context.Context, symbol string) Result[types.Sentiment] {
	return fetch[types.Sentiment](ctx, c, gateway.Descriptor{
		Name:     "sentiment",
		Path:     "/api/sentiment/" + url.PathEscape(symbol),
		Fallback: func() any { return mockdata.Sentiment(symbol) },
	})
}

// EnhanceConfidence asks the sentiment layer to adjust a pattern's confidence.
func (c *Client) EnhanceConfidence(ctx context.Context, symbol, patternName string, confidence float64) Result[types.ConfidenceBoost] {
	return fetch[types.ConfidenceBoost](ctx, c, gateway.Descriptor{
		Name:   "enhance_confidence",
		Method: http.MethodPost,
		Path:   "/api/sentiment/enhance-confidence",
		Body: map[string]any{
			"symbol":       symbol,
			"pattern_name": patternName,
			"confidence":   confidence,
		},
		Fallback: func() any { return mockdata.ConfidenceBoost() },
	})
}

func (c *Client) SetSentimentAlertCondition(ctx context.Context, condition map[string]any) Result[map[string]any] {
	return fetch[map[string]any](ctx, c, gateway.Descriptor{
		Name:     "sentiment_alert_condition",
		Method:   http.MethodPost,
		Path:     "/api/sentiment/alert-condition",
		Body:     condition,
		Fallback: func() any { return mockdata.Ack(map[string]any{"condition": condition}) },
	})
}

func (c *Client) TwitterHealth(ctx context.Context) Result[types.TwitterHealth] {
	return fetch[types.TwitterHealth](ctx, c, gateway.Descriptor{
		Name:     "twitter_health",
		Path:     "/api/sentiment/twitter-health",
		Fallback: func() any { return mockdata.TwitterHealth() },
	})
}

// ---- Signals ----

// EntryExitSignals lists signals for symbol. Empty timeframe or kind leave the
// backend defaults in place.
func (c *Client) EntryExitSignals(ctx context.Context, symbol, timeframe, kind string) Result[types.SignalSet] {
	q := url.Values{"symbol": {symbol}}
	if timeframe != "" {
		q.Set("timeframe", timeframe)
	}
	if kind != "" {
		q.Set("type", kind)
	}
	return fetch[types.SignalSet](ctx, c, gateway.Descriptor{
		Name:     "entry_exit_signals",
		Path:     "/api/signals/entry-exit",
		Query:    q,
		Fallback: func() any { return mockdata.EntryExitSignals(symbol) },
	})
}

func (c *Client) GenerateSignals(ctx context.Context, req types.SignalRequest) Result[types.SignalRun] {
	return fetch[types.SignalRun](ctx, c, gateway.Descriptor{
		Name:     "generate_signals",
		Method:   http.MethodPost,
		Path:     "/api/signals/entry-exit",
		Body:     req,
		Fallback: func() any { return mockdata.SignalRun(req) },
	})
}

// ---- Alerts ----

// ActiveAlerts lists open alerts. The backend returns them under a top-level "alerts" key.
func (c *Client) ActiveAlerts(ctx context.Context) Result[[]types.Alert] {
	return fetch[[]types.Alert](ctx, c, gateway.Descriptor{
		Name:      "active_alerts",
		Path:      "/api/get_active_alerts",
		Normalize: gateway.LiftBodyArray("alerts"),
		Fallback:  func() any { return mockdata.ActiveAlerts() },
	})
}

func (c *Client) DismissAlert(ctx context.Context, id int64) Result[map[string]any] {
	return fetch[map[string]any](ctx, c, gateway.Descriptor{
		Name:     "dismiss_alert",
		Method:   http.MethodPost,
		Path:     "/api/alerts/dismiss/" + strconv.FormatInt(id, 10),
		Fallback: func() any { return mockdata.Ack(map[string]any{"dismissed": id}) },
	})
}

func (c *Client) ExplainAlert(ctx context.Context, req types.AlertExplainRequest) Result[types.AlertExplanation] {
	return fetch[types.AlertExplanation](ctx, c, gateway.Descriptor{
		Name:     "explain_alert",
		Method:   http.MethodPost,
		Path:     "/api/explain/alert",
		Body:     req,
		Fallback: func() any { return mockdata.ExplainAlert(req) },
	})
}

// HandleAlertResponse records the user's action on an alert (e.g. "dismiss", "trade").
func (c *Client) HandleAlertResponse(ctx context.Context, alertID int64, action string) Result[map[string]any] {
	return fetch[map[string]any](ctx, c, gateway.Descriptor{
		Name:   "handle_alert_response",
		Method: http.MethodPost,
		Path:   "/api/handle_alert_response",
		Body: map[string]any{
			"alert_id": alertID,
			"action":   action,
		},
		Fallback: func() any { return mockdata.Ack(map[string]any{"alert_id": alertID, "action": action}) },
	})
}

// ---- Paper trading ----

func (c *Client) PaperTrades(ctx context.Context) Result[[]types.PaperTrade] {
	return fetch[[]types.PaperTrade](ctx, c, gateway.Descriptor{
		Name:     "paper_trades",
		Path:     "/api/paper-trades",
		Fallback: func() any { return mockdata.PaperTrades() },
	})
}

func (c *Client) ExecuteTrade(ctx context.Context, req types.TradeRequest) Result[types.PaperTrade] {
	return fetch[types.PaperTrade](ctx, c, gateway.Descriptor{
		Name:     "execute_trade",
		Method:   http.MethodPost,
		Path:     "/api/paper-trades",
		Body:     req,
		Fallback: func() any { return mockdata.ExecutedTrade(req) },
	})
}

func (c *Client) ClosePosition(ctx context.Context, tradeID int64) Result[map[string]any] {
	return fetch[map[string]any](ctx, c, gateway.Descriptor{
		Name:     "close_position",
		Method:   http.MethodPost,
		Path:     "/api/close-position",
		Body:     map[string]int64{"trade_id": tradeID},
		Fallback: func() any { return mockdata.Ack(map[string]any{"closed": tradeID}) },
	})
}

func (c *Client) TradingStats(ctx context.Context) Result[types.TradingStats] {
	return fetch[types.TradingStats](ctx, c, gateway.Descriptor{
		Name:     "trading_stats",
		Path:     "/api/trading-stats",
		Fallback: func() any { return mockdata.TradingStats() },
	})
}

// ---- Backtesting ----

func (c *Client) Strategies(ctx context.Context) Result[[]types.Strategy] {
	return fetch[[]types.Strategy](ctx, c, gateway.Descriptor{
		Name:     "strategies",
		Path:     "/api/strategies",
		Fallback: func() any { return mockdata.Strategies() },
	})
}

func (c *Client) RunBacktest(ctx context.Context, params map[string]any) Result[types.BacktestResult] {
	return fetch[types.BacktestResult](ctx, c, gateway.Descriptor{
		Name:     "backtest",
		Method:   http.MethodPost,
		Path:     "/api/backtest",
		Body:     params,
		Fallback: func() any { return mockdata.Backtest() },
	})
}

// ---- Analytics, risk and coverage ----

func (c *Client) AnalyticsSummary(ctx context.Context) Result[types.AnalyticsSummary] {
	return fetch[types.AnalyticsSummary](ctx, c, gateway.Descriptor{
		Name:     "analytics_summary",
		Path:     "/api/analytics/summary",
		Fallback: func() any { return mockdata.AnalyticsSummary() },
	})
}

func (c *Client) RiskSettings(ctx context.Context) Result[types.RiskSettings] {
	return fetch[types.RiskSettings](ctx, c, gateway.Descriptor{
		Name:     "risk_settings",
		Path:     "/api/risk-settings",
		Fallback: func() any { return mockdata.RiskSettings() },
	})
}

func (c *Client) UpdateRiskSettings(ctx context.Context, s types.RiskSettings) Result[map[string]any] {
	return fetch[map[string]any](ctx, c, gateway.Descriptor{
		Name:     "risk_settings_update",
		Method:   http.MethodPost,
		Path:     "/api/risk-settings",
		Body:     s,
		Fallback: func() any { return mockdata.Ack(map[string]any{"settings_updated": 10}) },
	})
}

func (c *Client) Coverage(ctx context.Context) Result[types.Coverage] {
	return fetch[types.Coverage](ctx, c, gateway.Descriptor{
		Name:     "coverage",
		Path:     "/api/coverage",
		Fallback: func() any { return mockdata.Coverage() },
	})
}

func (c *Client) Assets(ctx context.Context) Result[types.AssetList] {
	return fetch[types.AssetList](ctx, c, gateway.Descriptor{
		Name:     "assets",
		Path:     "/api/assets/list",
		Fallback: func() any { return mockdata.Assets() },
	})
}

// ---- Enhanced AI ----

func (c *Client) PatternHeatmap(ctx context.Context, symbol string) Result[types.PatternHeatmap] {
	return fetch[types.PatternHeatmap](ctx, c, gateway.Descriptor{
		Name:     "pattern_heatmap",
		Path:     "/api/patterns/heatmap",
		Query:    url.Values{"symbol": {symbol}},
		Fallback: func() any { return mockdata.PatternHeatmap(symbol) },
	})
}

func (c *Client) AIReasoning(ctx context.Context, req types.ReasoningRequest) Result[types.AIReasoning] {
	return fetch[types.AIReasoning](ctx, c, gateway.Descriptor{
		Name:     "ai_reasoning",
		Method:   http.MethodPost,
		Path:     "/api/explain/reasoning",
		Body:     req,
		Fallback: func() any { return mockdata.AIReasoning(req) },
	})
}

func (c *Client) MLLearningStatus(ctx context.Context) Result[types.MLLearningStatus] {
	return fetch[types.MLLearningStatus](ctx, c, gateway.Descriptor{
		Name:     "ml_learning_status",
		Path:     "/api/ml/learning-status",
		Fallback: func() any { return mockdata.MLLearningStatus() },
	})
}

func (c *Client) ModelPerformance(ctx context.Context) Result[types.ModelPerformance] {
	return fetch[types.ModelPerformance](ctx, c, gateway.Descriptor{
		Name:     "model_performance",
		Path:     "/api/ml/model-performance",
		Fallback: func() any { return mockdata.ModelPerformance() },
	})
}

// PerformanceAttribution splits returns by detection layer. Period defaults to 30d.
func (c *Client) PerformanceAttribution(ctx context.Context, period string) Result[types.PerformanceAttribution] {
	if period == "" {
		period = "30d"
	}
	return fetch[types.PerformanceAttribution](ctx, c, gateway.Descriptor{
		Name:     "performance_attribution",
		Path:     "/api/analytics/attribution",
		Query:    url.Values{"period": {period}},
		Fallback: func() any { return mockdata.PerformanceAttribution(period) },
	})
}

// PredictiveForecast projects upcoming setups. Period defaults to 7d.
func (c *Client) PredictiveForecast(ctx context.Context, period string) Result[types.PredictiveForecast] {
	if period == "" {
		period = "7d"
	}
	return fetch[types.PredictiveForecast](ctx, c, gateway.Descriptor{
		Name:     "predictive_forecast",
		Path:     "/api/analytics/forecast",
		Query:    url.Values{"period": {period}},
		Fallback: func() any { return mockdata.PredictiveForecast(period) },
	})
}
