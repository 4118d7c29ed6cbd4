package mockdata

import (
	"fmt"
	"strings"
	"time"
	"txlive/internal/types"
)

var trending = []types.Mover{
	{Symbol: "AAPL", Price: 185.25, Change: 2.15, ChangePct: 1.17, Volume: 45230000},
	{Symbol: "TSLA", Price: 242.84, Change: -3.21, ChangePct: -1.30, Volume: 89450000},
	{Symbol: "MSFT", Price: 378.91, Change: 4.56, ChangePct: 1.22, Volume: 23180000},
	{Symbol: "NVDA", Price: 487.32, Change: 12.45, ChangePct: 2.62, Volume: 67890000},
	{Symbol: "GOOGL", Price: 134.56, Change: -1.23, ChangePct: -0.91, Volume: 34560000},
}

var highVolume = []types.Mover{
	{Symbol: "TSLA", Price: 242.84, Change: -3.21, ChangePct: -1.30, Volume: 89450000},
	{Symbol: "NVDA", Price: 487.32, Change: 12.45, ChangePct: 2.62, Volume: 67890000},
	{Symbol: "AAPL", Price: 185.25, Change: 2.15, ChangePct: 1.17, Volume: 45230000},
	{Symbol: "GOOGL", Price: 134.56, Change: -1.23, ChangePct: -0.91, Volume: 34560000},
	{Symbol: "MSFT", Price: 378.91, Change: 4.56, ChangePct: 1.22, Volume: 23180000},
}

var candles = []types.Candle{
	{Timestamp: "2024-01-01T09:30:00Z", Open: 180.00, High: 182.50, Low: 179.20, Close: 181.75, Volume: 1234567},
	{Timestamp: "2024-01-01T10:30:00Z", Open: 181.75, High: 183.20, Low: 180.95, Close: 182.40, Volume: 987654},
	{Timestamp: "2024-01-01T11:30:00Z", Open: 182.40, High: 184.10, Low: 181.80, Close: 183.60, Volume: 1456789},
	{Timestamp: "2024-01-01T12:30:00Z", Open: 183.60, High: 185.20, Low: 182.90, Close: 184.85, Volume: 1123456},
	{Timestamp: "2024-01-01T13:30:00Z", Open: 184.85, High: 186.40, Low: 184.20, Close: 185.25, Volume: 1345678},
}

// MarketScan returns the movers list for kind ("trending" or "volume").
func MarketScan(kind string) []types.Mover {
	src := trending
	if strings.EqualFold(kind, "volume") {
		src = highVolume
	}
	out := make([]types.Mover, len(src))
	copy(out, src)
	return out
}

// MarketData returns the quote for symbol, or the first trending quote when unknown.
func MarketData(symbol string) types.Mover {
	for _, m := range trending {
		if strings.EqualFold(m.Symbol, symbol) {
			return m
		}
	}
	return trending[0]
}

// Candles returns a short hourly OHLCV series.
func Candles() []types.Candle {
	out := make([]types.Candle, len(candles))
	copy(out, candles)
	return out
}

// Patterns returns a detection result for any symbol.
func Patterns() []types.DetectedPattern {
	ts := now()
	return []types.DetectedPattern{
		{
			PatternName: "Bullish Engulfing",
			Confidence:  78,
			PatternType: "bullish",
			Description: "A bullish reversal pattern formed by two candlesticks where the second candle completely engulfs the first.",
			Timeframe:   "1h",
			DetectedAt:  ts,
		},
		{
			PatternName: "Hammer",
			Confidence:  65,
			PatternType: "bullish",
			Description: "A bullish reversal pattern with a small body and long lower shadow.",
			Timeframe:   "1h",
			DetectedAt:  ts,
		},
	}
}

func PatternStats() types.PatternStats {
	return types.PatternStats{TotalPatterns: 15, DetectedToday: 5, Accuracy: 72.5}
}

func PatternsList() []types.PatternInfo {
	return []types.PatternInfo{
		{Name: "Bullish Engulfing", Description: "Bullish reversal pattern", Type: "bullish"},
		{Name: "Bearish Engulfing", Description: "Bearish reversal pattern", Type: "bearish"},
		{Name: "Hammer", Description: "Bullish reversal pattern", Type: "bullish"},
		{Name: "Doji", Description: "Indecision pattern", Type: "neutral"},
	}
}

func ExplainPattern(name string) types.PatternExplanation {
	return types.PatternExplanation{
		Pattern:         name,
		Explanation:     fmt.Sprintf("%s is a candlestick pattern used in technical analysis.", name),
		Characteristics: []string{"Reversal signal", "High reliability", "Common in trending markets"},
	}
}

// Sentiment returns a mildly bullish sentiment reading for symbol.
func Sentiment(symbol string) types.Sentiment {
	return types.Sentiment{
		Symbol:           symbol,
		OverallSentiment: 0.24,
		SentimentScore:   0.24,
		SentimentLabel:   "BULLISH",
		Confidence:       0.72,
		Sources: map[string]float64{
			"news":      0.18,
			"social":    0.31,
			"technical": 0.22,
		},
		PriceCorrelation: 0.68,
		LastUpdated:      now(),
	}
}

// ActiveAlerts returns two recent alerts.
func ActiveAlerts() []types.Alert {
	return []types.Alert{
		{
			ID:            1,
			Symbol:        "AAPL",
			AlertType:     "Bullish Engulfing",
			ConfidencePct: 78,
			Price:         185.25,
			Timestamp:     now(),
			Metadata:      map[string]any{"timeframe": "1h"},
		},
		{
			ID:            2,
			Symbol:        "TSLA",
			AlertType:     "Hammer",
			ConfidencePct: 65,
			Price:         242.84,
			Timestamp:     ago(5 * time.Minute),
			Metadata:      map[string]any{"timeframe": "1h"},
		},
	}
}

// ScanStatus returns the scanner status with the given active flag.
func ScanStatus(active bool) types.ScanStatus {
	return types.ScanStatus{
		Active:         active,
		LastScan:       now(),
		PatternsFound:  5,
		SymbolsScanned: 150,
		ScanDuration:   2.3,
		Errors:         []string{},
	}
}

func ScanConfig() types.ScanConfig {
	return types.ScanConfig{Symbols: []string{}, Interval: 30, AutoAlerts: true}
}

func TradingStats() types.TradingStats {
	return types.TradingStats{
		TotalTrades:   24,
		WinningTrades: 16,
		LosingTrades:  8,
		WinRate:       66.7,
		AvgWin:        245.50,
		AvgLoss:       -128.75,
		BestTrade:     890.25,
		WorstTrade:    -456.80,
	}
}

func PaperTrades() []types.PaperTrade {
	return []types.PaperTrade{
		{
			ID:           1,
			Symbol:       "AAPL",
			Side:         "BUY",
			Quantity:     100,
			EntryPrice:   180.00,
			CurrentPrice: 185.25,
			PnL:          525.00,
			PnLPct:       2.92,
			Status:       "open",
			Pattern:      "Bullish Engulfing",
			Confidence:   78,
			CreatedAt:    ago(24 * time.Hour),
		},
	}
}

// ExecutedTrade echoes req back as an open position.
func ExecutedTrade(req types.TradeRequest) types.PaperTrade {
	price := req.Price
	if price == 0 {
		price = 100
	}
	return types.PaperTrade{
		ID:           time.Now().UnixMilli(),
		Symbol:       req.Symbol,
		Side:         req.Side,
		Quantity:     req.Quantity,
		EntryPrice:   price,
		CurrentPrice: price,
		Status:       "open",
		Pattern:      req.Pattern,
		Confidence:   req.Confidence,
		CreatedAt:    now(),
	}
}

func Strategies() []types.Strategy {
	return []types.Strategy{
		{ID: "momentum", Name: "Momentum Strategy", Description: "Trend following strategy"},
		{ID: "mean-reversion", Name: "Mean Reversion", Description: "Contrarian strategy"},
		{ID: "pattern-based", Name: "Pattern Based", Description: "Candlestick pattern strategy"},
	}
}

func Backtest() types.BacktestResult {
	return types.BacktestResult{
		TotalReturn:    15420.50,
		TotalReturnPct: 15.42,
		MaxDrawdown:    -2340.80,
		MaxDrawdownPct: -2.34,
		SharpeRatio:    1.85,
		WinRate:        68.5,
		TotalTrades:    45,
		WinningTrades:  31,
		LosingTrades:   14,
	}
}

func AnalyticsSummary() types.AnalyticsSummary {
	return types.AnalyticsSummary{
		TotalSymbols:     150,
		PatternsDetected: 24,
		AccuracyRate:     72.5,
		ActiveAlerts:     3,
		ScanningUptime:   98.5,
	}
}

func Coverage() types.Coverage {
	return types.Coverage{
		SymbolsCovered:     150,
		SymbolsScanned:     142,
		CoveragePercentage: 94.7,
		LastUpdate:         now(),
	}
}

func Assets() types.AssetList {
	return types.AssetList{
		Stocks:      []string{"AAPL", "MSFT", "GOOGL", "TSLA", "NVDA", "AMZN"},
		TotalCount:  150,
		LastUpdated: now(),
	}
}

func RiskSettings() types.RiskSettings {
	return types.RiskSettings{
		MaxPositionSize:      10,
		MaxPortfolioRisk:     5,
		StopLossPercentage:   2,
		MaxDailyTrades:       10,
		MaxDrawdownLimit:     15,
		RequireConfirmation:  true,
		EnableAutoStopLoss:   true,
		EnablePositionSizing: true,
		RiskFreeRate:         2.5,
		CorrelationThreshold: 0.7,
	}
}

func Health() types.Health {
	return types.Health{Status: "ok", Timestamp: now()}
}

func ProviderHealth() map[string]types.ProviderStatus {
	return map[string]types.ProviderStatus{
		"yfinance": {OK: true, LatencyMS: 100},
		"finnhub":  {OK: true, LatencyMS: 50},
	}
}

// Ack is the generic acknowledgement returned by write operations.
func Ack(fields map[string]any) map[string]any {
	out := map[string]any{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
