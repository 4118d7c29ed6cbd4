package types

// Mover is one row of a market scan (trending or high volume).
type Mover struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// DetectedPattern is a pattern match returned by pattern detection.
type DetectedPattern struct {
	PatternName string  `json:"pattern_name"`
	Confidence  float64 `json:"confidence"`
	PatternType string  `json:"pattern_type"`
	Description string  `json:"description"`
	Timeframe   string  `json:"timeframe"`
	DetectedAt  string  `json:"detected_at"`
}

// PatternInfo describes a pattern the backend can detect.
type PatternInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// PatternStats summarizes pattern detection.
type PatternStats struct {
	TotalPatterns int     `json:"total_patterns"`
	DetectedToday int     `json:"detected_today"`
	Accuracy      float64 `json:"accuracy"`
}

// PatternExplanation is a plain-language description of a pattern.
type PatternExplanation struct {
	Pattern         string   `json:"pattern"`
	Explanation     string   `json:"explanation"`
	Characteristics []string `json:"characteristics"`
}

// Alert is a stored pattern alert.
type Alert struct {
	ID            int64          `json:"id"`
	Symbol        string         `json:"symbol"`
	AlertType     string         `json:"alert_type"`
	ConfidencePct float64        `json:"confidence_pct"`
	Price         float64        `json:"price"`
	Timestamp     string         `json:"timestamp"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ScanStatus reports the state of the live scanner.
type ScanStatus struct {
	Active         bool     `json:"active"`
	LastScan       string   `json:"last_scan"`
	PatternsFound  int      `json:"patterns_found"`
	SymbolsScanned int      `json:"symbols_scanned"`
	ScanDuration   float64  `json:"scan_duration"`
	Errors         []string `json:"errors"`
}

// ScanConfig is the live scanner configuration.
type ScanConfig struct {
	Symbols    []string `json:"symbols"`
	Interval   int      `json:"interval"`
	AutoAlerts bool     `json:"auto_alerts"`
}

// Sentiment is the aggregated sentiment for a symbol.
type Sentiment struct {
	Symbol           string             `json:"symbol"`
	OverallSentiment float64            `json:"overall_sentiment"`
	SentimentScore   float64            `json:"sentiment_score"`
	SentimentLabel   string             `json:"sentiment_label"`
	Confidence       float64            `json:"confidence"`
	Sources          map[string]float64 `json:"sources"`
	PriceCorrelation float64            `json:"price_correlation"`
	LastUpdated      string             `json:"last_updated"`
}

// PaperTrade is a simulated position.
type PaperTrade struct {
	ID           int64   `json:"id"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Quantity     float64 `json:"quantity"`
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	PnL          float64 `json:"pnl"`
	PnLPct       float64 `json:"pnl_pct"`
	Status       string  `json:"status"`
	Pattern      string  `json:"pattern,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// TradeRequest opens a paper trade.
type TradeRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price,omitempty"`
	Pattern    string  `json:"pattern,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// TradingStats summarizes paper trading performance.
type TradingStats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
}

// Strategy is a backtestable strategy.
type Strategy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BacktestResult is the outcome of a backtest run.
type BacktestResult struct {
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	WinRate        float64 `json:"win_rate"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
}

// AnalyticsSummary is the headline dashboard summary.
type AnalyticsSummary struct {
	TotalSymbols     int     `json:"total_symbols"`
	PatternsDetected int     `json:"patterns_detected"`
	AccuracyRate     float64 `json:"accuracy_rate"`
	ActiveAlerts     int     `json:"active_alerts"`
	ScanningUptime   float64 `json:"scanning_uptime"`
}

// Coverage reports how much of the universe is being scanned.
type Coverage struct {
	SymbolsCovered     int     `json:"symbols_covered"`
	SymbolsScanned     int     `json:"symbols_scanned"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	LastUpdate         string  `json:"last_update"`
}

// AssetList is the list of tradable assets.
type AssetList struct {
	Stocks      []string `json:"stocks"`
	TotalCount  int      `json:"total_count"`
	LastUpdated string   `json:"last_updated"`
}

// RiskSettings holds the account risk limits.
type RiskSettings struct {
	MaxPositionSize      float64 `json:"max_position_size"`
	MaxPortfolioRisk     float64 `json:"max_portfolio_risk"`
	StopLossPercentage   float64 `json:"stop_loss_percentage"`
	MaxDailyTrades       int     `json:"max_daily_trades"`
	MaxDrawdownLimit     float64 `json:"max_drawdown_limit"`
	RequireConfirmation  bool    `json:"require_confirmation"`
	EnableAutoStopLoss   bool    `json:"enable_auto_stop_loss"`
	EnablePositionSizing bool    `json:"enable_position_sizing"`
	RiskFreeRate         float64 `json:"risk_free_rate"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
}

// Health is the backend liveness payload.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ProviderStatus is the health of one upstream market data provider.
type ProviderStatus struct {
	OK        bool    `json:"ok"`
	LatencyMS float64 `json:"latency_ms"`
}
