package types

// AlertExplanation describes why an alert fired.
type AlertExplanation struct {
	Explanation string   `json:"explanation"`
	Confidence  float64  `json:"confidence"`
	NextSteps   []string `json:"next_steps"`
}

// AlertExplainRequest identifies the alert to explain. All fields are optional.
type AlertExplainRequest struct {
	AlertID   int64  `json:"alert_id,omitempty"`
	AlertType string `json:"alert_type,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
}

// ConfidenceBoost is the sentiment adjustment applied to a pattern confidence.
type ConfidenceBoost struct {
	Enhanced        bool    `json:"enhanced"`
	ConfidenceBoost float64 `json:"confidence_boost"`
}

// TwitterHealth is the status of the social sentiment feed.
type TwitterHealth struct {
	Status             string `json:"status"`
	LastUpdate         string `json:"last_update"`
	RateLimitRemaining int    `json:"rate_limit_remaining"`
	RateLimitReset     string `json:"rate_limit_reset"`
	APIVersion         string `json:"api_version"`
}

// Signal is one entry or exit suggestion.
type Signal struct {
	Type        string  `json:"type"` // entry | exit
	Action      string  `json:"action"`
	Confidence  float64 `json:"confidence"`
	PriceTarget float64 `json:"price_target"`
	StopLoss    float64 `json:"stop_loss"`
	Timeframe   string  `json:"timeframe"`
	Reasoning   string  `json:"reasoning"`
}

// SignalSet is the signal list for one symbol.
type SignalSet struct {
	Symbol      string   `json:"symbol"`
	Signals     []Signal `json:"signals"`
	LastUpdated string   `json:"last_updated"`
}

// SignalRequest asks the backend to generate signals for several symbols.
type SignalRequest struct {
	Symbols       []string `json:"symbols"`
	Timeframe     string   `json:"timeframe"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
}

// SignalRun summarizes a signal generation request.
type SignalRun struct {
	SignalsGenerated int     `json:"signals_generated"`
	Timeframe        string  `json:"timeframe"`
	MinConfidence    float64 `json:"min_confidence"`
}

// TimeframeConfidence is one cell of the pattern heatmap.
type TimeframeConfidence struct {
	Timeframe  string  `json:"timeframe"`
	Confidence float64 `json:"confidence"`
	Detected   bool    `json:"detected"`
}

// HeatmapRow is one pattern across timeframes.
type HeatmapRow struct {
	PatternName   string                `json:"pattern_name"`
	PatternType   string                `json:"pattern_type"`
	Timeframes    []TimeframeConfidence `json:"timeframes"`
	MaxConfidence float64               `json:"max_confidence"`
	AvgConfidence float64               `json:"avg_confidence"`
}

// PatternHeatmap is the multi-timeframe confidence matrix for a symbol.
type PatternHeatmap struct {
	Symbol     string       `json:"symbol"`
	Patterns   []HeatmapRow `json:"patterns"`
	Timeframes []string     `json:"timeframes"`
}

// ReasoningRequest asks for the AI reasoning behind a detected pattern.
type ReasoningRequest struct {
	Symbol      string `json:"symbol"`
	PatternName string `json:"pattern_name"`
	AlertID     int64  `json:"alert_id,omitempty"`
}

type ReasoningStep struct {
	Icon        string `json:"icon"`
	Status      string `json:"status"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

type Recommendation struct {
	Action      string  `json:"action"`
	Confidence  float64 `json:"confidence"`
	TargetPrice float64 `json:"target_price"`
	StopLoss    float64 `json:"stop_loss"`
	RiskScore   float64 `json:"risk_score"`
	RiskLevel   string  `json:"risk_level"`
}

type HistoricalAccuracy struct {
	PatternType string  `json:"pattern_type"`
	Accuracy    float64 `json:"accuracy"`
	SampleSize  int     `json:"sample_size"`
	AvgReturn   float64 `json:"avg_return"`
}

// AIReasoning explains a pattern call layer by layer.
type AIReasoning struct {
	Symbol             string             `json:"symbol"`
	Pattern            string             `json:"pattern"`
	CompositeScore     float64            `json:"composite_score"`
	QualityBadge       string             `json:"quality_badge"`
	Reasoning          []ReasoningStep    `json:"reasoning"`
	Recommendation     Recommendation     `json:"recommendation"`
	HistoricalAccuracy HistoricalAccuracy `json:"historical_accuracy"`
}

type LearningUpdate struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
	Type        string `json:"type"`
}

type LearningModelStats struct {
	TotalPatternsLearned int     `json:"total_patterns_learned"`
	TrainingSamples      int     `json:"training_samples"`
	LastUpdate           string  `json:"last_update"`
	NextUpdateSeconds    int     `json:"next_update_seconds"`
	AccuracyTrend        float64 `json:"accuracy_trend"`
}

// MLLearningStatus reports online model training progress.
type MLLearningStatus struct {
	IsLearning    bool               `json:"is_learning"`
	RecentUpdates []LearningUpdate   `json:"recent_updates"`
	ModelStats    LearningModelStats `json:"model_stats"`
}

type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

type AccuracyPoint struct {
	Date     string  `json:"date"`
	Accuracy float64 `json:"accuracy"`
}

type ModelInfo struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Status          string          `json:"status"`
	LastUpdated     string          `json:"last_updated"`
	Metrics         ModelMetrics    `json:"metrics"`
	AccuracyHistory []AccuracyPoint `json:"accuracy_history"`
}

// ModelPerformance lists the deployed detection models.
type ModelPerformance struct {
	Models []ModelInfo `json:"models"`
}

type AttributionLayer struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Percentage   float64 `json:"percentage"`
	Trades       int     `json:"trades"`
	WinRate      float64 `json:"win_rate"`
	AvgReturn    float64 `json:"avg_return"`
}

// PerformanceAttribution splits returns across the detection layers.
type PerformanceAttribution struct {
	TotalReturn float64            `json:"total_return"`
	ReturnPct   float64            `json:"return_pct"`
	Period      string             `json:"period"`
	Layers      []AttributionLayer `json:"layers"`
}

type Prediction struct {
	Metric     string  `json:"metric"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Basis      string  `json:"basis,omitempty"`
	Trend      string  `json:"trend,omitempty"`
}

type UpcomingSetup struct {
	Symbol       string  `json:"symbol"`
	Pattern      string  `json:"pattern"`
	ExpectedDate string  `json:"expected_date"`
	Probability  float64 `json:"probability"`
	Reasoning    string  `json:"reasoning"`
}

// PredictiveForecast projects opportunities for the coming period.
type PredictiveForecast struct {
	Period         string          `json:"period"`
	Predictions    []Prediction    `json:"predictions"`
	UpcomingSetups []UpcomingSetup `json:"upcoming_setups"`
}
