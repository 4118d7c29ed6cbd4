package types

// ConnectionStatus is pushed whenever the event channel connects or drops.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Timestamp string `json:"timestamp"`
}

// SubscriptionStatus reports which server-side streams are active.
type SubscriptionStatus struct {
	Alerts      bool   `json:"alerts"`
	ScanResults bool   `json:"scan_results"`
	Timestamp   string `json:"timestamp"`
}

// PatternMatch is a named pattern with a confidence score.
type PatternMatch struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ScanUpdate carries fresh scanner results for one symbol.
type ScanUpdate struct {
	Symbol           string         `json:"symbol"`
	IntradayPatterns []PatternMatch `json:"intraday_patterns"`
	ContextPatterns  []PatternMatch `json:"context_patterns"`
	Timestamp        string         `json:"timestamp"`
}

// PatternAlert is a pushed detection for one symbol.
type PatternAlert struct {
	ID            string         `json:"id,omitempty"`
	Symbol        string         `json:"symbol"`
	AlertType     string         `json:"alert_type"`
	ConfidencePct float64        `json:"confidence_pct"`
	Price         float64        `json:"price"`
	Timestamp     string         `json:"timestamp"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
