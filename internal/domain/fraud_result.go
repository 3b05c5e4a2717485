package domain

import "time"

// Prediction labels
const (
	PredictionLegitimate = 0
	PredictionFraud      = 1
)

// FraudResult is one classifier verdict. TransactionID is nullable: the
// observed flow stores transactions and results as parallel streams keyed
// only by node and domain time, so the link is never populated.
type FraudResult struct {
	ID            int64     `json:"id"`
	TransactionID *int64    `json:"transaction_id"`
	NodeID        int64     `json:"node_id"`
	Time          *float64  `json:"time"`
	Prediction    int       `json:"prediction"` // 0 = legitimate, 1 = fraud
	IngestedAt    time.Time `json:"ingested_at"`
}

// FraudResultWithNode joins a result with its owning node's display name.
type FraudResultWithNode struct {
	FraudResult
	NodeName string `json:"node_name"`
}

// FraudStats summarizes classifier verdicts for a scope (one node or all).
type FraudStats struct {
	Total      int64   `json:"total"`
	FraudCount int64   `json:"fraud_count"`
	FraudRate  float64 `json:"fraud_rate"` // fraud_count/total*100, 0 when total is 0
}
