package domain

import "time"

// FeatureCount is the fixed number of anonymized feature positions per
// transaction (V1..V28 in the source dataset).
const FeatureCount = 28

// Transaction is one ingested feature record. Rows are immutable once
// written and never deleted in normal operation.
type Transaction struct {
	ID         int64                  `json:"id"`
	NodeID     int64                  `json:"node_id"`
	Time       *float64               `json:"time"`     // node-local domain time, seconds-since-epoch-like
	Features   [FeatureCount]*float64 `json:"features"` // V1..V28, nil for values absent from the payload
	Amount     *float64               `json:"amount"`
	IngestedAt time.Time              `json:"ingested_at"` // server-assigned, not client-assigned
}

// TransactionWithNode joins a transaction with its owning node's display
// name for the dashboard's recent/all listings.
type TransactionWithNode struct {
	Transaction
	NodeName string `json:"node_name"`
}
