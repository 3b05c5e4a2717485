// Package ingestion implements the central listener: it subscribes to the
// raw-data and fraud-results topics, resolves node identifiers and appends
// rows into the store. Delivery is at-most-once and best-effort: a bad
// message is logged and dropped, never retried or dead-lettered.
package ingestion

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"fog-fraud-lab/internal/bus"
	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/observability"
	"fog-fraud-lab/internal/storage"
)

// topicKind routes a subscribed topic to its handler. Routing is an explicit
// topic-to-handler mapping keyed on the configured topic names; nothing is
// inferred from substrings.
type topicKind string

const (
	kindRawData      topicKind = "raw"
	kindFraudResults topicKind = "results"
)

// Drop reasons used in logs and metrics.
const (
	dropMalformed     = "malformed"
	dropMissingNodeID = "missing_node_id"
	dropUnknownNode   = "unknown_node"
	dropUnknownTopic  = "unknown_topic"
	dropStorageError  = "storage_error"
)

// message is one inbound bus delivery, queued so the store sees a single
// writer regardless of the transport's callback concurrency.
type message struct {
	topic   string
	payload []byte
}

// Listener consumes the two topics and writes into the store.
type Listener struct {
	bus          bus.Bus
	nodeStore    storage.NodeStore
	txStore      storage.TransactionStore
	fraudStore   storage.FraudResultStore
	rawTopic     string
	resultsTopic string
	routes       map[string]topicKind
	logger       *log.Logger
	metrics      *observability.Metrics

	messages chan message
}

// Options contains configuration for creating a Listener.
type Options struct {
	Bus              bus.Bus
	NodeStore        storage.NodeStore
	TransactionStore storage.TransactionStore
	FraudResultStore storage.FraudResultStore
	RawTopic         string
	ResultsTopic     string
	Logger           *log.Logger
	Metrics          *observability.Metrics
	QueueSize        int // default 1024
}

// NewListener creates a new Listener.
func NewListener(opts Options) *Listener {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	queueSize := opts.QueueSize
	if queueSize == 0 {
		queueSize = 1024
	}

	return &Listener{
		bus:          opts.Bus,
		nodeStore:    opts.NodeStore,
		txStore:      opts.TransactionStore,
		fraudStore:   opts.FraudResultStore,
		rawTopic:     opts.RawTopic,
		resultsTopic: opts.ResultsTopic,
		routes: map[string]topicKind{
			opts.RawTopic:     kindRawData,
			opts.ResultsTopic: kindFraudResults,
		},
		logger:   logger,
		metrics:  opts.Metrics,
		messages: make(chan message, queueSize),
	}
}

// RegisterNodes upserts the static node list into the store. Called once at
// startup; nodes are never deleted.
func (l *Listener) RegisterNodes(ctx context.Context, nodes []*domain.Node) error {
	for _, n := range nodes {
		if err := l.nodeStore.Upsert(ctx, n); err != nil {
			return err
		}
	}
	l.logger.Printf("Registered %d fog nodes", len(nodes))
	return nil
}

// Run subscribes to both topics and blocks in the message loop until the
// context is cancelled. Subscription failures are fatal and propagated; a
// failing message never terminates the loop.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.subscribe(ctx); err != nil {
		return err
	}
	return l.loop(ctx)
}

func (l *Listener) subscribe(ctx context.Context) error {
	enqueue := func(topic string, payload []byte) {
		select {
		case l.messages <- message{topic: topic, payload: payload}:
		case <-ctx.Done():
		}
	}

	if err := l.bus.Subscribe(ctx, l.rawTopic, enqueue); err != nil {
		return err
	}
	l.logger.Printf("Subscribed to topic: %s", l.rawTopic)

	if err := l.bus.Subscribe(ctx, l.resultsTopic, enqueue); err != nil {
		return err
	}
	l.logger.Printf("Subscribed to topic: %s", l.resultsTopic)
	return nil
}

func (l *Listener) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.logger.Println("Listener stopping...")
			return ctx.Err()
		case msg := <-l.messages:
			l.handle(ctx, msg)
		}
	}
}

// handle processes one message. All failures are logged and swallowed.
func (l *Listener) handle(ctx context.Context, msg message) {
	kind, ok := l.routes[msg.topic]
	if !ok {
		l.drop("?", dropUnknownTopic, "Message from unknown topic %q, skipping", msg.topic)
		return
	}

	start := time.Now()
	switch kind {
	case kindRawData:
		l.handleRawData(ctx, msg.payload)
	case kindFraudResults:
		l.handleFraudResult(ctx, msg.payload)
	}
	if l.metrics != nil {
		l.metrics.MessagesReceived.WithLabelValues(string(kind)).Inc()
		l.metrics.HandleDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
}

// handleRawData stores one transaction and marks the node online.
func (l *Listener) handleRawData(ctx context.Context, payload []byte) {
	p, err := domain.ParseRawData(payload)
	if err != nil {
		l.dropDecodeError(string(kindRawData), err)
		return
	}

	node, ok := l.resolveNode(ctx, string(kindRawData), p.NodeStringID)
	if !ok {
		return
	}

	tx := &domain.Transaction{
		NodeID:   node.ID,
		Time:     p.Time,
		Features: p.Features,
		Amount:   p.Amount,
	}

	txID, err := l.txStore.Insert(ctx, tx)
	if err != nil {
		l.drop(string(kindRawData), dropStorageError, "Storing transaction from %s failed: %v", p.NodeStringID, err)
		return
	}
	if err := l.nodeStore.Touch(ctx, node.ID, domain.StatusOnline); err != nil {
		l.logger.Printf("Touching node %d failed: %v", node.ID, err)
	}

	if l.metrics != nil {
		l.metrics.TransactionsStored.Inc()
	}
	l.logger.Printf("Added transaction %d from %s (node_id=%d, amount=%s, time=%s)",
		txID, p.NodeStringID, node.ID, fmtFloat(p.Amount), fmtFloat(p.Time))
}

// handleFraudResult stores one classifier verdict and marks the node online.
func (l *Listener) handleFraudResult(ctx context.Context, payload []byte) {
	p, err := domain.ParseFraudResult(payload)
	if err != nil {
		l.dropDecodeError(string(kindFraudResults), err)
		return
	}

	node, ok := l.resolveNode(ctx, string(kindFraudResults), p.NodeStringID)
	if !ok {
		return
	}

	if !p.HasPrediction {
		// Documented silent-default policy: absent prediction counts as
		// legitimate. Logged so ingestion bugs don't hide behind it.
		l.logger.Printf("Fraud result from %s has no Prediction field, defaulting to legitimate", p.NodeStringID)
	}

	result := &domain.FraudResult{
		NodeID:     node.ID,
		Time:       p.Time,
		Prediction: p.Prediction,
	}

	resultID, err := l.fraudStore.Insert(ctx, result)
	if err != nil {
		l.drop(string(kindFraudResults), dropStorageError, "Storing fraud result from %s failed: %v", p.NodeStringID, err)
		return
	}
	if err := l.nodeStore.Touch(ctx, node.ID, domain.StatusOnline); err != nil {
		l.logger.Printf("Touching node %d failed: %v", node.ID, err)
	}

	label := "legitimate"
	if p.Prediction == domain.PredictionFraud {
		label = "fraud"
	}
	if l.metrics != nil {
		l.metrics.FraudResultsStored.WithLabelValues(label).Inc()
	}
	l.logger.Printf("Added fraud result %d from %s (node_id=%d): %s (time=%s)",
		resultID, p.NodeStringID, node.ID, label, fmtFloat(p.Time))
}

// resolveNode maps a payload's string identifier to its node row. Unknown
// identifiers drop the message; nothing is buffered for later.
func (l *Listener) resolveNode(ctx context.Context, kind, stringID string) (*domain.Node, bool) {
	node, err := l.nodeStore.GetByStringID(ctx, stringID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			l.drop(kind, dropUnknownNode, "Unknown Node_ID %q, skipping message", stringID)
		} else {
			l.drop(kind, dropStorageError, "Resolving Node_ID %q failed: %v", stringID, err)
		}
		return nil, false
	}
	return node, true
}

func (l *Listener) dropDecodeError(kind string, err error) {
	if errors.Is(err, domain.ErrMissingNodeID) {
		l.drop(kind, dropMissingNodeID, "No Node_ID in payload, skipping message")
		return
	}
	l.drop(kind, dropMalformed, "Failed to decode message: %v", err)
}

func (l *Listener) drop(kind, reason, format string, args ...any) {
	l.logger.Printf(format, args...)
	if l.metrics != nil {
		l.metrics.MessagesDropped.WithLabelValues(kind, reason).Inc()
	}
}

func fmtFloat(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
