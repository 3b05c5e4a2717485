package ingestion

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"fog-fraud-lab/internal/bus"
	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage/memory"
)

const (
	testRawTopic     = "fog/transactions/raw"
	testResultsTopic = "fog/transactions/results"
)

type fixture struct {
	bus   *bus.MemoryBus
	store *memory.Store
}

// startListener wires a listener over the in-process bus and memory store,
// registers one node and runs the message loop until the test ends.
func startListener(t *testing.T) (*fixture, context.Context) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &fixture{
		bus:   bus.NewMemoryBus(),
		store: memory.NewStore(),
	}

	l := NewListener(Options{
		Bus:              f.bus,
		NodeStore:        f.store.NodeStore(),
		TransactionStore: f.store.TransactionStore(),
		FraudResultStore: f.store.FraudResultStore(),
		RawTopic:         testRawTopic,
		ResultsTopic:     testResultsTopic,
		Logger:           log.New(io.Discard, "", 0),
	})

	err := l.RegisterNodes(ctx, []*domain.Node{
		{ID: 1, Name: "Fog Node 1", StringID: "Fog_Node_1"},
	})
	if err != nil {
		t.Fatalf("RegisterNodes() error = %v", err)
	}

	// Subscribe synchronously so publishes in the test body cannot race the
	// subscription, then run the message loop in the background.
	if err := l.subscribe(ctx); err != nil {
		t.Fatalf("subscribe() error = %v", err)
	}
	go l.loop(ctx)

	return f, ctx
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func TestListenerStoresRawData(t *testing.T) {
	f, ctx := startListener(t)

	payload := []byte(`{"Time": 70178, "V1": -0.44, "Amount": 11.99, "Node_ID": "Fog_Node_1"}`)
	if err := f.bus.Publish(ctx, testRawTopic, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool {
		count, _ := f.store.TransactionStore().Count(ctx, nil)
		return count == 1
	})

	txs, err := f.store.TransactionStore().All(ctx, nil)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	tx := txs[0]
	if tx.NodeID != 1 {
		t.Errorf("NodeID = %d, want 1", tx.NodeID)
	}
	if tx.Amount == nil || *tx.Amount != 11.99 {
		t.Errorf("Amount = %v, want 11.99", tx.Amount)
	}
	if tx.Features[0] == nil || *tx.Features[0] != -0.44 {
		t.Errorf("V1 = %v, want -0.44", tx.Features[0])
	}
	if tx.Features[1] != nil {
		t.Errorf("V2 = %v, want nil for absent field", tx.Features[1])
	}

	// The node is marked online with a fresh last_seen.
	node, err := f.store.NodeStore().GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if node.Status != domain.StatusOnline {
		t.Errorf("Status = %v, want online", node.Status)
	}
	if node.LastSeen == nil {
		t.Error("LastSeen = nil, want set after ingest")
	}
}

func TestListenerStoresFraudResult(t *testing.T) {
	f, ctx := startListener(t)

	payload := []byte(`{"Node_ID": "Fog_Node_1", "Time": 70178, "Prediction": 1}`)
	if err := f.bus.Publish(ctx, testResultsTopic, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool {
		stats, _ := f.store.FraudResultStore().Stats(ctx, nil)
		return stats.Total == 1
	})

	stats, err := f.store.FraudResultStore().Stats(ctx, nil)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.FraudCount < 1 {
		t.Errorf("FraudCount = %d, want >= 1", stats.FraudCount)
	}

	node, err := f.store.NodeStore().GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if node.Status != domain.StatusOnline {
		t.Errorf("Status = %v, want online", node.Status)
	}
}

func TestListenerDefaultsMissingPrediction(t *testing.T) {
	f, ctx := startListener(t)

	payload := []byte(`{"Node_ID": "Fog_Node_1", "Time": 70178}`)
	if err := f.bus.Publish(ctx, testResultsTopic, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool {
		stats, _ := f.store.FraudResultStore().Stats(ctx, nil)
		return stats.Total == 1
	})

	results, err := f.store.FraudResultStore().All(ctx, nil)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if results[0].Prediction != domain.PredictionLegitimate {
		t.Errorf("Prediction = %d, want defaulted 0", results[0].Prediction)
	}
}

func TestListenerDropsUnknownNode(t *testing.T) {
	f, ctx := startListener(t)

	payload := []byte(`{"Time": 1, "Amount": 2, "Node_ID": "Fog_Node_99"}`)
	if err := f.bus.Publish(ctx, testRawTopic, payload); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	// A valid message after the bad one proves the loop survived.
	good := []byte(`{"Time": 2, "Amount": 3, "Node_ID": "Fog_Node_1"}`)
	if err := f.bus.Publish(ctx, testRawTopic, good); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool {
		count, _ := f.store.TransactionStore().Count(ctx, nil)
		return count == 1
	})

	txs, err := f.store.TransactionStore().All(ctx, nil)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if txs[0].NodeID != 1 {
		t.Errorf("stored NodeID = %d, want only the registered node's row", txs[0].NodeID)
	}
}

func TestListenerSurvivesMalformedMessages(t *testing.T) {
	f, ctx := startListener(t)

	bad := [][]byte{
		[]byte(`{not json`),
		[]byte(`{"Time": 1}`), // no Node_ID
		[]byte(`[]`),
	}
	for _, payload := range bad {
		if err := f.bus.Publish(ctx, testRawTopic, payload); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	good := []byte(`{"Time": 5, "Amount": 1, "Node_ID": "Fog_Node_1"}`)
	if err := f.bus.Publish(ctx, testRawTopic, good); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool {
		count, _ := f.store.TransactionStore().Count(ctx, nil)
		return count == 1
	})
}
