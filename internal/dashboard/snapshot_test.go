package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fog-fraud-lab/internal/domain"
	"fog-fraud-lab/internal/storage/memory"
)

func seededBuilder(t *testing.T) (*Builder, *memory.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	nodes := []*domain.Node{
		{ID: 1, Name: "Fog Node 1", StringID: "Fog_Node_1"},
		{ID: 2, Name: "Fog Node 2", StringID: "Fog_Node_2"},
	}
	for _, n := range nodes {
		if err := store.NodeStore().Upsert(ctx, n); err != nil {
			t.Fatalf("seeding node: %v", err)
		}
	}

	amount := 11.99
	for i := 0; i < 5; i++ {
		if _, err := store.TransactionStore().Insert(ctx, &domain.Transaction{NodeID: 1, Amount: &amount}); err != nil {
			t.Fatalf("seeding transaction: %v", err)
		}
	}
	for _, p := range []int{1, 0, 0, 0} {
		if _, err := store.FraudResultStore().Insert(ctx, &domain.FraudResult{NodeID: 1, Prediction: p}); err != nil {
			t.Fatalf("seeding fraud result: %v", err)
		}
	}

	b := NewBuilder(BuilderOptions{
		NodeStore:        store.NodeStore(),
		TransactionStore: store.TransactionStore(),
		FraudResultStore: store.FraudResultStore(),
		MaxRows:          3,
		OfflineThreshold: time.Minute,
	})
	return b, store, ctx
}

func TestBuilderBuild(t *testing.T) {
	b, store, ctx := seededBuilder(t)

	// Node 1 heard from just now, node 2 never.
	if err := store.NodeStore().Touch(ctx, 1, domain.StatusOnline); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	snap, err := b.Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(snap.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(snap.Nodes))
	}
	if snap.Nodes[0].Status != domain.StatusOnline {
		t.Errorf("node 1 status = %v, want online", snap.Nodes[0].Status)
	}
	if snap.Nodes[1].Status != domain.StatusUnknown {
		t.Errorf("node 2 status = %v, want unknown before first message", snap.Nodes[1].Status)
	}

	if snap.TotalTransactions != 5 {
		t.Errorf("TotalTransactions = %d, want 5", snap.TotalTransactions)
	}
	if len(snap.Transactions) != 3 {
		t.Errorf("len(Transactions) = %d, want capped at 3", len(snap.Transactions))
	}
	if snap.Stats == nil || snap.Stats.FraudRate != 25 {
		t.Errorf("Stats = %+v, want rate 25", snap.Stats)
	}
	if len(snap.FraudByNode) != 1 || snap.FraudByNode[0].NodeID != 1 {
		t.Errorf("FraudByNode = %+v, want node 1 only", snap.FraudByNode)
	}
	if len(snap.VolumeBuckets) == 0 {
		t.Error("VolumeBuckets empty, want at least one bucket")
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestRefresherManualRefresh(t *testing.T) {
	b, _, ctx := seededBuilder(t)

	r := NewRefresher(RefresherOptions{
		Builder:     b,
		Interval:    time.Second,
		AutoRefresh: false,
		Logger:      log.New(io.Discard, "", 0),
	})

	if r.Snapshot() != nil {
		t.Fatal("Snapshot() before first refresh should be nil")
	}
	if err := r.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if r.Snapshot() == nil {
		t.Fatal("Snapshot() nil after refresh")
	}
}

func TestServerEndpoints(t *testing.T) {
	b, _, ctx := seededBuilder(t)

	r := NewRefresher(RefresherOptions{
		Builder:     b,
		Interval:    time.Second,
		AutoRefresh: false,
		Logger:      log.New(io.Discard, "", 0),
	})
	if err := r.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	s := NewServer(ServerOptions{
		Refresher:   r,
		Addr:        ":0",
		PollSeconds: 5,
		AutoRefresh: true,
		Logger:      log.New(io.Discard, "", 0),
	})

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/overview")
	if err != nil {
		t.Fatalf("GET /api/overview: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/overview status = %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding overview: %v", err)
	}
	if snap.TotalTransactions != 5 {
		t.Errorf("TotalTransactions = %d, want 5", snap.TotalTransactions)
	}

	for _, path := range []string{"/", "/api/nodes", "/api/transactions", "/api/fraud-results", "/api/stats", "/healthz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}

	resp, err = http.Post(ts.URL+"/api/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/refresh: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST /api/refresh status = %d", resp.StatusCode)
	}
}

func TestServerBeforeFirstSnapshot(t *testing.T) {
	b, _, _ := seededBuilder(t)

	r := NewRefresher(RefresherOptions{
		Builder: b,
		Logger:  log.New(io.Discard, "", 0),
	})
	s := NewServer(ServerOptions{
		Refresher: r,
		Addr:      ":0",
		Logger:    log.New(io.Discard, "", 0),
	})

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/overview")
	if err != nil {
		t.Fatalf("GET /api/overview: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before first snapshot", resp.StatusCode)
	}
}
