package dashboard

import (
	"html/template"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Fog Fraud Monitoring</title>
<style>
  body { font-family: sans-serif; margin: 2rem; background: #f5f5f5; }
  h1 { margin-bottom: 0.25rem; }
  .meta { color: #666; margin-bottom: 1.5rem; }
  table { border-collapse: collapse; background: #fff; margin-bottom: 2rem; width: 100%; }
  th, td { border: 1px solid #ddd; padding: 0.4rem 0.8rem; text-align: left; }
  th { background: #eee; }
  .online { color: #2e7d32; font-weight: bold; }
  .warning { color: #f9a825; font-weight: bold; }
  .offline { color: #c62828; font-weight: bold; }
  .unknown { color: #999; }
  .fraud { background: #ffebee; }
</style>
</head>
<body>
<h1>Fog Fraud Monitoring</h1>
<div class="meta" id="meta">loading&hellip;</div>

<h2>Fog Nodes</h2>
<table id="nodes"><thead><tr>
  <th>ID</th><th>Name</th><th>Location</th><th>Status</th><th>Last Seen</th>
</tr></thead><tbody></tbody></table>

<h2>Fraud Statistics</h2>
<table id="stats"><thead><tr>
  <th>Total Results</th><th>Fraud Detected</th><th>Fraud Rate</th>
</tr></thead><tbody></tbody></table>

<h2>Fraud Rate by Node</h2>
<table id="byNode"><thead><tr>
  <th>Node</th><th>Results</th><th>Fraud</th><th>Rate</th>
</tr></thead><tbody></tbody></table>

<h2>Recent Transactions</h2>
<table id="transactions"><thead><tr>
  <th>ID</th><th>Node</th><th>Amount</th><th>Ingested</th>
</tr></thead><tbody></tbody></table>

<script>
const POLL_SECONDS = {{.PollSeconds}};
const AUTO = {{.AutoRefresh}};

function cell(text, cls) {
  const td = document.createElement("td");
  td.textContent = text;
  if (cls) td.className = cls;
  return td;
}

function fill(id, rows) {
  const body = document.querySelector("#" + id + " tbody");
  body.replaceChildren(...rows);
}

async function refresh() {
  const resp = await fetch("/api/overview");
  if (!resp.ok) return;
  const snap = await resp.json();

  document.getElementById("meta").textContent =
    "Total transactions: " + snap.total_transactions +
    " | Updated: " + new Date(snap.generated_at).toLocaleTimeString();

  fill("nodes", snap.nodes.map(n => {
    const tr = document.createElement("tr");
    tr.append(cell(n.id), cell(n.name), cell(n.location),
      cell(n.status, n.status),
      cell(n.last_seen ? new Date(n.last_seen).toLocaleString() : "never"));
    return tr;
  }));

  const st = document.createElement("tr");
  st.append(cell(snap.stats.total), cell(snap.stats.fraud_count),
    cell(snap.stats.fraud_rate.toFixed(2) + "%"));
  fill("stats", [st]);

  fill("byNode", (snap.fraud_by_node || []).map(n => {
    const tr = document.createElement("tr");
    tr.append(cell(n.node_name || n.node_id), cell(n.total),
      cell(n.fraud_count), cell(n.fraud_rate.toFixed(2) + "%"));
    return tr;
  }));

  fill("transactions", (snap.transactions || []).map(t => {
    const tr = document.createElement("tr");
    tr.append(cell(t.id), cell(t.node_name || t.node_id),
      cell(t.amount == null ? "" : t.amount.toFixed(2)),
      cell(new Date(t.ingested_at).toLocaleString()));
    return tr;
  }));
}

refresh();
if (AUTO) setInterval(refresh, POLL_SECONDS * 1000);
</script>
</body>
</html>
`))

type pageData struct {
	PollSeconds int
	AutoRefresh bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{PollSeconds: s.pollSeconds, AutoRefresh: s.autoRefresh}
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Printf("Rendering index page failed: %v", err)
	}
}
