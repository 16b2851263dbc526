package handlers

import (
	"net/http"
)

// MonitorPageHandler serves the live log and activity page
func MonitorPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(monitorPageHTML))
	}
}

var monitorPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>API Tracker Monitor</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; }
        .container { max-width: 1400px; margin: 0 auto; padding: 1.5rem; }
        h1 { font-size: 1.5rem; font-weight: 700; color: white; margin-bottom: 1rem; }
        h2 { font-size: 0.875rem; color: #94a3b8; text-transform: uppercase; margin: 1.5rem 0 0.5rem; }
        .stats { display: grid; grid-template-columns: repeat(5, 1fr); gap: 1rem; }
        .stat { background: #1e293b; border: 1px solid #334155; border-radius: 0.75rem; padding: 1rem; }
        .stat label { display: block; font-size: 0.6875rem; color: #64748b; text-transform: uppercase; }
        .stat .value { font-size: 1.5rem; font-weight: 700; }
        .stat .trend { font-size: 0.75rem; color: #94a3b8; }
        .toolbar { display: flex; gap: 0.5rem; align-items: center; margin-top: 1rem; }
        .btn { padding: 0.5rem 1rem; border-radius: 0.5rem; border: 1px solid #334155; background: #1e293b; color: #94a3b8; cursor: pointer; font-size: 0.875rem; }
        .btn:hover { background: #334155; color: white; }
        .grid { display: grid; grid-template-columns: 2fr 1fr; gap: 1.5rem; }
        .panel { background: #1e293b; border-radius: 0.75rem; border: 1px solid #334155; overflow: hidden; }
        table { width: 100%; border-collapse: collapse; font-size: 0.8125rem; }
        th { padding: 0.75rem 1rem; text-align: left; color: #94a3b8; font-size: 0.6875rem; text-transform: uppercase; background: #0f172a; }
        td { padding: 0.5rem 1rem; border-top: 1px solid #334155; vertical-align: top; }
        .badge { display: inline-block; padding: 0.125rem 0.5rem; border-radius: 0.25rem; font-size: 0.6875rem; font-weight: 600; }
        .badge-error { background: rgba(248,113,113,0.2); color: #f87171; }
        .badge-warning { background: rgba(251,191,36,0.2); color: #fbbf24; }
        .badge-info { background: rgba(96,165,250,0.2); color: #60a5fa; }
        .badge-success { background: rgba(34,197,94,0.2); color: #4ade80; }
        .activity { padding: 0.75rem 1rem; border-top: 1px solid #334155; }
        .activity .title { font-weight: 600; font-size: 0.8125rem; }
        .activity .desc { color: #94a3b8; font-size: 0.75rem; }
        .time { color: #64748b; font-size: 0.75rem; }
        .empty { text-align: center; padding: 2rem; color: #64748b; }
    </style>
</head>
<body>
    <div class="container">
        <h1>API Tracker Monitor</h1>
        <div class="stats">
            <div class="stat"><label>Total Requests</label><div class="value" id="m-total">0</div><div class="trend" id="t-requests"></div></div>
            <div class="stat"><label>Successful</label><div class="value" id="m-success">0</div><div class="trend" id="t-success"></div></div>
            <div class="stat"><label>Errors</label><div class="value" id="m-errors">0</div><div class="trend" id="t-errors"></div></div>
            <div class="stat"><label>Avg Response</label><div class="value" id="m-avg">0ms</div><div class="trend" id="t-response"></div></div>
            <div class="stat"><label>Security Scans</label><div class="value" id="m-scans">0</div></div>
        </div>
        <div class="toolbar">
            <button class="btn" id="toggle" onclick="toggleLogging()">Logging: ...</button>
            <button class="btn" onclick="post('/api/logs/clear')">Clear Logs</button>
            <button class="btn" onclick="post('/api/activities/clear')">Clear Activity</button>
            <button class="btn" onclick="post('/api/metrics/reset')">Reset Metrics</button>
        </div>
        <div class="grid">
            <div>
                <h2>Logs</h2>
                <div class="panel">
                    <table>
                        <thead><tr><th>Level</th><th>Message</th><th>Duration</th><th>Time</th></tr></thead>
                        <tbody id="logs"><tr><td colspan="4" class="empty">No logs yet</td></tr></tbody>
                    </table>
                </div>
            </div>
            <div>
                <h2>Activity</h2>
                <div class="panel" id="activities"><div class="empty">No activity yet</div></div>
            </div>
        </div>
    </div>
    <script>
        let loggingEnabled = true;

        function escapeHtml(str) {
            return String(str || '').replace(/&/g, '&amp;').replace(/</g, '&lt;').replace(/>/g, '&gt;').replace(/"/g, '&quot;');
        }

        async function post(url, body) {
            await fetch(url, { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: body ? JSON.stringify(body) : undefined });
            refresh();
        }

        async function toggleLogging() {
            await post('/api/logging', { enabled: !loggingEnabled });
        }

        async function refresh() {
            try {
                const [status, metrics, logs, acts] = await Promise.all([
                    fetch('/api/logging').then(r => r.json()),
                    fetch('/api/metrics').then(r => r.json()),
                    fetch('/api/logs?limit=100').then(r => r.json()),
                    fetch('/api/activities?limit=50').then(r => r.json()),
                ]);
                loggingEnabled = status.enabled;
                document.getElementById('toggle').textContent = 'Logging: ' + (loggingEnabled ? 'on' : 'off');

                document.getElementById('m-total').textContent = metrics.totalRequests;
                document.getElementById('m-success').textContent = metrics.successfulRequests;
                document.getElementById('m-errors').textContent = metrics.errorRequests;
                document.getElementById('m-avg').textContent = metrics.averageResponseTime + 'ms';
                document.getElementById('m-scans').textContent = metrics.securityScans;
                document.getElementById('t-requests').textContent = metrics.trends.requests;
                document.getElementById('t-success').textContent = metrics.trends.success;
                document.getElementById('t-errors').textContent = metrics.trends.errors;
                document.getElementById('t-response').textContent = metrics.trends.responseTime;

                const tbody = document.getElementById('logs');
                tbody.innerHTML = logs.logs.length === 0 ? '<tr><td colspan="4" class="empty">No logs yet</td></tr>' :
                    logs.logs.map(l => '<tr><td><span class="badge badge-' + l.level + '">' + l.level + '</span></td>' +
                        '<td>' + escapeHtml(l.message) + '</td>' +
                        '<td>' + (l.duration ? l.duration + 'ms' : '-') + '</td>' +
                        '<td class="time">' + new Date(l.timestamp).toLocaleTimeString() + '</td></tr>').join('');

                const panel = document.getElementById('activities');
                panel.innerHTML = acts.activities.length === 0 ? '<div class="empty">No activity yet</div>' :
                    acts.activities.map(a => '<div class="activity"><div class="title">' + escapeHtml(a.title) + '</div>' +
                        '<div class="desc">' + escapeHtml(a.description) + '</div>' +
                        '<div class="time">' + new Date(a.timestamp).toLocaleTimeString() + '</div></div>').join('');
            } catch (e) { console.error(e); }
        }

        window.addEventListener('load', refresh);
        setInterval(refresh, 5000);
    </script>
</body>
</html>`
