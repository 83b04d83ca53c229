package report

// htmlTemplate is the main HTML template for the report
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f8fafc;
            --bg-card: #ffffff;
            --text-primary: #1e293b;
            --text-secondary: #64748b;
            --border-color: #e2e8f0;
            --accent-primary: #3b82f6;
            --accent-success: #22c55e;
            --accent-error: #ef4444;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }

        [data-theme="dark"] {
            --bg-primary: #0f172a;
            --bg-secondary: #1e293b;
            --bg-card: #1e293b;
            --text-primary: #f1f5f9;
            --text-secondary: #94a3b8;
            --border-color: #334155;
            --shadow: 0 1px 3px rgba(0, 0, 0, 0.3);
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background-color: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }

        .header {
            background: var(--bg-card);
            border-radius: 12px;
            padding: 2rem;
            margin-bottom: 2rem;
            box-shadow: var(--shadow);
            display: flex;
            justify-content: space-between;
            align-items: center;
            flex-wrap: wrap;
            gap: 1rem;
        }

        .header h1 { font-size: 1.75rem; font-weight: 700; }
        .header .meta { color: var(--text-secondary); font-size: 0.875rem; margin-top: 0.5rem; }

        .status { padding: 0.75rem 1.5rem; border-radius: 8px; font-weight: 600; }
        .status.pass { background: rgba(34, 197, 94, 0.1); color: var(--accent-success); }
        .status.fail { background: rgba(239, 68, 68, 0.1); color: var(--accent-error); }

        .theme-toggle {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            color: var(--text-primary);
            border-radius: 8px;
            padding: 0.5rem 1rem;
            cursor: pointer;
        }

        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }

        .metric-card {
            background: var(--bg-card);
            border-radius: 12px;
            padding: 1.5rem;
            box-shadow: var(--shadow);
            text-align: center;
        }

        .metric-label { color: var(--text-secondary); font-size: 0.875rem; }
        .metric-value { font-size: 1.75rem; font-weight: 700; margin-top: 0.25rem; }

        .charts { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; margin-bottom: 1rem; }
        @media (max-width: 800px) { .charts { grid-template-columns: 1fr; } }

        .chart-container {
            background: var(--bg-card);
            border-radius: 12px;
            padding: 1.5rem;
            box-shadow: var(--shadow);
            margin-bottom: 1rem;
        }

        .chart-container h3 { font-size: 1rem; margin-bottom: 1rem; }
        .note { color: var(--text-secondary); font-size: 0.8rem; margin-top: 0.5rem; }

        table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
        th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid var(--border-color); }
        td.pass { color: var(--accent-success); font-weight: 600; }
        td.fail { color: var(--accent-error); font-weight: 600; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <div>
                <h1>{{.Title}}</h1>
                <div class="meta">
                    <span><strong>Generated:</strong> {{formatTime .Generated}}</span>
                    &nbsp;&middot;&nbsp;
                    <span><strong>Test Duration:</strong> {{formatFixed .Headline.TestDurationSec 2}}s</span>
                </div>
            </div>
            <div>
                {{if .Thresholds}}
                <span class="status {{if .Passed}}pass{{else}}fail{{end}}">{{if .Passed}}Thresholds passed{{else}}Thresholds failed{{end}}</span>
                {{end}}
                <button class="theme-toggle" onclick="toggleTheme()">Theme</button>
            </div>
        </div>

        <div class="metrics-grid">
            <div class="metric-card">
                <div class="metric-label">Total Requests</div>
                <div class="metric-value" id="total-requests">{{formatNumber .Headline.TotalRequests}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Success Rate</div>
                <div class="metric-value" id="success-rate">{{formatFixed .Headline.SuccessRatePct 1}}%</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Avg Response Time</div>
                <div class="metric-value" id="avg-latency">{{formatFixed .Headline.AvgLatencyMs 2}}ms</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Failed Requests</div>
                <div class="metric-value" id="failed-rate">{{formatFixed .Headline.FailureRatePct 1}}%</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">PRs Created</div>
                <div class="metric-value" id="prs-created">{{formatNumber .Headline.PRsCreated}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Errors</div>
                <div class="metric-value" id="errors">{{formatNumber .Headline.Errors}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">PR Creation Success</div>
                <div class="metric-value" id="pr-success-rate">{{formatFixed .Headline.PRSuccessRatePct 1}}%</div>
            </div>
        </div>

        <div class="charts">
            <div class="chart-container">
                <h3>Response Time Percentiles</h3>
                <canvas id="percentileChart"></canvas>
            </div>
            <div class="chart-container">
                <h3>Request Success/Failure</h3>
                <canvas id="requestsChart"></canvas>
            </div>
        </div>

        <div class="chart-container">
            <h3>Response Time Distribution</h3>
            <canvas id="distributionChart"></canvas>
            <p class="note">Interpolated from min, median, p90, p95 and max; not an empirical distribution.</p>
        </div>

        {{if .Thresholds}}
        <div class="chart-container">
            <h3>Thresholds</h3>
            <table>
                <thead><tr><th>Metric</th><th>Expression</th><th>Actual</th><th>Result</th></tr></thead>
                <tbody>
                {{range .Thresholds}}
                <tr>
                    <td>{{.Metric}}</td>
                    <td><code>{{.Expression}}</code></td>
                    <td>{{formatFixed .Actual 4}}</td>
                    <td class="{{if .Passed}}pass{{else}}fail{{end}}">{{if .Passed}}PASS{{else}}FAIL{{end}}</td>
                </tr>
                {{end}}
                </tbody>
            </table>
        </div>
        {{end}}
    </div>

    <script>
        const percentileData = {{.PercentilesJSON}};
        const checksData = {{.ChecksJSON}};
        const distributionData = {{.DistributionJSON}};

        function toggleTheme() {
            const html = document.documentElement;
            const next = html.getAttribute('data-theme') === 'dark' ? 'light' : 'dark';
            html.setAttribute('data-theme', next);
            localStorage.setItem('theme', next);
        }
        document.documentElement.setAttribute('data-theme', localStorage.getItem('theme') || 'light');

        if (typeof Chart !== 'undefined') {
            new Chart(document.getElementById('percentileChart'), {
                type: 'bar',
                data: {
                    labels: percentileData.labels,
                    datasets: [{
                        label: 'Response Time (ms)',
                        data: percentileData.data,
                        backgroundColor: 'rgba(59, 130, 246, 0.5)',
                        borderColor: 'rgba(59, 130, 246, 1)',
                        borderWidth: 1
                    }]
                },
                options: { responsive: true, scales: { y: { beginAtZero: true } } }
            });

            new Chart(document.getElementById('requestsChart'), {
                type: 'doughnut',
                data: {
                    labels: checksData.labels,
                    datasets: [{ data: checksData.data, backgroundColor: ['#22c55e', '#ef4444'] }]
                },
                options: { responsive: true }
            });

            new Chart(document.getElementById('distributionChart'), {
                type: 'line',
                data: {
                    labels: distributionData.labels,
                    datasets: [{
                        label: 'Response Time Distribution (ms)',
                        data: distributionData.data,
                        borderColor: 'rgb(236, 72, 153)',
                        backgroundColor: 'rgba(236, 72, 153, 0.1)',
                        tension: 0.1,
                        fill: true
                    }]
                },
                options: { responsive: true, scales: { y: { beginAtZero: true } } }
            });
        }
    </script>
</body>
</html>
`

// fallbackTemplate is used when htmlTemplate cannot be rendered. It is filled
// with fmt.Sprintf: title, generated time, then the three dataset literals.
const fallbackTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>%s</title>
</head>
<body>
    <h1>%s</h1>
    <p>Generated: %s</p>
    <p>The full report could not be rendered; raw chart data follows.</p>
    <script>
        const percentileData = %s;
        const checksData = %s;
        const distributionData = %s;
    </script>
</body>
</html>
`
