package report

import (
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/kx0101/subdiff/internal/models"
)

type ReportData struct {
	GeneratedAt string
	RunID       string
	Duration    time.Duration
	Summary     models.Summary
	Sides       []models.Side
	Suites      []models.SuiteResult
}

func GenerateHTML(run models.RunData, outputPath string) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"statusClass": statusClass,
		"httpClass":   httpClass,
		"side":        side,
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	data := ReportData{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		RunID:       run.RunID,
		Duration:    run.Duration.Round(time.Millisecond),
		Summary:     run.Summary,
		Sides:       models.Sides,
		Suites:      run.Suites,
	}

	if err := tmpl.Execute(file, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

// statusClass maps a case status to a badge colour.
func statusClass(r models.CaseResult) string {
	switch {
	case r.Failed():
		return "error"
	case r.Skipped(), strings.HasPrefix(r.Comparison, "REF_"), strings.HasPrefix(r.Comparison, "SIZE_MISMATCH"):
		return "warning"
	default:
		return "success"
	}
}

func httpClass(resp models.Response) string {
	switch {
	case resp.FetchFailed():
		return "error"
	case resp.Status == 200:
		return "success"
	case resp.Status < 500:
		return "warning"
	default:
		return "error"
	}
}

func side(r models.CaseResult, s models.Side) models.Response {
	return r.Responses[s]
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Subscription Diff Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: #f5f7fa;
            color: #2d3748;
            padding: 2rem;
        }
        .container { max-width: 1400px; margin: 0 auto; }
        .header, .section, .stat-card {
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        .header { padding: 2rem; margin-bottom: 2rem; }
        h1 { color: #1a202c; font-size: 2rem; margin-bottom: 0.5rem; }
        .meta { color: #718096; font-size: 0.9rem; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .stat-card { padding: 1.5rem; }
        .stat-value { font-size: 2rem; font-weight: bold; margin-bottom: 0.25rem; }
        .stat-label { color: #718096; font-size: 0.875rem; }
        .stat-value.success { color: #48bb78; }
        .stat-value.error { color: #f56565; }
        .stat-value.warning { color: #ed8936; }
        .section { padding: 1.5rem; margin-bottom: 2rem; overflow-x: auto; }
        .section-title { font-size: 1.25rem; font-weight: 600; margin-bottom: 1rem; }
        .section-title .scenario { color: #718096; font-weight: 400; font-size: 0.9rem; }
        table { width: 100%; border-collapse: collapse; }
        th, td {
            padding: 0.75rem;
            text-align: left;
            border-bottom: 1px solid #e2e8f0;
            vertical-align: top;
        }
        th {
            background: #f7fafc;
            font-weight: 600;
            color: #4a5568;
            font-size: 0.8rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            white-space: nowrap;
        }
        tr:hover { background: #f7fafc; }
        .status-badge {
            display: inline-block;
            padding: 0.2rem 0.7rem;
            border-radius: 9999px;
            font-size: 0.8rem;
            font-weight: 500;
        }
        .status-success { background: #c6f6d5; color: #22543d; }
        .status-warning { background: #feebc8; color: #7c2d12; }
        .status-error { background: #fed7d7; color: #742a2a; }
        .code {
            font-family: 'Menlo', 'Monaco', 'Courier New', monospace;
            font-size: 0.85rem;
            word-break: break-word;
        }
        .failure { color: #9b2c2c; font-size: 0.85rem; margin-top: 0.25rem; }
        .side-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(300px, 1fr));
            gap: 1rem;
        }
        .side-card {
            background: #f7fafc;
            padding: 1rem;
            border-radius: 6px;
            border-left: 4px solid #4299e1;
        }
        .latency-row { display: flex; justify-content: space-between; font-size: 0.875rem; margin: 0.25rem 0; }
        .latency-label { color: #718096; }
        .latency-value { font-weight: 600; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Subscription Diff Report</h1>
            <div class="meta">Generated: {{.GeneratedAt}} | Run: {{.RunID}} | Duration: {{.Duration}}</div>
        </div>

        <div class="stats-grid">
            <div class="stat-card">
                <div class="stat-value">{{.Summary.TotalCases}}</div>
                <div class="stat-label">Total Cases</div>
            </div>
            <div class="stat-card">
                <div class="stat-value success">{{.Summary.Passed}}</div>
                <div class="stat-label">Passed</div>
            </div>
            <div class="stat-card">
                <div class="stat-value error">{{.Summary.Failed}}</div>
                <div class="stat-label">Failed</div>
            </div>
            <div class="stat-card">
                <div class="stat-value warning">{{.Summary.Skipped}}</div>
                <div class="stat-label">Skipped</div>
            </div>
        </div>

        <div class="section">
            <div class="section-title">Services</div>
            <div class="side-grid">
                {{range $name, $stats := .Summary.BySide}}
                <div class="side-card">
                    <div class="latency-value">{{$name}}</div>
                    <div class="latency-row"><span class="latency-label">Requests:</span><span class="latency-value">{{$stats.Requests}}</span></div>
                    <div class="latency-row"><span class="latency-label">Fetch errors:</span><span class="latency-value">{{$stats.FetchErrors}}</span></div>
                    <div class="latency-row"><span class="latency-label">Avg latency:</span><span class="latency-value">{{$stats.Latency.Avg}}ms</span></div>
                    <div class="latency-row"><span class="latency-label">p95:</span><span class="latency-value">{{$stats.Latency.P95}}ms</span></div>
                    <div class="latency-row"><span class="latency-label">Max:</span><span class="latency-value">{{$stats.Latency.Max}}ms</span></div>
                </div>
                {{end}}
            </div>
        </div>

        {{range .Suites}}
        <div class="section">
            <div class="section-title">
                {{.Name}}{{if .Scenario}} <span class="scenario">scenario: {{.Scenario}}</span>{{end}}
                {{if .Failures}}<span class="status-badge status-error">{{len .Failures}} failures</span>{{end}}
            </div>
            {{if .Error}}<div class="failure">{{.Error}}</div>{{end}}
            <table>
                <thead>
                    <tr>
                        <th>Case</th>
                        <th>Dialect</th>
                        <th>Outcome</th>
                        {{range $.Sides}}<th>{{.}}</th>{{end}}
                    </tr>
                </thead>
                <tbody>
                    {{range $r := .Results}}
                    <tr>
                        <td><span class="code">{{$r.ID}}</span></td>
                        <td>{{$r.Dialect}}</td>
                        <td>
                            <span class="status-badge status-{{statusClass $r}}">{{$r.Status}}</span>
                            <span class="code">{{$r.Comparison}}</span>
                            {{if $r.Failure}}<div class="failure">{{$r.Failure}}</div>{{end}}
                        </td>
                        {{range $s := $.Sides}}
                        {{$resp := side $r $s}}
                        <td>
                            {{if $resp.FetchFailed}}
                            <span class="status-badge status-error">ERR</span>
                            <div class="failure">{{$resp.Err}}</div>
                            {{else}}
                            <span class="status-badge status-{{httpClass $resp}}">{{$resp.Status}}</span>
                            {{end}}
                            <br><small>{{$resp.LatencyMs}}ms{{with index $r.Nodes $s}}, {{.}} nodes{{end}}</small>
                        </td>
                        {{end}}
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}
    </div>
</body>
</html>`
