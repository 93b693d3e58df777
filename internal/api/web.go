package api

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/chart"
	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/pkg/version"
)

// DashboardData holds the data rendered by the dashboard template.
type DashboardData struct {
	Version    string
	LastUpdate string
	AutoReload bool
	From       string
	To         string
	KPIs       []KPICard
	Charts     []ChartCard
}

// KPICard is one headline figure.
type KPICard struct {
	ID    string
	Label string
	Value string
	Class string
}

// ChartCard is one chart panel. Inline holds SVG markup; other content
// types are linked through /charts/{surface}.
type ChartCard struct {
	Surface string
	Title   string
	Inline  template.HTML
	Linked  bool
}

var kpiLabels = []struct {
	id, label, class string
}{
	{dashboard.FieldTotal, "Total ridership", "total"},
	{dashboard.FieldAverage, "Daily average", "average"},
	{dashboard.FieldStation, "Busiest station", "station"},
	{dashboard.FieldLine, "Busiest line", "line"},
}

var chartTitles = []struct {
	surface, title string
}{
	{dashboard.SurfaceTrend, "Ridership trend"},
	{dashboard.SurfaceLines, "Top lines"},
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardTemplate))

// handleDashboard renders the dashboard page from the current document.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := s.getDashboardData()

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("Failed to render dashboard", zap.Error(err))
		http.Error(w, "Failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// getDashboardData collects all data needed for the dashboard.
func (s *Server) getDashboardData() DashboardData {
	doc := s.ctrl.Document()
	snap := doc.Snapshot()

	data := DashboardData{
		Version:    version.GetShortVersion(),
		LastUpdate: time.Now().Local().Format("15:04:05"),
		From:       snap.Inputs[dashboard.InputFrom],
		To:         snap.Inputs[dashboard.InputTo],
	}
	if s.scheduler != nil && s.scheduler.GetStatus().Running {
		data.AutoReload = true
	}

	for _, k := range kpiLabels {
		value := snap.Fields[k.id]
		if value == "" {
			value = "-"
		}
		data.KPIs = append(data.KPIs, KPICard{ID: k.id, Label: k.label, Value: value, Class: k.class})
	}

	for _, c := range chartTitles {
		card := ChartCard{Surface: c.surface, Title: c.title}
		if img, ok := doc.Surface(c.surface); ok {
			if img.ContentType == chart.ContentTypeSVG {
				// Produced by the SVG engine, which escapes every label.
				card.Inline = template.HTML(img.Data)
			} else {
				card.Linked = true
			}
		}
		data.Charts = append(data.Charts, card)
	}

	return data
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    {{if .AutoReload}}<meta http-equiv="refresh" content="60">{{end}}
    <title>MetroFlow Dashboard</title>
    <style>
        :root {
            --bg-dark: #0a0a0f;
            --bg-card: #12121a;
            --text-primary: #e4e4e7;
            --text-secondary: #a1a1aa;
            --text-muted: #71717a;
            --accent-orange: #ff9a44;
            --accent-rose: #fc6076;
            --border: #27272a;
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: var(--bg-dark);
            color: var(--text-primary);
            min-height: 100vh;
        }

        .container { max-width: 1400px; margin: 0 auto; padding: 2rem; }

        header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 2rem;
            padding-bottom: 1.5rem;
            border-bottom: 1px solid var(--border);
        }

        .logo { display: flex; align-items: center; gap: 1rem; }

        .logo h1 {
            font-size: 1.75rem;
            font-weight: 700;
            background: linear-gradient(135deg, var(--accent-orange), var(--accent-rose));
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
        }

        .logo .version {
            background: linear-gradient(135deg, var(--accent-orange), var(--accent-rose));
            color: white;
            padding: 0.25rem 0.75rem;
            border-radius: 2rem;
            font-size: 0.75rem;
            font-weight: 600;
        }

        .header-info { color: var(--text-secondary); font-size: 0.875rem; }

        .filters {
            display: flex;
            flex-wrap: wrap;
            gap: 1rem;
            align-items: flex-end;
            margin-bottom: 2rem;
        }

        .filters label {
            display: flex;
            flex-direction: column;
            gap: 0.35rem;
            color: var(--text-secondary);
            font-size: 0.8rem;
        }

        .filters input {
            background: var(--bg-card);
            border: 1px solid var(--border);
            color: var(--text-primary);
            border-radius: 0.5rem;
            padding: 0.5rem 0.75rem;
        }

        .filters button {
            border: none;
            border-radius: 0.5rem;
            padding: 0.55rem 1.25rem;
            font-weight: 600;
            cursor: pointer;
        }

        .filters .apply { background: var(--accent-orange); color: #111; }
        .filters .reset { background: var(--bg-card); color: var(--text-secondary); border: 1px solid var(--border); }

        .kpi-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 1.5rem;
            margin-bottom: 2rem;
        }

        .kpi-card, .chart-card {
            background: var(--bg-card);
            border: 1px solid var(--border);
            border-radius: 1rem;
            padding: 1.25rem 1.5rem;
        }

        .kpi-value { font-size: 1.75rem; font-weight: 700; margin-bottom: 0.25rem; }
        .kpi-label { color: var(--text-muted); font-size: 0.8rem; text-transform: uppercase; letter-spacing: 0.05em; }
        .kpi-card.total .kpi-value { color: var(--accent-orange); }
        .kpi-card.line .kpi-value { color: var(--accent-rose); }

        .chart-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(480px, 1fr));
            gap: 1.5rem;
        }

        .chart-card h2 { font-size: 1rem; font-weight: 600; margin-bottom: 1rem; color: var(--text-secondary); }
        .chart-card svg, .chart-card img { width: 100%; height: auto; display: block; }
        .chart-card .empty { color: var(--text-muted); padding: 3rem 0; text-align: center; }

        footer {
            margin-top: 3rem;
            padding-top: 1.5rem;
            border-top: 1px solid var(--border);
            color: var(--text-muted);
            font-size: 0.8rem;
            display: flex;
            justify-content: space-between;
        }

        footer a { color: var(--text-secondary); }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <div class="logo">
                <h1>MetroFlow</h1>
                <span class="version">{{.Version}}</span>
            </div>
            <div class="header-info">Updated {{.LastUpdate}}</div>
        </header>

        <form class="filters" method="post" action="/filters/apply">
            <label>From
                <input type="date" id="date-from" name="date-from" value="{{.From}}">
            </label>
            <label>To
                <input type="date" id="date-to" name="date-to" value="{{.To}}">
            </label>
            <button class="apply" type="submit">Apply</button>
            <button class="reset" type="submit" formaction="/filters/reset">Reset</button>
        </form>

        <section class="kpi-grid">
            {{range .KPIs}}
            <div class="kpi-card {{.Class}}">
                <div class="kpi-value" id="{{.ID}}">{{.Value}}</div>
                <div class="kpi-label">{{.Label}}</div>
            </div>
            {{end}}
        </section>

        <section class="chart-grid">
            {{range .Charts}}
            <div class="chart-card" id="{{.Surface}}">
                <h2>{{.Title}}</h2>
                {{if .Inline}}{{.Inline}}
                {{else if .Linked}}<img src="/charts/{{.Surface}}" alt="{{.Title}}">
                {{else}}<div class="empty">No data yet</div>{{end}}
            </div>
            {{end}}
        </section>

        <footer>
            <span>MetroFlow {{.Version}}</span>
            <span><a href="/api/state">State</a> · <a href="/api/cycles">Cycles</a> · <a href="/metrics">Metrics</a></span>
        </footer>
    </div>
</body>
</html>
`
