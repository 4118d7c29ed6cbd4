package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// WebSocket upgrader for real-time stats
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// statsPushInterval is how often /ws pushes fresh stats.
const statsPushInterval = time.Second

type healthOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

type statusOutput struct {
	Body ServiceStats
}

type snapshotOutput struct {
	Body Snapshot
}

type healthPanelOutput struct {
	Body HealthPanel
}

type probeOutput struct {
	Body struct {
		Available bool `json:"available"`
		DemoMode  bool `json:"demo_mode"`
	}
}

// newStatusHandler builds the status API: JSON routes through huma, plus the
// event stream, the stats websocket, metrics and the HTML page on chi.
func (r *Runner) newStatusHandler() http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(r.requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("txlive status API", BuildCommit)
	api := humachi.New(router, cfg)

	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Liveness check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "status", Method: http.MethodGet, Path: "/api/status", Summary: "Service, backend and channel status", Tags: []string{"Status"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			return &statusOutput{Body: r.GetStats()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "snapshot", Method: http.MethodGet, Path: "/api/snapshot", Summary: "Latest polled dashboard snapshot", Tags: []string{"Dashboard"}},
		func(ctx context.Context, input *struct{}) (*snapshotOutput, error) {
			return &snapshotOutput{Body: r.dashboard.Snapshot()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "health-panel", Method: http.MethodGet, Path: "/api/health-panel", Summary: "Latest backend health panel", Tags: []string{"Dashboard"}},
		func(ctx context.Context, input *struct{}) (*healthPanelOutput, error) {
			return &healthPanelOutput{Body: r.dashboard.HealthPanel()}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "probe-backend", Method: http.MethodPost, Path: "/api/backend/probe", Summary: "Probe the backend now", Tags: []string{"Status"}},
		func(ctx context.Context, input *struct{}) (*probeOutput, error) {
			gw := r.clients.Gateway
			if gw.DemoModeConfigured() {
				return nil, huma.Error409Conflict("demo mode is configured; the backend is never contacted")
			}
			out := &probeOutput{}
			out.Body.Available = gw.Probe(ctx)
			out.Body.DemoMode = gw.IsDemoMode()
			return out, nil
		})

	router.Get("/api/events", SSEHandler(r.broker))
	router.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	// WebSocket endpoint for real-time stats
	router.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, req, nil)
		if err != nil {
			r.clients.Logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(statsPushInterval)
		defer ticker.Stop()

		for {
			if err := conn.WriteJSON(r.GetStats()); err != nil {
				return // Client disconnected
			}
			select {
			case <-req.Context().Done():
				return
			case <-ticker.C:
			}
		}
	})

	// HTML dashboard
	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(dashboardHTML))
	})

	return router
}

func (r *Runner) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		r.clients.Logger.Debug("http request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", middleware.GetReqID(req.Context())),
		)
	})
}

// startStatusServer starts an HTTP server for health checks, stats and the event stream.
func (r *Runner) startStatusServer(port int) {
	r.statusServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r.newStatusHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := r.statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.clients.Logger.Error("status server error", zap.Error(err))
		}
	}()
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>txlive</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --border-color: #30363d;
            --text-primary: #c9d1d9;
            --text-secondary: #8b949e;
            --accent-blue: #58a6ff;
            --accent-green: #3fb950;
            --accent-red: #f85149;
            --accent-yellow: #d29922;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, monospace; background: var(--bg-primary); color: var(--text-primary); padding: 20px; line-height: 1.5; }
        h1 { color: var(--accent-blue); margin-bottom: 20px; font-size: 24px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; }
        .card { background: var(--bg-secondary); border: 1px solid var(--border-color); border-radius: 8px; padding: 16px; }
        .card h3 { color: var(--accent-blue); font-size: 16px; margin-bottom: 12px; }
        .row { display: flex; justify-content: space-between; padding: 4px 0; }
        .label { color: var(--text-secondary); }
        .green { color: var(--accent-green); }
        .red { color: var(--accent-red); }
        .yellow { color: var(--accent-yellow); }
        #events { font-size: 12px; max-height: 320px; overflow-y: auto; }
    </style>
</head>
<body>
    <h1>txlive</h1>
    <div class="grid">
        <div class="card">
            <h3>Backend</h3>
            <div class="row"><span class="label">Available</span><span id="available">-</span></div>
            <div class="row"><span class="label">Demo mode</span><span id="demo">-</span></div>
            <div class="row"><span class="label">Channel</span><span id="channel">-</span></div>
            <div class="row"><span class="label">Viewers</span><span id="viewers">-</span></div>
            <div class="row"><span class="label">Uptime</span><span id="uptime">-</span></div>
        </div>
        <div class="card">
            <h3>Movers</h3>
            <div id="movers"></div>
        </div>
        <div class="card">
            <h3>Live events</h3>
            <div id="events"></div>
        </div>
    </div>
    <script>
        function flag(el, ok, yes, no) {
            el.textContent = ok ? yes : no;
            el.className = ok ? 'green' : 'red';
        }
        async function refresh() {
            const stats = await (await fetch('/api/status')).json();
            flag(document.getElementById('available'), stats.backend.available, 'yes', 'no');
            flag(document.getElementById('demo'), !stats.backend.demo_mode, 'off', 'on');
            const ch = document.getElementById('channel');
            ch.textContent = stats.channel.state;
            ch.className = stats.channel.connected ? 'green' : (stats.channel.simulated ? 'yellow' : 'red');
            document.getElementById('viewers').textContent = stats.viewers;
            document.getElementById('uptime').textContent = stats.uptime;

            const snap = await (await fetch('/api/snapshot')).json();
            document.getElementById('movers').innerHTML = (snap.movers || []).map(m =>
                '<div class="row"><span>' + m.symbol + '</span><span class="' + (m.change_pct >= 0 ? 'green' : 'red') + '">' +
                m.change_pct.toFixed(2) + '%</span></div>').join('');
        }
        const events = new EventSource('/api/events');
        ['scan_update', 'pattern_alert', 'connection_status'].forEach(feed => {
            events.addEventListener(feed, e => {
                const box = document.getElementById('events');
                const line = document.createElement('div');
                line.textContent = new Date().toLocaleTimeString() + ' ' + feed + ' ' + e.data;
                box.prepend(line);
                while (box.childNodes.length > 50) box.removeChild(box.lastChild);
            });
        });
        events.addEventListener('snapshot', refresh);
        refresh();
        setInterval(refresh, 5000);
    </script>
</body>
</html>`
