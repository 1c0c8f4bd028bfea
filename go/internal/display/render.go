package display

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// DefaultRefreshInterval is how soon the poll page asks the browser to reload
const DefaultRefreshInterval = 100 * time.Millisecond

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Time Hack</title>
<style>
html, body { margin: 0; padding: 0; background-color: #000000; }
.clock { display: flex; flex-direction: column; justify-content: center; align-items: center; min-height: 100vh; background-color: #000000; position: relative; }
.clock.flash { background-color: #ffffff; }
.digits { font-size: 200px; font-weight: bold; font-family: 'Courier New', monospace; color: #ffffff; text-align: center; line-height: 1; letter-spacing: 10px; }
.clock.flash .digits { color: #000000; }
.countdown { font-size: 150px; color: #00ff00; margin-top: 40px; font-family: 'Courier New', monospace; font-weight: bold; }
.status { position: fixed; bottom: 20px; left: 0; right: 0; text-align: center; color: #888888; font-family: 'Courier New', monospace; font-size: 16px; }
</style>
</head>
<body>
<div id="clock" class="clock{{if .Frame.Flashing}} flash{{end}}">
<div id="digits" class="digits">{{.Frame.Digits}}</div>
{{- if .Frame.CountdownVisible}}
<div id="countdown" class="countdown">{{.Frame.CountdownDigit}}</div>
{{- end}}
</div>
<div id="status" class="status">{{.Frame.StatusMessage}}</div>
<script>
setTimeout(function() {
    location.reload();
}, {{.RefreshMillis}});
</script>
</body>
</html>
`

const livePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Time Hack</title>
<style>
html, body { margin: 0; padding: 0; background-color: #000000; }
.clock { display: flex; flex-direction: column; justify-content: center; align-items: center; min-height: 100vh; background-color: #000000; position: relative; }
.clock.flash { background-color: #ffffff; }
.digits { font-size: 200px; font-weight: bold; font-family: 'Courier New', monospace; color: #ffffff; text-align: center; line-height: 1; letter-spacing: 10px; }
.clock.flash .digits { color: #000000; }
.countdown { font-size: 150px; color: #00ff00; margin-top: 40px; font-family: 'Courier New', monospace; font-weight: bold; }
.hidden { display: none; }
.status { position: fixed; bottom: 20px; left: 0; right: 0; text-align: center; color: #888888; font-family: 'Courier New', monospace; font-size: 16px; }
</style>
</head>
<body>
<div id="clock" class="clock">
<div id="digits" class="digits">{{.Frame.Digits}}</div>
<div id="countdown" class="countdown hidden"></div>
</div>
<div id="status" class="status">{{.Frame.StatusMessage}}</div>
<script>
(function() {
    var clock = document.getElementById("clock");
    var digits = document.getElementById("digits");
    var countdown = document.getElementById("countdown");
    var status = document.getElementById("status");

    function apply(frame) {
        digits.textContent = frame.digits;
        status.textContent = frame.status_message;
        clock.classList.toggle("flash", frame.flashing);
        countdown.classList.toggle("hidden", !frame.countdown_visible);
        countdown.textContent = frame.countdown_visible ? frame.countdown_digit : "";
    }

    function connect() {
        var scheme = location.protocol === "https:" ? "wss://" : "ws://";
        var ws = new WebSocket(scheme + location.host + {{.StreamPath}});
        ws.onmessage = function(msg) {
            var data = JSON.parse(msg.data);
            if (data.type === "frame") {
                apply(data.frame);
            }
        };
        ws.onclose = function() {
            setTimeout(connect, {{.RefreshMillis}});
        };
    }

    connect();
})();
</script>
</body>
</html>
`

type pageData struct {
	Frame         Frame
	RefreshMillis int64
	StreamPath    string
}

// Renderer writes HTML documents for a Frame
type Renderer struct {
	page       *template.Template
	live       *template.Template
	refresh    time.Duration
	streamPath string
}

// NewRenderer parses the page templates. refresh is the reload delay the
// poll page embeds; streamPath is the websocket route the live page uses.
func NewRenderer(refresh time.Duration, streamPath string) (*Renderer, error) {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}

	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	live, err := template.New("live").Parse(livePageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse live template: %w", err)
	}

	return &Renderer{
		page:       page,
		live:       live,
		refresh:    refresh,
		streamPath: streamPath,
	}, nil
}

// Render writes the self-reloading clock page
func (r *Renderer) Render(w io.Writer, frame Frame) error {
	return r.page.Execute(w, r.data(frame))
}

// RenderLive writes the websocket-driven clock page
func (r *Renderer) RenderLive(w io.Writer, frame Frame) error {
	return r.live.Execute(w, r.data(frame))
}

func (r *Renderer) data(frame Frame) pageData {
	return pageData{
		Frame:         frame,
		RefreshMillis: r.refresh.Milliseconds(),
		StreamPath:    r.streamPath,
	}
}
