package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/tankd/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
	"days": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
}).Parse(indexHTML))

func renderHTML(w io.Writer, snap status.Snapshot) {
	if err := indexTmpl.Execute(w, snap); err != nil {
		log.Printf("render status page: %v", err)
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>tankd</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2em auto; max-width: 40em; padding: 0 1em; background: #111; color: #eee; }
h1 { font-size: 1.3em; }
table { border-collapse: collapse; width: 100%; }
td { padding: 0.35em 0.5em; border-bottom: 1px solid #333; }
td:first-child { color: #999; width: 45%; }
.on { color: #4c4; font-weight: bold; }
.off { color: #888; }
.bad { color: #e55; font-weight: bold; }
.bar { background: #333; height: 1.2em; border-radius: 3px; overflow: hidden; }
.bar div { background: #36c; height: 100%; }
</style>
</head>
<body>
<h1>Water tank</h1>
<div class="bar"><div style="width: {{printf "%.1f" .Level.Smoothed}}%"></div></div>
<table>
<tr><td>Level</td><td>{{pct .Level.Smoothed}}</td></tr>
<tr><td>Pump</td><td class="{{if eq .Pump "ON"}}on{{else}}off{{end}}">{{.Pump}}</td></tr>
{{if .Faulted}}<tr><td>Sensor</td><td class="bad">FAULTED</td></tr>{{end}}
<tr><td>Scan mode</td><td>{{.ScanMode}}</td></tr>
{{with .LastScan}}<tr><td>Last leak scan</td><td>{{.Classification}}</td></tr>{{end}}
<tr><td>Consumed today</td><td>{{pct .Today.Percent}}</td></tr>
{{if .PredictionOK}}<tr><td>Days remaining</td><td>{{days .DaysRemaining}}</td></tr>{{else}}<tr><td>Days remaining</td><td>insufficient data</td></tr>{{end}}
<tr><td>MQTT</td><td>{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><td>Uptime</td><td>{{uptime .Uptime}}</td></tr>
</table>
</body>
</html>
`
