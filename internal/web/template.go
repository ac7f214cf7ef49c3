package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/oven-controller/internal/status"
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
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Oven Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.fault { color: red; font-weight: bold; }
.ok { color: green; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Oven Controller</h1>

<h2>Heating</h2>
<table>
<tr><th>State</th><td>{{.Oven.State}}</td></tr>
<tr><th>Temperature</th><td>{{printf "%.1f" .Oven.TemperatureC}} &deg;C</td></tr>
<tr><th>Target</th><td>{{printf "%.1f" .Params.TempTargetC}} &plusmn; {{printf "%.1f" .Params.TempDeltaC}} &deg;C</td></tr>
<tr><th>Gas Valve</th><td class="{{if .Oven.GasOn}}on{{else}}off{{end}}">{{onOff .Oven.GasOn}}</td></tr>
<tr><th>Igniter</th><td class="{{if .Oven.IgniterOn}}on{{else}}off{{end}}">{{onOff .Oven.IgniterOn}}</td></tr>
<tr><th>Door</th><td>{{if .Oven.DoorOpen}}OPEN{{else}}CLOSED{{end}}</td></tr>
</table>

<h2>Safety</h2>
<table>
<tr><th>Sensor Fault</th><td class="{{if .Oven.SensorFault}}fault{{else}}ok{{end}}">{{if .Oven.SensorFault}}LATCHED{{else}}none{{end}}</td></tr>
<tr><th>Vref</th><td class="{{if .Oven.VrefFault}}fault{{end}}">{{printf "%.3f" .Oven.VrefVolts}} V</td></tr>
<tr><th>Signal</th><td class="{{if .Oven.SignalFault}}fault{{end}}">{{printf "%.3f" .Oven.SignalVolts}} V</td></tr>
<tr><th>Filter</th><td>{{if .Oven.SensorValid}}valid{{else}}warming up{{end}} (window {{.Config.FilterWindow}})</td></tr>
<tr><th>Ignition Attempt</th><td>{{.Oven.IgnitionAttempt}} / {{.Params.MaxIgnitionAttempts}}</td></tr>
<tr><th>Lockout</th><td class="{{if .Oven.IgnitionLockout}}fault{{else}}ok{{end}}">{{if .Oven.IgnitionLockout}}LOCKED OUT{{else}}no{{end}}</td></tr>
</table>
{{if .Oven.IgnitionLockout}}
<form method="POST" action="/reset"><button type="submit">Reset lockout</button></form>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/status.json">JSON</a> &middot; <a href="/config">Config</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
