package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/darshan-rambhia/naspanel/internal/model"
)

// ConfigPageData is everything the configuration page shows.
type ConfigPageData struct {
	Conn  model.ConnectionConfig
	State model.NasState
	Now   time.Time
}

const pageHead = `<!DOCTYPE html>
<html>
<head>
<title>NAS Panel Configuration</title>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: Arial, sans-serif; margin: 20px; background: #f0f0f0; }
.container { max-width: 500px; margin: 0 auto; background: white; padding: 20px; border-radius: 10px; }
input, button { width: 100%; padding: 10px; margin: 5px 0; border: 1px solid #ddd; border-radius: 5px; box-sizing: border-box; }
button { background: #007bff; color: white; cursor: pointer; }
button:hover { background: #0056b3; }
.status { padding: 10px; margin: 10px 0; border-radius: 5px; }
.success { background: #d4edda; color: #155724; }
.error { background: #f8d7da; color: #721c24; }
.disks span { display: inline-block; margin-right: 10px; }
.status-ok { color: #10B981; }
.status-warning { color: #F59E0B; }
.status-critical { color: #EF4444; }
</style>
</head>
<body>
<div class="container">
<h1>NAS Panel Configuration</h1>
`

const pageScript = `<script>
document.getElementById('configForm').addEventListener('submit', function(e) {
  e.preventDefault();
  const config = {
    mqttServer: document.getElementById('mqttServer').value,
    mqttPort: parseInt(document.getElementById('mqttPort').value),
    mqttUser: document.getElementById('mqttUser').value,
    mqttPassword: document.getElementById('mqttPassword').value,
    mqttTopic: document.getElementById('mqttTopic').value
  };
  fetch('/config', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(config)
  })
  .then(function(response) {
    if (!response.ok) { return response.text().then(function(t) { throw new Error(t); }); }
    document.getElementById('status').innerHTML = '<div class="status success">Configuration saved! Panel will restart...</div>';
    setTimeout(function() { location.reload(); }, 3000);
  })
  .catch(function(err) {
    document.getElementById('status').innerHTML = '<div class="status error">Error saving configuration</div>';
  });
});
</script>
`

// ConfigPage renders the broker settings form with a short status summary.
func ConfigPage(d ConfigPageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(pageHead)

		ew.write(`<form id="configForm">` + "\n<h3>MQTT Settings</h3>\n")
		ew.input("text", "mqttServer", "MQTT Server IP", d.Conn.BrokerHost)
		ew.input("number", "mqttPort", "MQTT Port", strconv.Itoa(d.Conn.BrokerPort))
		ew.input("text", "mqttUser", "MQTT Username", d.Conn.Username)
		ew.input("password", "mqttPassword", "MQTT Password", d.Conn.Password)
		ew.input("text", "mqttTopic", "MQTT Topic", d.Conn.Topic)
		ew.write("<button type=\"submit\">Save Configuration</button>\n</form>\n")
		ew.write(`<div id="status"></div>` + "\n")

		ew.write("<h3>Panel Status</h3>\n")
		if !d.State.Valid {
			ew.write("<p>Waiting for data...</p>\n")
		} else {
			ew.printf("<p>%s (%s), updated %s</p>\n",
				templ.EscapeString(d.State.Hostname),
				templ.EscapeString(d.State.IPAddress),
				FormatAge(d.State.LastUpdate, d.Now))
			ew.write(`<p class="disks">`)
			for i, s := range d.State.Storage.Disks {
				ew.printf(`<span class="%s">%s: %s</span>`, DiskStatusClass(s), DiskLabel(i), s)
			}
			ew.write("</p>\n")
		}
		ew.write(`<p><a href="/panel.svg">Panel preview</a></p>` + "\n")
		ew.write("</div>\n")
		ew.write(pageScript)
		ew.write("</body>\n</html>\n")
		return ew.err
	})
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) input(typ, id, placeholder, value string) {
	e.printf("<input type=\"%s\" id=\"%s\" placeholder=\"%s\" value=\"%s\">\n",
		typ, id, placeholder, templ.EscapeString(value))
}
