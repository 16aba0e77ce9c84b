package v1

const landingHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>zfs-exporter</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: system-ui, sans-serif; background: #0d1117; color: #c9d1d9; padding: 20px; }
h1 { font-size: 1.4em; margin-bottom: 16px; }
.status { display: inline-block; padding: 2px 10px; border-radius: 12px; font-size: .85em; font-weight: 600; }
.status.ok { background: #1b4332; color: #52c41a; }
.status.degraded { background: #4a1d1d; color: #f85149; }
.status.starting { background: #21262d; color: #8b949e; }
.meta { color: #8b949e; font-size: .85em; margin-left: 12px; }
ul { margin-top: 12px; list-style: none; }
li { padding: 4px 0; }
a { color: #79c0ff; text-decoration: none; }
a:hover { text-decoration: underline; }
.pools { margin-top: 12px; font-size: .9em; color: #8b949e; }
</style>
</head>
<body>
<h1>zfs-exporter <span class="status {{STATUS}}">{{STATUS}}</span><span class="meta">{{VERSION}}</span></h1>
<div class="pools">pools: {{POOLS}}</div>
<ul>
<li><a href="{{METRICS}}">{{METRICS}}</a> &mdash; Prometheus metrics</li>
<li><a href="{{HEALTH}}">{{HEALTH}}</a> &mdash; health</li>
<li><a href="{{STATUSPATH}}">{{STATUSPATH}}</a> &mdash; collection status</li>
</ul>
</body>
</html>
`
