package server

import "html/template"

type pageData struct {
	Title string
	Panel template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font-family: "Segoe UI", sans-serif; background: #f4f4f4; }
.geoMap .container { max-width: 1400px; margin: 0 auto; }
.geoMap .row { padding: 20px; background: #fff; }
.geoMap .column { display: block; }
.geoMap .description { font-size: 17px; color: #333; }
.geoMap .error { color: #a80000; }
</style>
</head>
<body>
{{.Panel}}
</body>
</html>
`))
