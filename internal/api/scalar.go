package api

import (
	"bytes"
	"html/template"
	"net/http"
)

var scalarPage = template.Must(template.New("scalar").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>{{.Title}} - API reference</title>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body style="margin:0">
	<script id="api-reference" data-url="{{.SpecURL}}"></script>
	<script>
		document.getElementById('api-reference').dataset.configuration = JSON.stringify({
			layout: 'classic',
			hideDownloadButton: false,
			metaData: {title: {{.Title}}, description: {{.Description}}},
			servers: [{url: window.location.origin, description: 'This monitor'}]
		})
	</script>
	<script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`))

// ScalarHandler serves the Scalar UI for the OpenAPI document at specURL.
// The page is rendered once; title and description are escaped.
func ScalarHandler(specURL, title, description string) http.Handler {
	var buf bytes.Buffer
	if err := scalarPage.Execute(&buf, struct {
		SpecURL, Title, Description string
	}{specURL, title, description}); err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "docs unavailable", http.StatusInternalServerError)
		})
	}
	page := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
}
