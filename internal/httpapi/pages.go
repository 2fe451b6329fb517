package httpapi

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"strava-directus-layer/internal/domain"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html><head><title>Strava Sync</title></head><body>
<h1>Strava Sync</h1>
{{if .Connected}}
<p>Strava account connected.</p>
<ul>
<li><a href="/list">Recent activities</a></li>
<li><a href="/subscription">View subscription</a></li>
<li><a href="/subscription/create">Create subscription</a></li>
</ul>
{{else}}
<p><a href="/auth">Connect your Strava account</a></p>
{{end}}
</body></html>
`))

var listTemplate = template.Must(template.New("list").Parse(`<!doctype html>
<html><head><title>Activities</title></head><body>
<h1>Recent activities</h1>
<table>
<tr><th>Name</th><th>Sport</th><th>Start</th><th></th></tr>
{{range .Rows}}
<tr{{if .Updated}} style="font-weight:bold"{{end}}>
<td><a href="/view/{{.ID}}">{{.Name}}</a></td>
<td>{{.Sport}}</td>
<td>{{.Start}}</td>
<td><a href="/fetch/{{.ID}}">sync</a>{{if .Updated}} ✓{{end}}</td>
</tr>
{{end}}
</table>
<p><a href="/">Back</a></p>
</body></html>
`))

var authTemplate = template.Must(template.New("auth").Parse(`<!doctype html>
<html><head><title>Connect Strava</title></head><body>
<h1>Connect Strava</h1>
<p><a href="{{.AuthorizeURL}}">Authorize this application</a></p>
</body></html>
`))

type listRow struct {
	ID      int64
	Name    string
	Sport   string
	Start   string
	Updated bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, connected := domain.TokenBundleFromContext(r.Context())
	s.renderHTML(w, indexTemplate, map[string]any{"Connected": connected})
}

// handleList shows the athlete's recent activities straight off the
// platform API; the updated query param marks the row a fetch just changed.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	bundle, ok := domain.TokenBundleFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth", http.StatusFound)
		return
	}

	raw, err := s.Platform.ListActivitiesRaw(r.Context(), bundle.AccessToken)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	var activities []struct {
		ID             int64  `json:"id"`
		Name           string `json:"name"`
		SportType      string `json:"sport_type"`
		StartDateLocal string `json:"start_date_local"`
	}
	if err := json.Unmarshal(raw, &activities); err != nil {
		s.Logger.Error().Err(err).Msg("Unexpected activity list payload")
		http.Error(w, "unexpected platform response", http.StatusBadGateway)
		return
	}

	updated, _ := strconv.ParseInt(r.URL.Query().Get("updated"), 10, 64)
	rows := make([]listRow, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, listRow{
			ID:      a.ID,
			Name:    a.Name,
			Sport:   a.SportType,
			Start:   a.StartDateLocal,
			Updated: updated != 0 && a.ID == updated,
		})
	}
	s.renderHTML(w, listTemplate, map[string]any{"Rows": rows})
}

func (s *Server) renderAuthPage(w http.ResponseWriter) {
	s.renderHTML(w, authTemplate, map[string]any{"AuthorizeURL": s.AuthorizeURL})
}

func (s *Server) renderHTML(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.Logger.Error().Err(err).Str("template", tmpl.Name()).Msg("Template render failed")
	}
}
