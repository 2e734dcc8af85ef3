package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/matzehuels/qadash/pkg/pipeline"
	"github.com/matzehuels/qadash/pkg/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	"signed": func(v float64) string {
		if v > 0 {
			return fmt.Sprintf("+%.2f", v)
		}
		return fmt.Sprintf("%.2f", v)
	},
	"humanize": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
	"statusClass": func(s report.Status) string { return "status-" + string(s) },
	"sparkline":   report.Sparkline,
	"trend":       func(m report.Market) report.Direction { return report.Trend(m.Weeks).Direction },
}

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(funcMap).ParseFS(templateFS, "templates/dashboard.html"))

type dashboardData struct {
	Digest  pipeline.Digest
	Flow    template.HTML
	Heatmap template.HTML
	Charts  []chartLinks
}

type chartLinks struct {
	Chart   string
	Formats []string
}

func (s *Server) renderInline(r *http.Request, chart string) (template.HTML, error) {
	res, err := s.runner.Execute(r.Context(), s.dataset, pipeline.Options{
		Chart:       chart,
		Formats:     []string{pipeline.FormatSVG},
		Interactive: true,
	})
	if err != nil {
		return "", err
	}
	// Sink output escapes every dataset string.
	return template.HTML(res.Artifacts[pipeline.FormatSVG]), nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardData{Digest: pipeline.NewDigest(s.dataset)}
	var err error
	if data.Flow, err = s.renderInline(r, pipeline.ChartFlow); err != nil {
		s.writeError(w, r, err)
		return
	}
	if data.Heatmap, err = s.renderInline(r, pipeline.ChartHeatmap); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, c := range pipeline.Charts() {
		data.Charts = append(data.Charts, chartLinks{Chart: c, Formats: pipeline.Formats(c)})
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
