package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/plc-visualizer/safety-dashboard/internal/view"
)

var tmplFuncs = template.FuncMap{
	"style": view.StyleFor,
	"rowClass": func(r view.Row) string {
		if r.Status {
			return "row-ok"
		}
		return "row-fault"
	},
	"moreFaults": func(p view.Page) int {
		return p.FaultTotal - len(p.Faults)
	},
}

var pageTmpl = template.Must(template.New("web").Funcs(tmplFuncs).ParseFS(templateFiles, "templates/*.tmpl"))

// SnapshotSource supplies the state the page renders.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Renderer serves the server-rendered dashboard.
type Renderer struct {
	source   SnapshotSource
	title    string
	subtitle string
}

// NewRenderer creates a page renderer.
func NewRenderer(source SnapshotSource, title, subtitle string) *Renderer {
	return &Renderer{source: source, title: title, subtitle: subtitle}
}

// Page builds the page model from the current snapshot.
func (r *Renderer) Page() view.Page {
	return view.BuildPage(r.title, r.subtitle, r.source.Snapshot())
}

// HandlePage renders the full HTML document.
func (r *Renderer) HandlePage(c echo.Context) error {
	return r.render(c, "page")
}

// HandleFragment renders only the dashboard body, swapped in by the client
// on state changes.
func (r *Renderer) HandleFragment(c echo.Context) error {
	return r.render(c, "fragment")
}

func (r *Renderer) render(c echo.Context, name string) error {
	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, name, r.Page()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render dashboard").SetInternal(err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// RegisterRoutes registers the page, fragment and static routes.
func RegisterRoutes(e *echo.Echo, r *Renderer) error {
	e.GET("/", r.HandlePage)
	e.GET("/fragment", r.HandleFragment)
	return RegisterStaticRoutes(e)
}
