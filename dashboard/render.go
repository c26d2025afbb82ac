package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/jpalmerr/faultboard/internal/capture"
	"github.com/jpalmerr/faultboard/internal/stacktrace"
)

const (
	// DefaultPrefix is the path prefix FaultBoard routes live under.
	DefaultPrefix = "/__faultboard"

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "FaultBoard"

	// fallbackMessage mirrors an error's string form when it has no message.
	fallbackMessage = "Error"
)

// View is the data the badge and overlay templates render.
//
// Frames are parsed from the raw stack every time a View is built; nothing
// is cached between renders.
type View struct {
	Title          string
	Prefix         string
	Phase          string
	ID             string
	Channel        string
	Message        string
	HasStack       bool
	Frames         []stacktrace.Frame
	ComponentTrace string
}

// NewView projects a capture state into a [View].
func NewView(st capture.State, title, prefix string) View {
	if title == "" {
		title = defaultTitle
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	v := View{
		Title:  title,
		Prefix: prefix,
		Phase:  st.Phase().String(),
	}

	if st.Error == nil {
		return v
	}

	e := st.Error
	v.ID = e.ID
	v.Channel = e.Channel.String()
	v.Message = e.Message
	if v.Message == "" {
		v.Message = fallbackMessage
	}
	v.HasStack = e.RawStack != ""
	v.Frames = e.Frames()
	v.ComponentTrace = e.ComponentTrace
	return v
}

// Renderer executes the embedded view templates.
type Renderer struct {
	tmpl   *template.Template
	client []byte
	title  string
	prefix string
}

// NewRenderer parses the templates from assets.
//
// assets must have the layout of [Assets]; pass [Assets] in production.
func NewRenderer(assets fs.FS, title, prefix string) (*Renderer, error) {
	tmpl, err := template.ParseFS(assets, "assets/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse view templates: %w", err)
	}

	client, err := fs.ReadFile(assets, "assets/client.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read client script: %w", err)
	}

	return &Renderer{
		tmpl:   tmpl,
		client: client,
		title:  title,
		prefix: prefix,
	}, nil
}

// Fragment writes the view for st: nothing when clear, the badge when
// collapsed, the overlay when expanded.
func (r *Renderer) Fragment(w io.Writer, st capture.State) error {
	return r.tmpl.ExecuteTemplate(w, "fragment", NewView(st, r.title, r.prefix))
}

// Mount writes the fragment wrapped in its container plus the client script
// tag, ready to be injected into an application page.
func (r *Renderer) Mount(w io.Writer, st capture.State) error {
	return r.tmpl.ExecuteTemplate(w, "mount", NewView(st, r.title, r.prefix))
}

// Page writes a complete HTML document showing the view for st.
func (r *Renderer) Page(w io.Writer, st capture.State) error {
	return r.tmpl.ExecuteTemplate(w, "page", NewView(st, r.title, r.prefix))
}

// MountBytes renders [Renderer.Mount] into a byte slice.
func (r *Renderer) MountBytes(st capture.State) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Mount(&buf, st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ClientScript returns the browser client script.
func (r *Renderer) ClientScript() []byte {
	return r.client
}
