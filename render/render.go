// Package render turns a published item snapshot into the notification message
// sent to every subscriber. The item description is Markdown and is rendered
// to HTML with goldmark; raw HTML in descriptions is escaped.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/coregx/toolcast/model"
)

const (
	// DefaultSiteName appears in the subject and footer.
	DefaultSiteName = "Toolcast"

	// DefaultSubjectFormat receives the site name and the item name.
	DefaultSubjectFormat = "[%s] New tool: %s"
)

const htmlLayout = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>{{ .Name }}</h1>
  {{- if .Category }}
  <p><em>{{ .Category }}</em></p>
  {{- end }}
  {{- if .ImageURL }}
  <p><img src="{{ .ImageURL }}" alt="{{ .Name }}" style="max-width: 100%;"></p>
  {{- end }}
  {{ .Description }}
  <p><a href="{{ .URL }}">View {{ .Name }}</a></p>
  <hr>
  <p style="font-size: 12px; color: #888;">You are receiving this because you subscribed to {{ .SiteName }}.
  {{- if .UnsubscribeURL }} <a href="{{ .UnsubscribeURL }}">Unsubscribe</a>{{ end }}</p>
</body>
</html>
`

const textLayout = `New on {{ .SiteName }}: {{ .Name }}
{{ if .Category }}Category: {{ .Category }}
{{ end }}
{{ .Description }}

{{ .URL }}
{{ if .UnsubscribeURL }}
Unsubscribe: {{ .UnsubscribeURL }}
{{ end }}`

// Renderer builds notification messages from one HTML and one text template.
// It is safe for concurrent use.
type Renderer struct {
	siteName       string
	subjectFormat  string
	unsubscribeURL string
	markdown       goldmark.Markdown
	html           *template.Template
	text           *texttemplate.Template
}

// Option configures a Renderer.
type Option func(*Renderer) error

// WithSiteName sets the directory name shown in subject and footer.
func WithSiteName(name string) Option {
	return func(r *Renderer) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("site name cannot be empty")
		}
		r.siteName = name
		return nil
	}
}

// WithSubjectFormat sets the subject format. It must contain two %s verbs:
// the site name and the item name.
func WithSubjectFormat(format string) Option {
	return func(r *Renderer) error {
		if strings.Count(format, "%s") != 2 {
			return fmt.Errorf("subject format must contain exactly two %%s verbs, got %q", format)
		}
		r.subjectFormat = format
		return nil
	}
}

// WithUnsubscribeURL adds an unsubscribe link to the footer.
func WithUnsubscribeURL(url string) Option {
	return func(r *Renderer) error {
		r.unsubscribeURL = url
		return nil
	}
}

// New creates a Renderer with the provided options.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		siteName:      DefaultSiteName,
		subjectFormat: DefaultSubjectFormat,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	var err error
	r.html, err = template.New("html").Parse(htmlLayout)
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	r.text, err = texttemplate.New("text").Parse(textLayout)
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	return r, nil
}

// Must is like New but panics on error. Intended for package-level defaults.
func Must(r *Renderer, err error) *Renderer {
	if err != nil {
		panic(err)
	}
	return r
}

type view struct {
	Name           string
	Category       string
	Description    any
	URL            string
	ImageURL       string
	SiteName       string
	UnsubscribeURL string
}

// Render builds the message for snapshot.
func (r *Renderer) Render(snapshot model.ItemSnapshot) (*model.Message, error) {
	if strings.TrimSpace(snapshot.Name) == "" {
		return nil, fmt.Errorf("snapshot of item %d has no name", snapshot.ItemID)
	}

	var desc bytes.Buffer
	if err := r.markdown.Convert([]byte(snapshot.Description), &desc); err != nil {
		return nil, fmt.Errorf("convert description: %w", err)
	}

	v := view{
		Name:           snapshot.Name,
		Category:       snapshot.Category,
		URL:            snapshot.URL,
		ImageURL:       snapshot.ImageURL,
		SiteName:       r.siteName,
		UnsubscribeURL: r.unsubscribeURL,
	}

	var html bytes.Buffer
	v.Description = template.HTML(desc.String()) //nolint:gosec // goldmark escapes raw HTML without WithUnsafe
	if err := r.html.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("execute html template: %w", err)
	}

	var text bytes.Buffer
	v.Description = strings.TrimSpace(snapshot.Description)
	if err := r.text.Execute(&text, v); err != nil {
		return nil, fmt.Errorf("execute text template: %w", err)
	}

	return &model.Message{
		Subject:  fmt.Sprintf(r.subjectFormat, r.siteName, snapshot.Name),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
