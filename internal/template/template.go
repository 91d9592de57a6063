package template

import (
	"bytes"
	stdtemplate "html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	blackfriday "gopkg.in/russross/blackfriday.v2"
)

type Template struct {
	templates *stdtemplate.Template
	policy    *bluemonday.Policy
}

// NewTemplate parses every view under static/views in fsys.
func NewTemplate(fsys fs.FS) *Template {
	t := &Template{policy: bluemonday.UGCPolicy()}
	funcMap := stdtemplate.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"humantime": humanize.Time,
		"humannumber": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"isTimeBeforeNow": func(t time.Time) bool {
			return t.Before(time.Now())
		},
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"truncateName": func(s string) string {
			parts := strings.Split(s, " ")
			return parts[0]
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "…"
		},
		"markdown": t.MarkdownToHTML,
		"has": func(set map[int]bool, id int) bool {
			return set[id]
		},
		// pageURL keeps the encoded filter query on pager links.
		"pageURL": func(query string, page int) stdtemplate.URL {
			u := "?page=" + strconv.Itoa(page)
			if query != "" {
				u += "&" + query
			}
			return stdtemplate.URL(u)
		},
	}
	t.templates = stdtemplate.Must(stdtemplate.New("stdtmpl").Funcs(funcMap).ParseFS(fsys, "static/views/*.html"))
	return t
}

// Render executes the view into a buffer first so a failing template does
// not leave a half written page behind.
func (t *Template) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := t.templates.ExecuteTemplate(&buf, name, data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (t *Template) MarkdownToHTML(s string) stdtemplate.HTML {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink |
			blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks |
			blackfriday.HrefTargetBlank,
	})
	out := blackfriday.Run([]byte(s), blackfriday.WithRenderer(renderer))
	return stdtemplate.HTML(t.policy.SanitizeBytes(out))
}
