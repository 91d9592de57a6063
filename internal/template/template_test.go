package template

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsParse(t *testing.T) {
	tmpl := NewTemplate(os.DirFS("../.."))

	w := httptest.NewRecorder()
	err := tmpl.Render(w, http.StatusNotFound, "error.html", map[string]interface{}{
		"SiteName": "Sebez",
		"Status":   http.StatusNotFound,
		"Message":  "Not Found",
		"Messages": []string{"Your job has been deleted."},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<h1>404</h1>")
	assert.Contains(t, w.Body.String(), `<div class="flash">Your job has been deleted.</div>`)
}

func testFS(view string) fstest.MapFS {
	return fstest.MapFS{"static/views/test.html": &fstest.MapFile{Data: []byte(view)}}
}

func TestPageURLKeepsFilters(t *testing.T) {
	tmpl := NewTemplate(testFS(`<a href="{{pageURL .Query .Page}}">next</a>`))

	w := httptest.NewRecorder()
	require.NoError(t, tmpl.Render(w, http.StatusOK, "test.html", map[string]interface{}{"Query": "job_type=2&location=Addis", "Page": 3}))
	assert.Equal(t, `<a href="?page=3&amp;job_type=2&amp;location=Addis">next</a>`, w.Body.String())

	w = httptest.NewRecorder()
	require.NoError(t, tmpl.Render(w, http.StatusOK, "test.html", map[string]interface{}{"Query": "", "Page": 1}))
	assert.Equal(t, `<a href="?page=1">next</a>`, w.Body.String())
}

func TestMarkdownIsSanitized(t *testing.T) {
	tmpl := NewTemplate(testFS(`{{markdown .}}`))

	out := string(tmpl.MarkdownToHTML("**Go** developer\n\n<script>alert(1)</script>\n\n[site](javascript:alert)"))

	assert.Contains(t, out, "<strong>Go</strong>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestMarkdownQuotesAndCode(t *testing.T) {
	tmpl := NewTemplate(testFS(`{{markdown .}}`))

	out := string(tmpl.MarkdownToHTML("> Remote friendly\n\nUse `a < b` in Go"))

	assert.Contains(t, out, "<blockquote>")
	assert.Contains(t, out, "<code>a &lt; b</code>")
	assert.NotContains(t, out, "&amp;lt;")
}

func TestRenderFailureKeepsPageEmpty(t *testing.T) {
	tmpl := NewTemplate(testFS(`before{{template "missing" .}}`))

	w := httptest.NewRecorder()
	err := tmpl.Render(w, http.StatusOK, "test.html", nil)

	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestTruncate(t *testing.T) {
	tmpl := NewTemplate(testFS(`{{truncate . 5}}|{{truncateName "Abebe Bikila"}}`))

	w := httptest.NewRecorder()
	require.NoError(t, tmpl.Render(w, http.StatusOK, "test.html", "Gopher wanted"))
	assert.Equal(t, "Gophe…|Abebe", w.Body.String())
}
