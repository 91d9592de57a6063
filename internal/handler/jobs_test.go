package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sebez/jobboard/internal/category"
	"github.com/sebez/jobboard/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// follow builds a GET for path carrying the cookies set on w.
func follow(w *httptest.ResponseRecorder, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func registerJobPage(env testEnv, jobRepo *fakeJobRepo) {
	env.svr.RegisterRoute("/jobs/{slug}/", JobBySlugPageHandler(env.svr, jobRepo, &fakeApplicationRepo{}, &fakeBookmarkRepo{}, &fakeReportRepo{}), []string{"GET"})
}

func TestJobPageHidesDrafts(t *testing.T) {
	env := newTestEnv(t)
	registerJobPage(env, newFakeJobRepo(testJob(job.StatusDraft)))

	w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/go-developer/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(env.signedIn(t, httptest.NewRequest(http.MethodGet, "/jobs/go-developer/", nil), rival))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(env.signedIn(t, httptest.NewRequest(http.MethodGet, "/jobs/go-developer/", nil), employer))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "job.html|")
}

func TestJobPageUnknownSlug(t *testing.T) {
	env := newTestEnv(t)
	registerJobPage(env, newFakeJobRepo())

	w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/nope/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "error.html|")
}

func TestJobListParsesFilter(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo(testJob(job.StatusPublished))
	env.svr.RegisterRoute("/jobs/", JobListHandler(env.svr, jobRepo, &fakeBookmarkRepo{}, &fakeReportRepo{}), []string{"GET"})

	w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/?job_type=2&level=9&location=+Addis+&page=3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, job.Filter{Type: job.TypeContract, Location: "Addis"}, jobRepo.filter)
	assert.Equal(t, 0, jobRepo.categoryID)
	assert.Equal(t, "3", jobRepo.rawPage)
}

func TestCategoryPage(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo(testJob(job.StatusPublished))
	categories := &fakeCategoryRepo{categories: []*category.Category{{ID: 4, Name: "Engineering", Slug: "engineering"}}}
	env.svr.RegisterRoute("/category/{slug}/", CategoryPageHandler(env.svr, categories, jobRepo, &fakeBookmarkRepo{}, &fakeReportRepo{}), []string{"GET"})

	w := env.do(httptest.NewRequest(http.MethodGet, "/category/engineering/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, jobRepo.categoryID)

	w = env.do(httptest.NewRequest(http.MethodGet, "/category/cooking/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchSanitizesTerms(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo(testJob(job.StatusPublished))
	env.svr.RegisterRoute("/search/", SearchHandler(env.svr, jobRepo, &fakeBookmarkRepo{}, &fakeReportRepo{}), []string{"GET"})

	q := url.Values{"q": {"<script>x</script>golang"}, "l": {" Berlin "}}
	w := env.do(httptest.NewRequest(http.MethodGet, "/search/?"+q.Encode(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "golang", jobRepo.query)
	assert.Equal(t, "Berlin", jobRepo.location)
}

func jobForm(status string) url.Values {
	return url.Values{
		"category":    {"1"},
		"title":       {"Go Developer"},
		"description": {"Write **Go**"},
		"job_type":    {"1"},
		"level":       {"0"},
		"status":      {status},
	}
}

func TestCreateJob(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo()
	categories := &fakeCategoryRepo{categories: []*category.Category{{ID: 1, Name: "Engineering", Slug: "engineering"}}}
	env.svr.RegisterRoute("/jobs/new/", CreateJobHandler(env.svr, jobRepo, categories), []string{"GET", "POST"})
	registerJobPage(env, newFakeJobRepo(testJob(job.StatusPublished)))

	w := env.do(env.signedIn(t, postForm("/jobs/new/", jobForm("1")), employer))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/jobs/go-developer/", w.Header().Get("Location"))
	require.Len(t, jobRepo.created, 1)
	assert.Equal(t, "Go Developer", jobRepo.created[0].Title)

	w = env.do(follow(w, "/jobs/go-developer/"))
	assert.Contains(t, w.Body.String(), "[Your post has been published.]")
}

func TestCreateJobKeepsMarkdownSource(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo()
	categories := &fakeCategoryRepo{categories: []*category.Category{{ID: 1, Name: "Engineering", Slug: "engineering"}}}
	env.svr.RegisterRoute("/em/jobs/new/", CreateJobHandler(env.svr, jobRepo, categories), []string{"POST"})

	description := "> Remote friendly\n\nUse `a < b` in Go"
	values := jobForm("1")
	values.Set("description", "  "+description+"\n")
	w := env.do(env.signedIn(t, postForm("/em/jobs/new/", values), employer))

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, jobRepo.created, 1)
	assert.Equal(t, description, jobRepo.created[0].Description)
}

func TestCreateJobValidation(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo()
	env.svr.RegisterRoute("/jobs/new/", CreateJobHandler(env.svr, jobRepo, &fakeCategoryRepo{}), []string{"POST"})

	values := jobForm("0")
	values.Set("title", "")
	w := env.do(env.signedIn(t, postForm("/jobs/new/", values), employer))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "title=This field is required.;")
	assert.Contains(t, body, "category=Select a valid choice.;")
	assert.Empty(t, jobRepo.created)
}

func TestCreateJobRequiresEmployer(t *testing.T) {
	env := newTestEnv(t)
	env.svr.RegisterRoute("/jobs/new/", CreateJobHandler(env.svr, newFakeJobRepo(), &fakeCategoryRepo{}), []string{"GET"})

	w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/new/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/ac/login/?next=%2Fjobs%2Fnew%2F", w.Header().Get("Location"))

	w = env.do(env.signedIn(t, httptest.NewRequest(http.MethodGet, "/jobs/new/", nil), seeker))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateJobByRivalIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo(testJob(job.StatusPublished))
	categories := &fakeCategoryRepo{categories: []*category.Category{{ID: 1, Slug: "engineering"}}}
	env.svr.RegisterRoute("/jobs/{slug}/update/", UpdateJobHandler(env.svr, jobRepo, categories), []string{"GET", "POST"})

	w := env.do(env.signedIn(t, postForm("/jobs/go-developer/update/", jobForm("1")), rival))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, jobRepo.updated)

	w = env.do(env.signedIn(t, postForm("/jobs/go-developer/update/", jobForm("0")), employer))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, jobRepo.updated, 1)
	assert.Equal(t, int(job.StatusDraft), jobRepo.updated[0].Status)
}

func TestDeleteJobWithApplications(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo(testJob(job.StatusPublished))
	jobRepo.deleteErr = job.ErrHasApplications
	env.svr.RegisterRoute("/jobs/{slug}/delete/", DeleteJobHandler(env.svr, jobRepo), []string{"GET", "POST"})
	registerJobPage(env, jobRepo)

	w := env.do(env.signedIn(t, postForm("/jobs/go-developer/delete/", nil), employer))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/jobs/go-developer/", w.Header().Get("Location"))
	assert.Empty(t, jobRepo.deleted)

	w = env.do(follow(w, "/jobs/go-developer/"))
	assert.Contains(t, w.Body.String(), "[This job has applications and cannot be deleted.]")
}

func TestDeleteJob(t *testing.T) {
	env := newTestEnv(t)
	jobRepo := newFakeJobRepo(testJob(job.StatusDraft))
	env.svr.RegisterRoute("/jobs/{slug}/delete/", DeleteJobHandler(env.svr, jobRepo), []string{"POST"})

	w := env.do(env.signedIn(t, postForm("/jobs/go-developer/delete/", nil), employer))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/em/my-jobs/", w.Header().Get("Location"))
	assert.Equal(t, []int{3}, jobRepo.deleted)
}

func TestLandingRedirectsSignedInUsers(t *testing.T) {
	env := newTestEnv(t)
	env.svr.RegisterRoute("/", LandingPageHandler(env.svr, newFakeJobRepo(), &fakeCategoryRepo{}), []string{"GET"})

	w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "landing.html|")

	w = env.do(env.signedIn(t, httptest.NewRequest(http.MethodGet, "/", nil), employer))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/em/", w.Header().Get("Location"))

	w = env.do(env.signedIn(t, httptest.NewRequest(http.MethodGet, "/", nil), seeker))
	assert.Equal(t, "/jobs/", w.Header().Get("Location"))
}
