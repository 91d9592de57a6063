package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/sebez/jobboard/internal/account"
	"github.com/sebez/jobboard/internal/application"
	"github.com/sebez/jobboard/internal/bookmark"
	"github.com/sebez/jobboard/internal/category"
	"github.com/sebez/jobboard/internal/config"
	"github.com/sebez/jobboard/internal/email"
	"github.com/sebez/jobboard/internal/job"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/paginator"
	"github.com/sebez/jobboard/internal/report"
	"github.com/sebez/jobboard/internal/resume"
	"github.com/sebez/jobboard/internal/server"
	"github.com/sebez/jobboard/internal/template"
	"github.com/stretchr/testify/require"
)

var testViews = []string{
	"error.html", "landing.html", "jobs.html", "category.html", "search.html", "job.html",
	"job-form.html", "job-delete.html", "employer-home.html", "employer-jobs.html",
	"applicants.html", "applicant.html", "apply.html", "report.html", "saved-jobs.html",
	"signup.html", "login.html", "verify.html", "profile.html", "profile-form.html",
	"proposals.html", "resume-builder.html",
}

// Each test view prints its name, the flashes and the inline errors so
// handlers can be checked without the real markup.
func testTemplates() *template.Template {
	fsys := fstest.MapFS{}
	for _, name := range testViews {
		fsys["static/views/"+name] = &fstest.MapFile{
			Data: []byte(name + `|{{range .Messages}}[{{.}}]{{end}}|{{range $k, $v := .Errors}}{{$k}}={{$v}};{{end}}`),
		}
	}
	return template.NewTemplate(fsys)
}

type testEnv struct {
	svr    server.Server
	router *mux.Router
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	cfg := config.Config{
		Env:           "dev",
		JobsPerPage:   10,
		SiteName:      "Sebez",
		SiteHost:      "sebez.test",
		URLProtocol:   "https",
		SupportEmail:  "support@sebez.test",
		JwtSigningKey: []byte("jwt-test-key"),
	}
	router := mux.NewRouter()
	svr, err := server.NewServer(
		cfg,
		nil,
		router,
		testTemplates(),
		email.Client{},
		sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
	)
	require.NoError(t, err)
	return testEnv{svr: svr, router: router}
}

func (e testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signedIn adds a session cookie for user to req.
func (e testEnv) signedIn(t *testing.T, req *http.Request, user middleware.UserJWT) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	require.NoError(t, middleware.SignIn(w, httptest.NewRequest(http.MethodGet, "/", nil), e.svr.SessionStore, e.svr.GetJWTSigningKey(), user))
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var (
	seeker   = middleware.UserJWT{AccountID: "seeker-1", UID: "aaaaaaaaaaaa", FirstName: "Ada", AccountType: middleware.AccountTypeJobSeeker}
	employer = middleware.UserJWT{AccountID: "employer-1", UID: "bbbbbbbbbbbb", FirstName: "Bo", AccountType: middleware.AccountTypeEmployer, EmployerID: 5}
	rival    = middleware.UserJWT{AccountID: "employer-2", UID: "cccccccccccc", FirstName: "Cy", AccountType: middleware.AccountTypeEmployer, EmployerID: 6}
)

func testJob(status job.Status) job.Job {
	return job.Job{
		ID:                3,
		Title:             "Go Developer",
		Slug:              "go-developer",
		Location:          "Berlin",
		Type:              job.TypeFullTime,
		Status:            status,
		Description:       "Write Go",
		Summary:           "Backend role",
		DatePosted:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CategoryID:        1,
		EmployerID:        5,
		EmployerAccountID: "employer-1",
		CompanyName:       "Acme",
	}
}

type fakeJobRepo struct {
	jobs       map[string]job.Job
	created    []job.JobRq
	updated    []job.JobRq
	deleted    []int
	deleteErr  error
	filter     job.Filter
	categoryID int
	rawPage    string
	query      string
	location   string
}

func newFakeJobRepo(jobs ...job.Job) *fakeJobRepo {
	r := &fakeJobRepo{jobs: map[string]job.Job{}}
	for _, j := range jobs {
		r.jobs[j.Slug] = j
	}
	return r
}

func (r *fakeJobRepo) Create(ctx context.Context, employerID int, rq job.JobRq) (job.Job, error) {
	r.created = append(r.created, rq)
	j := testJob(job.Status(rq.Status))
	j.EmployerID = employerID
	return j, nil
}

func (r *fakeJobRepo) Update(ctx context.Context, id int, rq job.JobRq) error {
	r.updated = append(r.updated, rq)
	return nil
}

func (r *fakeJobRepo) Delete(ctx context.Context, id int) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeJobRepo) JobBySlug(ctx context.Context, slug string) (job.Job, error) {
	j, ok := r.jobs[slug]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

func (r *fakeJobRepo) JobByID(ctx context.Context, id int) (job.Job, error) {
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return job.Job{}, job.ErrNotFound
}

func (r *fakeJobRepo) published() []*job.Job {
	out := []*job.Job{}
	for _, j := range r.jobs {
		if j.IsPublished() {
			j := j
			out = append(out, &j)
		}
	}
	return out
}

func (r *fakeJobRepo) LatestPublished(ctx context.Context, limit int) ([]*job.Job, error) {
	return r.published(), nil
}

func (r *fakeJobRepo) PublishedJobs(ctx context.Context, f job.Filter, categoryID int, rawPage string, perPage int) ([]*job.Job, paginator.Page, error) {
	r.filter, r.categoryID, r.rawPage = f, categoryID, rawPage
	jobs := r.published()
	return jobs, paginator.Resolve(rawPage, len(jobs), perPage), nil
}

func (r *fakeJobRepo) Search(ctx context.Context, query, location, rawPage string, perPage int) ([]*job.Job, paginator.Page, error) {
	r.query, r.location, r.rawPage = query, location, rawPage
	jobs := r.published()
	return jobs, paginator.Resolve(rawPage, len(jobs), perPage), nil
}

func (r *fakeJobRepo) EmployerJobs(ctx context.Context, employerID int, status job.Status, rawPage string, perPage int) ([]*job.Job, paginator.Page, error) {
	out := []*job.Job{}
	for _, j := range r.jobs {
		if j.EmployerID == employerID && j.Status == status {
			j := j
			out = append(out, &j)
		}
	}
	return out, paginator.Resolve(rawPage, len(out), perPage), nil
}

type fakeCategoryRepo struct {
	categories []*category.Category
}

func (r *fakeCategoryRepo) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	for _, c := range r.categories {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return category.Category{}, category.ErrNotFound
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id int) (category.Category, error) {
	for _, c := range r.categories {
		if c.ID == id {
			return *c, nil
		}
	}
	return category.Category{}, category.ErrNotFound
}

func (r *fakeCategoryRepo) Categories(ctx context.Context, limit int) ([]*category.Category, error) {
	return r.categories, nil
}

type fakeApplicationRepo struct {
	applied     map[int]bool
	applyErr    error
	toggleErr   error
	toggled     []application.Action
	apps        []*application.Application
	received    bool
	appliedWith string
}

func (r *fakeApplicationRepo) Apply(ctx context.Context, jobID int, jobSeekerID, resumeID string) (application.Application, error) {
	if r.applyErr != nil {
		return application.Application{}, r.applyErr
	}
	r.appliedWith = resumeID
	return application.Application{ID: 1, JobID: jobID, JobSeekerID: jobSeekerID, ResumeID: resumeID}, nil
}

func (r *fakeApplicationRepo) HasApplied(ctx context.Context, jobID int, jobSeekerID string) (bool, error) {
	return r.applied[jobID], nil
}

func (r *fakeApplicationRepo) Toggle(ctx context.Context, id, employerID int, action application.Action) (application.Application, string, error) {
	if r.toggleErr != nil {
		return application.Application{}, "", r.toggleErr
	}
	r.toggled = append(r.toggled, action)
	status, notice := application.Toggle(application.Pending, action)
	return application.Application{ID: id, Status: status}, notice, nil
}

func (r *fakeApplicationRepo) ApplicationsForJob(ctx context.Context, jobID int) ([]*application.Application, error) {
	return r.apps, nil
}

func (r *fakeApplicationRepo) ApplicationsForJobSeeker(ctx context.Context, jobSeekerID string) ([]*application.Application, error) {
	return r.apps, nil
}

func (r *fakeApplicationRepo) ApplicationForJobAndSeekerUID(ctx context.Context, jobID int, uid string) (application.Application, error) {
	for _, a := range r.apps {
		if a.JobID == jobID && a.SeekerUID == uid {
			return *a, nil
		}
	}
	return application.Application{}, application.ErrNotFound
}

func (r *fakeApplicationRepo) EmployerReceivedResume(ctx context.Context, employerID int, resumeID string) (bool, error) {
	return r.received, nil
}

type fakeBookmarkRepo struct {
	saved map[int]bool
}

func (r *fakeBookmarkRepo) Toggle(ctx context.Context, accountID string, jobID int) (bool, error) {
	if r.saved == nil {
		r.saved = map[int]bool{}
	}
	r.saved[jobID] = !r.saved[jobID]
	return r.saved[jobID], nil
}

func (r *fakeBookmarkRepo) IsBookmarked(ctx context.Context, accountID string, jobID int) (bool, error) {
	return r.saved[jobID], nil
}

func (r *fakeBookmarkRepo) BookmarkedJobIDs(ctx context.Context, accountID string) (map[int]bool, error) {
	return map[int]bool{}, nil
}

func (r *fakeBookmarkRepo) BookmarksForAccount(ctx context.Context, accountID, rawPage string, perPage int) ([]*bookmark.Bookmark, paginator.Page, error) {
	return []*bookmark.Bookmark{}, paginator.Resolve(rawPage, 0, perPage), nil
}

type fakeReportRepo struct {
	reports []report.Report
}

func (r *fakeReportRepo) Create(ctx context.Context, rep report.Report) (report.Report, error) {
	for _, existing := range r.reports {
		if existing.JobID == rep.JobID && existing.JobSeekerID == rep.JobSeekerID {
			return report.Report{}, report.ErrAlreadyReported
		}
	}
	r.reports = append(r.reports, rep)
	return rep, nil
}

func (r *fakeReportRepo) HasReported(ctx context.Context, jobID int, jobSeekerID string) (bool, error) {
	return false, nil
}

func (r *fakeReportRepo) ReportedJobIDs(ctx context.Context, jobSeekerID string) (map[int]bool, error) {
	return map[int]bool{}, nil
}

type fakeAccountRepo struct {
	accounts  map[string]account.Account
	createErr error
	authErr   error
	activated []string
	updated   []account.ProfileRq
	resumeID  string
}

func (r *fakeAccountRepo) Create(ctx context.Context, rq account.SignupRq) (account.Account, error) {
	if r.createErr != nil {
		return account.Account{}, r.createErr
	}
	return account.Account{ID: "new-account", Email: rq.Email, FirstName: rq.FirstName, LastName: rq.LastName, Type: account.Type(rq.AccountType)}, nil
}

func (r *fakeAccountRepo) AccountByID(ctx context.Context, id string) (account.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) Authenticate(ctx context.Context, emailAddr, password string) (account.Account, error) {
	if r.authErr != nil {
		return account.Account{}, r.authErr
	}
	for _, a := range r.accounts {
		if a.Email == emailAddr {
			return a, nil
		}
	}
	return account.Account{}, account.ErrInvalidCredentials
}

func (r *fakeAccountRepo) Activate(ctx context.Context, id string) error {
	for _, done := range r.activated {
		if done == id {
			return account.ErrAlreadyActive
		}
	}
	r.activated = append(r.activated, id)
	return nil
}

func (r *fakeAccountRepo) JobSeekerByAccountID(ctx context.Context, accountID string) (account.JobSeeker, error) {
	a, err := r.AccountByID(ctx, accountID)
	if err != nil {
		return account.JobSeeker{}, err
	}
	return account.JobSeeker{Account: a}, nil
}

func (r *fakeAccountRepo) UpdateJobSeeker(ctx context.Context, accountID string, rq account.ProfileRq, resumeID string) error {
	r.updated = append(r.updated, rq)
	r.resumeID = resumeID
	return nil
}

func (r *fakeAccountRepo) EmployerByAccountID(ctx context.Context, accountID string) (account.Employer, error) {
	return account.Employer{ID: 5, AccountID: accountID, Slug: "acme"}, nil
}

type fakeSender struct {
	links []string
	err   error
}

func (s *fakeSender) SendConfirmation(ctx context.Context, to email.Address, link string) error {
	s.links = append(s.links, link)
	return s.err
}

type fakeResumeStore struct {
	files map[string]resume.File
}

func (s *fakeResumeStore) Save(ctx context.Context, accountID, fileName string, data []byte) (resume.File, error) {
	if s.files == nil {
		s.files = map[string]resume.File{}
	}
	f := resume.File{ID: "resume-1", AccountID: accountID, FileName: fileName, MediaType: "application/pdf", Bytes: data}
	s.files[f.ID] = f
	return f, nil
}

func (s *fakeResumeStore) Open(ctx context.Context, id string) (resume.File, error) {
	f, ok := s.files[id]
	if !ok {
		return resume.File{}, resume.ErrNotFound
	}
	return f, nil
}
