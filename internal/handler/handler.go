package handler

import (
	"context"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sebez/jobboard/internal/account"
	"github.com/sebez/jobboard/internal/application"
	"github.com/sebez/jobboard/internal/bookmark"
	"github.com/sebez/jobboard/internal/category"
	"github.com/sebez/jobboard/internal/email"
	"github.com/sebez/jobboard/internal/job"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/paginator"
	"github.com/sebez/jobboard/internal/report"
	"github.com/sebez/jobboard/internal/server"
)

type jobRepository interface {
	Create(ctx context.Context, employerID int, rq job.JobRq) (job.Job, error)
	Update(ctx context.Context, id int, rq job.JobRq) error
	Delete(ctx context.Context, id int) error
	JobBySlug(ctx context.Context, slug string) (job.Job, error)
	JobByID(ctx context.Context, id int) (job.Job, error)
	LatestPublished(ctx context.Context, limit int) ([]*job.Job, error)
	PublishedJobs(ctx context.Context, f job.Filter, categoryID int, rawPage string, perPage int) ([]*job.Job, paginator.Page, error)
	Search(ctx context.Context, query, location, rawPage string, perPage int) ([]*job.Job, paginator.Page, error)
	EmployerJobs(ctx context.Context, employerID int, status job.Status, rawPage string, perPage int) ([]*job.Job, paginator.Page, error)
}

type categoryRepository interface {
	GetBySlug(ctx context.Context, slug string) (category.Category, error)
	GetByID(ctx context.Context, id int) (category.Category, error)
	Categories(ctx context.Context, limit int) ([]*category.Category, error)
}

type applicationRepository interface {
	Apply(ctx context.Context, jobID int, jobSeekerID, resumeID string) (application.Application, error)
	HasApplied(ctx context.Context, jobID int, jobSeekerID string) (bool, error)
	Toggle(ctx context.Context, id, employerID int, action application.Action) (application.Application, string, error)
	ApplicationsForJob(ctx context.Context, jobID int) ([]*application.Application, error)
	ApplicationsForJobSeeker(ctx context.Context, jobSeekerID string) ([]*application.Application, error)
	ApplicationForJobAndSeekerUID(ctx context.Context, jobID int, uid string) (application.Application, error)
	EmployerReceivedResume(ctx context.Context, employerID int, resumeID string) (bool, error)
}

type bookmarkRepository interface {
	Toggle(ctx context.Context, accountID string, jobID int) (bool, error)
	IsBookmarked(ctx context.Context, accountID string, jobID int) (bool, error)
	BookmarkedJobIDs(ctx context.Context, accountID string) (map[int]bool, error)
	BookmarksForAccount(ctx context.Context, accountID, rawPage string, perPage int) ([]*bookmark.Bookmark, paginator.Page, error)
}

type reportRepository interface {
	Create(ctx context.Context, rep report.Report) (report.Report, error)
	HasReported(ctx context.Context, jobID int, jobSeekerID string) (bool, error)
	ReportedJobIDs(ctx context.Context, jobSeekerID string) (map[int]bool, error)
}

type accountRepository interface {
	Create(ctx context.Context, rq account.SignupRq) (account.Account, error)
	AccountByID(ctx context.Context, id string) (account.Account, error)
	Authenticate(ctx context.Context, email, password string) (account.Account, error)
	Activate(ctx context.Context, id string) error
	JobSeekerByAccountID(ctx context.Context, accountID string) (account.JobSeeker, error)
	UpdateJobSeeker(ctx context.Context, accountID string, rq account.ProfileRq, resumeID string) error
	EmployerByAccountID(ctx context.Context, accountID string) (account.Employer, error)
}

type confirmationSender interface {
	SendConfirmation(ctx context.Context, to email.Address, link string) error
}

var textPolicy = bluemonday.StrictPolicy()

// plainText strips markup from single line user input.
func plainText(s string) string {
	return html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(s)))
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// roleHome is where a signed in user lands by default.
func roleHome(user *middleware.UserJWT) string {
	if user.IsEmployer() {
		return "/em/"
	}
	return "/jobs/"
}

func isJobOwner(user *middleware.UserJWT, j job.Job) bool {
	return user.IsEmployer() && user.AccountID == j.EmployerAccountID
}

// signIn stores the account in the session, resolving the employer profile
// for employers so ownership checks need no extra lookup.
func signIn(svr server.Server, w http.ResponseWriter, r *http.Request, accountRepo accountRepository, acc account.Account) (*middleware.UserJWT, error) {
	user := middleware.UserJWT{
		AccountID:   acc.ID,
		UID:         acc.UID,
		Email:       acc.Email,
		FirstName:   acc.FirstName,
		AccountType: int(acc.Type),
	}
	if acc.IsEmployer() {
		emp, err := accountRepo.EmployerByAccountID(r.Context(), acc.ID)
		if err != nil {
			return nil, err
		}
		user.EmployerID = emp.ID
	}
	if err := svr.SignIn(w, r, user); err != nil {
		return nil, err
	}
	return &user, nil
}

func RobotsTxtHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := svr.GetConfig()
		svr.TEXT(w, http.StatusOK, "User-agent: *\nDisallow: /ac/\nDisallow: /em/\nDisallow: /resumes/\n\nSitemap: "+cfg.URLProtocol+"://"+cfg.SiteHost+"/sitemap.xml\n")
	}
}

func NotFoundHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svr.RenderError(r, w, http.StatusNotFound)
	}
}
