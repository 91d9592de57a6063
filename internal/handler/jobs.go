package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sebez/jobboard/internal/category"
	"github.com/sebez/jobboard/internal/form"
	"github.com/sebez/jobboard/internal/job"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/server"
)

const (
	landingJobs       = 10
	landingCategories = 6
	employerHomeJobs  = 5
)

type landingPage struct {
	Jobs       []*job.Job
	Categories []*category.Category
}

func LandingPageHandler(svr server.Server, jobRepo jobRepository, categoryRepo categoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := svr.CurrentUser(r); user != nil {
			svr.Redirect(w, r, http.StatusFound, roleHome(user))
			return
		}
		var page landingPage
		cached, ok := svr.CacheGet(server.CacheKeyLanding)
		if !ok || json.Unmarshal(cached, &page) != nil {
			jobs, err := jobRepo.LatestPublished(r.Context(), landingJobs)
			if err != nil {
				svr.Log(err, "unable to retrieve latest jobs")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			categories, err := categoryRepo.Categories(r.Context(), landingCategories)
			if err != nil {
				svr.Log(err, "unable to retrieve categories")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			page = landingPage{Jobs: jobs, Categories: categories}
			if b, err := json.Marshal(page); err == nil {
				if err := svr.CacheSet(server.CacheKeyLanding, b); err != nil {
					svr.Log(err, "unable to cache landing page")
				}
			}
		}
		err := svr.Render(r, w, http.StatusOK, "landing.html", map[string]interface{}{
			"Jobs":       page.Jobs,
			"Categories": page.Categories,
		})
		if err != nil {
			svr.Log(err, "unable to render landing page")
		}
	}
}

// seekerMarks returns the saved and reported job sets for job seekers so the
// list pages can flag them. Everyone else gets empty sets.
func seekerMarks(svr server.Server, r *http.Request, bookmarkRepo bookmarkRepository, reportRepo reportRepository) (map[int]bool, map[int]bool) {
	saved, reported := map[int]bool{}, map[int]bool{}
	user := svr.CurrentUser(r)
	if !user.IsJobSeeker() {
		return saved, reported
	}
	var err error
	if saved, err = bookmarkRepo.BookmarkedJobIDs(r.Context(), user.AccountID); err != nil {
		svr.Log(err, "unable to retrieve bookmarked jobs")
		saved = map[int]bool{}
	}
	if reported, err = reportRepo.ReportedJobIDs(r.Context(), user.AccountID); err != nil {
		svr.Log(err, "unable to retrieve reported jobs")
		reported = map[int]bool{}
	}
	return saved, reported
}

func JobListHandler(svr server.Server, jobRepo jobRepository, bookmarkRepo bookmarkRepository, reportRepo reportRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := job.ParseFilterFromQuery(r.URL.Query())
		jobs, page, err := jobRepo.PublishedJobs(r.Context(), filter, 0, r.URL.Query().Get("page"), svr.GetConfig().JobsPerPage)
		if err != nil {
			svr.Log(err, "unable to retrieve published jobs")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		saved, reported := seekerMarks(svr, r, bookmarkRepo, reportRepo)
		err = svr.Render(r, w, http.StatusOK, "jobs.html", map[string]interface{}{
			"Jobs":      jobs,
			"Page":      page,
			"Filter":    filter,
			"PageQuery": filter.QueryString(),
			"Levels":    job.Levels,
			"Types":     job.Types,
			"Saved":     saved,
			"Reported":  reported,
		})
		if err != nil {
			svr.Log(err, "unable to render job list")
		}
	}
}

func CategoryPageHandler(svr server.Server, categoryRepo categoryRepository, jobRepo jobRepository, bookmarkRepo bookmarkRepository, reportRepo reportRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := categoryRepo.GetBySlug(r.Context(), mux.Vars(r)["slug"])
		if errors.Is(err, category.ErrNotFound) {
			svr.RenderError(r, w, http.StatusNotFound)
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve category")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		filter := job.ParseFilterFromQuery(r.URL.Query())
		jobs, page, err := jobRepo.PublishedJobs(r.Context(), filter, cat.ID, r.URL.Query().Get("page"), svr.GetConfig().JobsPerPage)
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to retrieve jobs for category %s", cat.Slug))
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		saved, reported := seekerMarks(svr, r, bookmarkRepo, reportRepo)
		err = svr.Render(r, w, http.StatusOK, "category.html", map[string]interface{}{
			"Category":  cat,
			"Jobs":      jobs,
			"Page":      page,
			"Filter":    filter,
			"PageQuery": filter.QueryString(),
			"Levels":    job.Levels,
			"Types":     job.Types,
			"Saved":     saved,
			"Reported":  reported,
		})
		if err != nil {
			svr.Log(err, "unable to render category page")
		}
	}
}

func SearchHandler(svr server.Server, jobRepo jobRepository, bookmarkRepo bookmarkRepository, reportRepo reportRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query, location := plainText(q.Get("q")), plainText(q.Get("l"))
		jobs, page, err := jobRepo.Search(r.Context(), query, location, q.Get("page"), svr.GetConfig().JobsPerPage)
		if err != nil {
			svr.Log(err, "unable to search jobs")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		saved, reported := seekerMarks(svr, r, bookmarkRepo, reportRepo)
		err = svr.Render(r, w, http.StatusOK, "search.html", map[string]interface{}{
			"Jobs":      jobs,
			"Page":      page,
			"Query":     query,
			"Location":  location,
			"PageQuery": url.Values{"q": {query}, "l": {location}}.Encode(),
			"Saved":     saved,
			"Reported":  reported,
		})
		if err != nil {
			svr.Log(err, "unable to render search page")
		}
	}
}

func JobBySlugPageHandler(svr server.Server, jobRepo jobRepository, appRepo applicationRepository, bookmarkRepo bookmarkRepository, reportRepo reportRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		j, err := jobRepo.JobBySlug(r.Context(), mux.Vars(r)["slug"])
		if errors.Is(err, job.ErrNotFound) {
			svr.RenderError(r, w, http.StatusNotFound)
			return
		}
		if err != nil {
			svr.Log(err, "unable to retrieve job")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		user := svr.CurrentUser(r)
		owner := isJobOwner(user, j)
		if !j.IsPublished() && !owner {
			svr.RenderError(r, w, http.StatusNotFound)
			return
		}
		data := map[string]interface{}{
			"Job":     j,
			"IsOwner": owner,
		}
		switch {
		case owner:
			apps, err := appRepo.ApplicationsForJob(r.Context(), j.ID)
			if err != nil {
				svr.Log(err, "unable to retrieve applications for job")
			}
			data["Applications"] = apps
		case user.IsJobSeeker():
			if data["HasApplied"], err = appRepo.HasApplied(r.Context(), j.ID, user.AccountID); err != nil {
				svr.Log(err, "unable to check application")
			}
			if data["IsBookmarked"], err = bookmarkRepo.IsBookmarked(r.Context(), user.AccountID, j.ID); err != nil {
				svr.Log(err, "unable to check bookmark")
			}
			if data["HasReported"], err = reportRepo.HasReported(r.Context(), j.ID, user.AccountID); err != nil {
				svr.Log(err, "unable to check report")
			}
		}
		if err := svr.Render(r, w, http.StatusOK, "job.html", data); err != nil {
			svr.Log(err, "unable to render job page")
		}
	}
}

// parseJobForm keeps the description as raw markdown, it is sanitised after
// rendering.
func parseJobForm(r *http.Request) job.JobRq {
	return job.JobRq{
		CategoryID:  atoi(r.FormValue("category")),
		Title:       plainText(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Summary:     plainText(r.FormValue("summary")),
		Location:    plainText(r.FormValue("location")),
		Deadline:    r.FormValue("deadline"),
		Type:        atoi(r.FormValue("job_type")),
		Level:       atoi(r.FormValue("level")),
		Status:      atoi(r.FormValue("status")),
	}
}

// validateJob runs the form rules and checks the category exists.
func validateJob(svr server.Server, r *http.Request, categoryRepo categoryRepository, rq job.JobRq) form.Errors {
	errs := form.Validate(rq)
	if errs.Has("category") {
		return errs
	}
	if _, err := categoryRepo.GetByID(r.Context(), rq.CategoryID); err != nil {
		if !errors.Is(err, category.ErrNotFound) {
			svr.Log(err, "unable to retrieve category")
		}
		errs.Add("category", "Select a valid choice.")
	}
	return errs
}

func renderJobForm(svr server.Server, w http.ResponseWriter, r *http.Request, categoryRepo categoryRepository, rq job.JobRq, errs form.Errors, existing *job.Job) {
	categories, err := categoryRepo.Categories(r.Context(), 0)
	if err != nil {
		svr.Log(err, "unable to retrieve categories")
	}
	err = svr.Render(r, w, http.StatusOK, "job-form.html", map[string]interface{}{
		"Form":       rq,
		"Errors":     errs,
		"Categories": categories,
		"Levels":     job.Levels,
		"Types":      job.Types,
		"Job":        existing,
	})
	if err != nil {
		svr.Log(err, "unable to render job form")
	}
}

func publishNotice(rq job.JobRq) string {
	if job.Status(rq.Status) == job.StatusPublished {
		return "Your post has been published."
	}
	return "Your post has been saved as draft."
}

func CreateJobHandler(svr server.Server, jobRepo jobRepository, categoryRepo categoryRepository) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				renderJobForm(svr, w, r, categoryRepo, job.JobRq{Type: int(job.TypeFullTime)}, nil, nil)
				return
			}
			user := svr.CurrentUser(r)
			rq := parseJobForm(r)
			if errs := validateJob(svr, r, categoryRepo, rq); errs.Any() {
				renderJobForm(svr, w, r, categoryRepo, rq, errs, nil)
				return
			}
			j, err := jobRepo.Create(r.Context(), user.EmployerID, rq)
			if err != nil {
				svr.Log(err, "unable to create job")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			if err := svr.CacheDelete(server.CacheKeyLanding); err != nil {
				svr.Log(err, "unable to invalidate landing cache")
			}
			svr.Flash(w, r, publishNotice(rq))
			svr.Redirect(w, r, http.StatusSeeOther, "/jobs/"+j.Slug+"/")
		},
	)
}

// ownedJob loads the job in the route and checks the signed in employer owns
// it. It writes the error page itself and reports false when it did.
func ownedJob(svr server.Server, w http.ResponseWriter, r *http.Request, jobRepo jobRepository) (job.Job, bool) {
	j, err := jobRepo.JobBySlug(r.Context(), mux.Vars(r)["slug"])
	if errors.Is(err, job.ErrNotFound) {
		svr.RenderError(r, w, http.StatusNotFound)
		return job.Job{}, false
	}
	if err != nil {
		svr.Log(err, "unable to retrieve job")
		svr.RenderError(r, w, http.StatusInternalServerError)
		return job.Job{}, false
	}
	if !isJobOwner(svr.CurrentUser(r), j) {
		svr.RenderError(r, w, http.StatusForbidden)
		return job.Job{}, false
	}
	return j, true
}

func UpdateJobHandler(svr server.Server, jobRepo jobRepository, categoryRepo categoryRepository) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			j, ok := ownedJob(svr, w, r, jobRepo)
			if !ok {
				return
			}
			if r.Method == http.MethodGet {
				renderJobForm(svr, w, r, categoryRepo, job.FromJob(j), nil, &j)
				return
			}
			rq := parseJobForm(r)
			if errs := validateJob(svr, r, categoryRepo, rq); errs.Any() {
				renderJobForm(svr, w, r, categoryRepo, rq, errs, &j)
				return
			}
			if err := jobRepo.Update(r.Context(), j.ID, rq); err != nil {
				svr.Log(err, fmt.Sprintf("unable to update job %d", j.ID))
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			if err := svr.CacheDelete(server.CacheKeyLanding); err != nil {
				svr.Log(err, "unable to invalidate landing cache")
			}
			svr.Flash(w, r, publishNotice(rq))
			svr.Redirect(w, r, http.StatusSeeOther, "/jobs/"+j.Slug+"/")
		},
	)
}

func DeleteJobHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			j, ok := ownedJob(svr, w, r, jobRepo)
			if !ok {
				return
			}
			if r.Method == http.MethodGet {
				if err := svr.Render(r, w, http.StatusOK, "job-delete.html", map[string]interface{}{"Job": j}); err != nil {
					svr.Log(err, "unable to render job delete page")
				}
				return
			}
			err := jobRepo.Delete(r.Context(), j.ID)
			if errors.Is(err, job.ErrHasApplications) {
				svr.Flash(w, r, "This job has applications and cannot be deleted.")
				svr.Redirect(w, r, http.StatusSeeOther, "/jobs/"+j.Slug+"/")
				return
			}
			if err != nil && !errors.Is(err, job.ErrNotFound) {
				svr.Log(err, fmt.Sprintf("unable to delete job %d", j.ID))
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			if err := svr.CacheDelete(server.CacheKeyLanding); err != nil {
				svr.Log(err, "unable to invalidate landing cache")
			}
			svr.Flash(w, r, "Your job has been deleted.")
			svr.Redirect(w, r, http.StatusSeeOther, "/em/my-jobs/")
		},
	)
}

func EmployerHomeHandler(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			user := svr.CurrentUser(r)
			published, publishedPage, err := jobRepo.EmployerJobs(r.Context(), user.EmployerID, job.StatusPublished, "1", employerHomeJobs)
			if err != nil {
				svr.Log(err, "unable to retrieve employer jobs")
			}
			drafts, draftsPage, err := jobRepo.EmployerJobs(r.Context(), user.EmployerID, job.StatusDraft, "1", employerHomeJobs)
			if err != nil {
				svr.Log(err, "unable to retrieve employer drafts")
			}
			err = svr.Render(r, w, http.StatusOK, "employer-home.html", map[string]interface{}{
				"Published":      published,
				"PublishedTotal": publishedPage.TotalItems,
				"Drafts":         drafts,
				"DraftsTotal":    draftsPage.TotalItems,
			})
			if err != nil {
				svr.Log(err, "unable to render employer home")
			}
		},
	)
}

// EmployerJobsHandler lists the employer's jobs with the given status, used
// for both my jobs and my drafts.
func EmployerJobsHandler(svr server.Server, jobRepo jobRepository, status job.Status) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			user := svr.CurrentUser(r)
			jobs, page, err := jobRepo.EmployerJobs(r.Context(), user.EmployerID, status, r.URL.Query().Get("page"), svr.GetConfig().JobsPerPage)
			if err != nil {
				svr.Log(err, "unable to retrieve employer jobs")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			err = svr.Render(r, w, http.StatusOK, "employer-jobs.html", map[string]interface{}{
				"Jobs":   jobs,
				"Page":   page,
				"Drafts": status == job.StatusDraft,
			})
			if err != nil {
				svr.Log(err, "unable to render employer jobs")
			}
		},
	)
}
