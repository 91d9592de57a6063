package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sebez/jobboard/internal/application"
	"github.com/sebez/jobboard/internal/form"
	"github.com/sebez/jobboard/internal/job"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/report"
	"github.com/sebez/jobboard/internal/resume"
	"github.com/sebez/jobboard/internal/server"
)

// ApplicationStatusHandler answers the short list, contact and archive
// buttons of the applicant manager.
func ApplicationStatusHandler(svr server.Server, appRepo applicationRepository, action application.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := svr.CurrentUser(r)
		if user == nil {
			svr.Flash(w, r, "Login to your account to perform this action")
			svr.JSON(w, http.StatusUnauthorized, map[string]bool{"success": false})
			return
		}
		if !user.IsEmployer() {
			svr.JSON(w, http.StatusForbidden, map[string]bool{"success": false})
			return
		}
		id, err := strconv.Atoi(r.FormValue("ap_id"))
		if err != nil {
			svr.JSON(w, http.StatusNotFound, map[string]bool{"success": false})
			return
		}
		app, notice, err := appRepo.Toggle(r.Context(), id, user.EmployerID, action)
		switch {
		case errors.Is(err, application.ErrNotFound):
			svr.JSON(w, http.StatusNotFound, map[string]bool{"success": false})
			return
		case errors.Is(err, application.ErrNotJobOwner):
			svr.JSON(w, http.StatusForbidden, map[string]bool{"success": false})
			return
		case err != nil:
			svr.Log(err, fmt.Sprintf("unable to toggle application %d", id))
			svr.JSON(w, http.StatusInternalServerError, map[string]bool{"success": false})
			return
		}
		if notice != "" {
			svr.Flash(w, r, notice)
		}
		svr.JSON(w, http.StatusOK, map[string]int{"applicationId": app.ID})
	}
}

func ApplicantManagerHandler(svr server.Server, jobRepo jobRepository, appRepo applicationRepository) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			j, ok := ownedJob(svr, w, r, jobRepo)
			if !ok {
				return
			}
			apps, err := appRepo.ApplicationsForJob(r.Context(), j.ID)
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to retrieve applications for job %d", j.ID))
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			err = svr.Render(r, w, http.StatusOK, "applicants.html", map[string]interface{}{
				"Job":    j,
				"Groups": application.Group(apps),
			})
			if err != nil {
				svr.Log(err, "unable to render applicant manager")
			}
		},
	)
}

func ApplicantDetailHandler(svr server.Server, jobRepo jobRepository, appRepo applicationRepository) http.HandlerFunc {
	return middleware.EmployerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			j, ok := ownedJob(svr, w, r, jobRepo)
			if !ok {
				return
			}
			app, err := appRepo.ApplicationForJobAndSeekerUID(r.Context(), j.ID, mux.Vars(r)["uid"])
			if errors.Is(err, application.ErrNotFound) {
				svr.RenderError(r, w, http.StatusNotFound)
				return
			}
			if err != nil {
				svr.Log(err, "unable to retrieve application")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			err = svr.Render(r, w, http.StatusOK, "applicant.html", map[string]interface{}{
				"Job":         j,
				"Application": app,
			})
			if err != nil {
				svr.Log(err, "unable to render applicant")
			}
		},
	)
}

// publishedJob loads the published job in the route, writing a 404 for
// drafts and unknown slugs.
func publishedJob(svr server.Server, w http.ResponseWriter, r *http.Request, jobRepo jobRepository) (job.Job, bool) {
	j, err := jobRepo.JobBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil && !errors.Is(err, job.ErrNotFound) {
		svr.Log(err, "unable to retrieve job")
		svr.RenderError(r, w, http.StatusInternalServerError)
		return job.Job{}, false
	}
	if err != nil || !j.IsPublished() {
		svr.RenderError(r, w, http.StatusNotFound)
		return job.Job{}, false
	}
	return j, true
}

func renderApply(svr server.Server, w http.ResponseWriter, r *http.Request, j job.Job, errs form.Errors) {
	err := svr.Render(r, w, http.StatusOK, "apply.html", map[string]interface{}{
		"Job":               j,
		"Errors":            errs,
		"AllowedExtensions": resume.AllowedExtensions,
	})
	if err != nil {
		svr.Log(err, "unable to render apply page")
	}
}

func ApplyJobHandler(svr server.Server, jobRepo jobRepository, appRepo applicationRepository, store resume.Store) http.HandlerFunc {
	return middleware.JobSeekerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			j, ok := publishedJob(svr, w, r, jobRepo)
			if !ok {
				return
			}
			user := svr.CurrentUser(r)
			errs := form.Errors{}
			applied, err := appRepo.HasApplied(r.Context(), j.ID, user.AccountID)
			if err != nil {
				svr.Log(err, "unable to check application")
			}
			if applied {
				errs.Add("", "You have already applied for this job.")
			}
			if r.Method == http.MethodGet || applied {
				renderApply(svr, w, r, j, errs)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, resume.MaxSize+(1<<20))
			name, data, err := resume.ReadUpload(r, "resume")
			switch {
			case errors.Is(err, resume.ErrTooLarge):
				errs.Add("resume", "Resume must be smaller than 5MB.")
			case err != nil && !errors.Is(err, resume.ErrMissing) && !errors.Is(err, resume.ErrExtensionNotValid):
				svr.Log(err, "unable to read resume upload")
				errs.Add("resume", "Resume must be smaller than 5MB.")
			default:
				for field, msg := range form.Validate(application.ApplyRq{ResumeFileName: name}) {
					errs.Add(field, msg)
				}
			}
			if errs.Any() {
				renderApply(svr, w, r, j, errs)
				return
			}
			file, err := store.Save(r.Context(), user.AccountID, name, data)
			if err != nil {
				svr.Log(err, "unable to save resume")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			_, err = appRepo.Apply(r.Context(), j.ID, user.AccountID, file.ID)
			if errors.Is(err, application.ErrAlreadyApplied) {
				errs.Add("", "You have already applied for this job.")
				renderApply(svr, w, r, j, errs)
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to apply for job %d", j.ID))
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			svr.Flash(w, r, "Your application has been submitted!")
			svr.Redirect(w, r, http.StatusSeeOther, "/ac/"+user.UID+"/proposals/")
		},
	)
}

func renderReport(svr server.Server, w http.ResponseWriter, r *http.Request, j job.Job, rq report.ReportRq, errs form.Errors) {
	err := svr.Render(r, w, http.StatusOK, "report.html", map[string]interface{}{
		"Job":     j,
		"Form":    rq,
		"Errors":  errs,
		"Reasons": report.Reasons,
	})
	if err != nil {
		svr.Log(err, "unable to render report page")
	}
}

func ReportJobHandler(svr server.Server, jobRepo jobRepository, reportRepo reportRepository) http.HandlerFunc {
	return middleware.JobSeekerAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			j, ok := publishedJob(svr, w, r, jobRepo)
			if !ok {
				return
			}
			if r.Method == http.MethodGet {
				renderReport(svr, w, r, j, report.ReportRq{}, nil)
				return
			}
			user := svr.CurrentUser(r)
			rq := report.ReportRq{
				Reason: atoi(r.FormValue("reason")),
				Detail: plainText(r.FormValue("detail")),
			}
			errs := form.Validate(rq)
			if errs.Any() {
				renderReport(svr, w, r, j, rq, errs)
				return
			}
			_, err := reportRepo.Create(r.Context(), report.Report{
				JobID:       j.ID,
				JobSeekerID: user.AccountID,
				Reason:      report.Reason(rq.Reason),
				Detail:      rq.Detail,
			})
			if errors.Is(err, report.ErrAlreadyReported) {
				errs.Add("", "You have already reported this job.")
				renderReport(svr, w, r, j, rq, errs)
				return
			}
			if err != nil {
				svr.Log(err, fmt.Sprintf("unable to report job %d", j.ID))
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			svr.Flash(w, r, "Your report has been recorded.")
			svr.Redirect(w, r, http.StatusSeeOther, "/jobs/")
		},
	)
}

// ResumeDownloadHandler serves a resume to the job seeker who uploaded it or
// to an employer who received it with an application.
func ResumeDownloadHandler(svr server.Server, store resume.Store, appRepo applicationRepository) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			user := svr.CurrentUser(r)
			file, err := store.Open(r.Context(), mux.Vars(r)["id"])
			if errors.Is(err, resume.ErrNotFound) {
				svr.RenderError(r, w, http.StatusNotFound)
				return
			}
			if err != nil {
				svr.Log(err, "unable to open resume")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			allowed := file.AccountID == user.AccountID
			if !allowed && user.IsEmployer() {
				allowed, err = appRepo.EmployerReceivedResume(r.Context(), user.EmployerID, file.ID)
				if err != nil {
					svr.Log(err, "unable to check resume access")
				}
			}
			if !allowed {
				svr.RenderError(r, w, http.StatusForbidden)
				return
			}
			svr.MEDIA(w, http.StatusOK, file.Bytes, file.MediaType, file.FileName)
		},
	)
}
