package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sebez/jobboard/internal/job"
	"github.com/sebez/jobboard/internal/server"
)

func BookmarkJobHandler(svr server.Server, bookmarkRepo bookmarkRepository, jobRepo jobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := svr.CurrentUser(r)
		if user == nil {
			svr.Flash(w, r, "Login to your account to bookmark jobs.")
			svr.JSON(w, http.StatusUnauthorized, map[string]bool{"isBookmarked": false})
			return
		}
		jobID, err := strconv.Atoi(r.FormValue("job_id"))
		if err != nil {
			svr.JSON(w, http.StatusNotFound, map[string]bool{"isBookmarked": false})
			return
		}
		j, err := jobRepo.JobByID(r.Context(), jobID)
		if err != nil && !errors.Is(err, job.ErrNotFound) {
			svr.Log(err, "unable to retrieve job to bookmark")
			svr.JSON(w, http.StatusInternalServerError, map[string]bool{"isBookmarked": false})
			return
		}
		// drafts stay invisible to everyone but their owner
		if err != nil || (!j.IsPublished() && !isJobOwner(user, j)) {
			svr.JSON(w, http.StatusNotFound, map[string]bool{"isBookmarked": false})
			return
		}
		bookmarked, err := bookmarkRepo.Toggle(r.Context(), user.AccountID, jobID)
		if err != nil {
			svr.Log(err, "unable to toggle bookmark")
			svr.JSON(w, http.StatusInternalServerError, map[string]bool{"isBookmarked": false})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"isBookmarked": bookmarked,
			"jobId":        strconv.Itoa(jobID),
		})
	}
}

func SavedJobsHandler(svr server.Server, bookmarkRepo bookmarkRepository) http.HandlerFunc {
	return ownAccount(svr, func(w http.ResponseWriter, r *http.Request) {
		user := svr.CurrentUser(r)
		bookmarks, page, err := bookmarkRepo.BookmarksForAccount(r.Context(), user.AccountID, r.URL.Query().Get("page"), svr.GetConfig().JobsPerPage)
		if err != nil {
			svr.Log(err, "unable to retrieve bookmarks")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		err = svr.Render(r, w, http.StatusOK, "saved-jobs.html", map[string]interface{}{
			"Bookmarks": bookmarks,
			"Page":      page,
		})
		if err != nil {
			svr.Log(err, "unable to render saved jobs page")
		}
	})
}
