package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/sebez/jobboard/internal/account"
	"github.com/sebez/jobboard/internal/application"
	"github.com/sebez/jobboard/internal/bookmark"
	"github.com/sebez/jobboard/internal/category"
	"github.com/sebez/jobboard/internal/config"
	"github.com/sebez/jobboard/internal/database"
	"github.com/sebez/jobboard/internal/email"
	"github.com/sebez/jobboard/internal/handler"
	"github.com/sebez/jobboard/internal/job"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/report"
	"github.com/sebez/jobboard/internal/resume"
	"github.com/sebez/jobboard/internal/server"
	"github.com/sebez/jobboard/internal/template"
)

//go:embed static
var staticFS embed.FS

func main() {
	// .env is optional, real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	conn, err := database.GetDbConn(
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	if err := database.Migrate(context.Background(), conn); err != nil {
		log.Fatalf("unable to apply schema: %v", err)
	}

	var resumeStore resume.Store = resume.NewDBStore(conn)
	if cfg.ResumeStorage == config.ResumeStorageS3 {
		resumeStore, err = resume.NewS3Store(conn, cfg)
		if err != nil {
			log.Fatalf("unable to create s3 resume store: %v", err)
		}
	}

	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   cfg.Env != "dev",
		SameSite: http.SameSiteLaxMode,
	}
	emailClient := email.NewClient(cfg.EmailAPIKey, cfg.SupportEmail, cfg.NoReplyEmail, cfg.SiteName)

	svr, err := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		template.NewTemplate(staticFS),
		emailClient,
		sessionStore,
	)
	if err != nil {
		log.Fatalf("unable to create server: %v", err)
	}

	accountRepo := account.NewRepository(conn)
	jobRepo := job.NewRepository(conn)
	categoryRepo := category.NewRepository(conn)
	appRepo := application.NewRepository(conn)
	bookmarkRepo := bookmark.NewRepository(conn)
	reportRepo := report.NewRepository(conn)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute)

	assets, err := fs.Sub(staticFS, "static/assets")
	if err != nil {
		log.Fatalf("unable to load static assets: %v", err)
	}
	svr.RegisterPathPrefix("/s/", http.StripPrefix("/s/", http.FileServer(http.FS(assets))), []string{"GET"})
	svr.RegisterRoute("/robots.txt", handler.RobotsTxtHandler(svr), []string{"GET"})
	svr.RegisterRoute("/sitemap.xml", handler.SitemapHandler(svr, jobRepo, categoryRepo), []string{"GET"})
	svr.RegisterRoute("/rss", handler.ServeRSSFeed(svr, jobRepo), []string{"GET"})

	svr.RegisterRoute("/", handler.LandingPageHandler(svr, jobRepo, categoryRepo), []string{"GET"})
	svr.RegisterRoute("/search", handler.SearchHandler(svr, jobRepo, bookmarkRepo, reportRepo), []string{"GET"})
	svr.RegisterRoute("/category/{slug}/", handler.CategoryPageHandler(svr, categoryRepo, jobRepo, bookmarkRepo, reportRepo), []string{"GET"})

	// jobs
	svr.RegisterRoute("/jobs/", handler.JobListHandler(svr, jobRepo, bookmarkRepo, reportRepo), []string{"GET"})
	svr.RegisterRoute("/jobs/{slug}/", handler.JobBySlugPageHandler(svr, jobRepo, appRepo, bookmarkRepo, reportRepo), []string{"GET"})
	svr.RegisterRoute("/jobs/{slug}/edit/", handler.UpdateJobHandler(svr, jobRepo, categoryRepo), []string{"GET", "POST"})
	svr.RegisterRoute("/jobs/{slug}/delete/", handler.DeleteJobHandler(svr, jobRepo), []string{"GET", "POST"})
	svr.RegisterRoute("/jobs/{slug}/apply/", handler.ApplyJobHandler(svr, jobRepo, appRepo, resumeStore), []string{"GET", "POST"})
	svr.RegisterRoute("/jobs/{slug}/reports/", handler.ReportJobHandler(svr, jobRepo, reportRepo), []string{"GET", "POST"})
	svr.RegisterRoute("/jobs/{slug}/applicants/{uid}/", handler.ApplicantDetailHandler(svr, jobRepo, appRepo), []string{"GET"})
	svr.RegisterRoute("/resumes/{id}", handler.ResumeDownloadHandler(svr, resumeStore, appRepo), []string{"GET"})

	// applicant status toggles
	svr.RegisterRoute("/shortlist/", handler.ApplicationStatusHandler(svr, appRepo, application.ActionShortList), []string{"POST"})
	svr.RegisterRoute("/contact/", handler.ApplicationStatusHandler(svr, appRepo, application.ActionContact), []string{"POST"})
	svr.RegisterRoute("/archive/", handler.ApplicationStatusHandler(svr, appRepo, application.ActionArchive), []string{"POST"})

	// employer area
	svr.RegisterRoute("/em/", handler.EmployerHomeHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/em/my-jobs/", handler.EmployerJobsHandler(svr, jobRepo, job.StatusPublished), []string{"GET"})
	svr.RegisterRoute("/em/my-drafts/", handler.EmployerJobsHandler(svr, jobRepo, job.StatusDraft), []string{"GET"})
	svr.RegisterRoute("/em/jobs/new/", handler.CreateJobHandler(svr, jobRepo, categoryRepo), []string{"GET", "POST"})
	svr.RegisterRoute("/em/jobs/{slug}/applicants/", handler.ApplicantManagerHandler(svr, jobRepo, appRepo), []string{"GET"})

	// accounts
	svr.RegisterRoute("/ac/signup/", authLimiter.Limit(handler.SignupHandler(svr, accountRepo, svr.GetEmail())), []string{"GET", "POST"})
	svr.RegisterRoute("/ac/login/", authLimiter.Limit(handler.LoginHandler(svr, accountRepo)), []string{"GET", "POST"})
	svr.RegisterRoute("/ac/logout/", handler.LogoutHandler(svr), []string{"GET"})
	svr.RegisterRoute("/ac/verify/", handler.VerifyEmailPageHandler(svr), []string{"GET"})
	svr.RegisterRoute("/ac/confirm/{token}", handler.ConfirmEmailHandler(svr, accountRepo), []string{"GET"})
	svr.RegisterRoute("/ac/bookmark/", handler.BookmarkJobHandler(svr, bookmarkRepo, jobRepo), []string{"POST"})
	svr.RegisterRoute("/ac/{uid}/", handler.ProfilePageHandler(svr, accountRepo), []string{"GET"})
	svr.RegisterRoute("/ac/{uid}/saved/", handler.SavedJobsHandler(svr, bookmarkRepo), []string{"GET"})
	svr.RegisterRoute("/ac/{uid}/proposals/", handler.ProposalsHandler(svr, appRepo), []string{"GET"})
	svr.RegisterRoute("/ac/{uid}/update/", handler.UpdateProfileHandler(svr, accountRepo, resumeStore), []string{"GET", "POST"})
	svr.RegisterRoute("/resume/", handler.ResumeBuilderHandler(svr), []string{"GET"})

	svr.NotFound(handler.NotFoundHandler(svr))

	log.Fatal(svr.Run())
}
