package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sebez/jobboard/internal/account"
	"github.com/sebez/jobboard/internal/application"
	"github.com/sebez/jobboard/internal/email"
	"github.com/sebez/jobboard/internal/form"
	"github.com/sebez/jobboard/internal/middleware"
	"github.com/sebez/jobboard/internal/resume"
	"github.com/sebez/jobboard/internal/server"
)

// ownAccount guards the /ac/{uid}/ pages so only the account owner sees them.
func ownAccount(svr server.Server, next http.HandlerFunc) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			if svr.CurrentUser(r).UID != mux.Vars(r)["uid"] {
				svr.RenderError(r, w, http.StatusForbidden)
				return
			}
			next(w, r)
		},
	)
}

func ownJobSeekerAccount(svr server.Server, next http.HandlerFunc) http.HandlerFunc {
	return ownAccount(svr, func(w http.ResponseWriter, r *http.Request) {
		if !svr.CurrentUser(r).IsJobSeeker() {
			svr.RenderError(r, w, http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func parseSignupForm(r *http.Request) account.SignupRq {
	return account.SignupRq{
		FirstName:   plainText(r.FormValue("first_name")),
		LastName:    plainText(r.FormValue("last_name")),
		Email:       account.NormaliseEmail(r.FormValue("email")),
		Password1:   r.FormValue("password1"),
		Password2:   r.FormValue("password2"),
		AccountType: atoi(r.FormValue("account_type")),
		CompanyName: plainText(r.FormValue("company_name")),
	}
}

func renderSignup(svr server.Server, w http.ResponseWriter, r *http.Request, rq account.SignupRq, errs form.Errors) {
	rq.Password1, rq.Password2 = "", ""
	err := svr.Render(r, w, http.StatusOK, "signup.html", map[string]interface{}{
		"Form":   rq,
		"Errors": errs,
	})
	if err != nil {
		svr.Log(err, "unable to render signup page")
	}
}

func SignupHandler(svr server.Server, accountRepo accountRepository, emailer confirmationSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := svr.CurrentUser(r); user != nil {
			svr.Redirect(w, r, http.StatusFound, roleHome(user))
			return
		}
		if r.Method == http.MethodGet {
			renderSignup(svr, w, r, account.SignupRq{AccountType: int(account.TypeJobSeeker)}, nil)
			return
		}
		rq := parseSignupForm(r)
		errs := form.Validate(rq)
		if errs.Any() {
			renderSignup(svr, w, r, rq, errs)
			return
		}
		acc, err := accountRepo.Create(r.Context(), rq)
		if errors.Is(err, account.ErrEmailTaken) {
			errs.Add("email", "An account with this email already exists.")
			renderSignup(svr, w, r, rq, errs)
			return
		}
		if errors.Is(err, account.ErrPasswordTooLong) {
			errs.Add("password1", "Ensure this value has at most 72 bytes.")
			renderSignup(svr, w, r, rq, errs)
			return
		}
		if err != nil {
			svr.Log(err, "unable to create account")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		// email failures are logged only, the account is already created
		cfg := svr.GetConfig()
		token, err := account.NewConfirmationToken(acc.ID, cfg.JwtSigningKey, time.Now())
		if err != nil {
			svr.Log(err, "unable to sign confirmation token")
		} else {
			link := cfg.URLProtocol + "://" + cfg.SiteHost + "/ac/confirm/" + token
			to := email.Address{Name: acc.FullName(), Email: acc.Email}
			if err := emailer.SendConfirmation(r.Context(), to, link); err != nil {
				svr.Log(err, "unable to send confirmation email")
			}
		}
		svr.Redirect(w, r, http.StatusSeeOther, "/ac/verify/")
	}
}

func VerifyEmailPageHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svr.Render(r, w, http.StatusOK, "verify.html", nil); err != nil {
			svr.Log(err, "unable to render verify page")
		}
	}
}

func ConfirmEmailHandler(svr server.Server, accountRepo accountRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invalid := func() {
			err := svr.Render(r, w, http.StatusBadRequest, "error.html", map[string]interface{}{
				"Status":  http.StatusBadRequest,
				"Message": "Confirmation link is invalid.",
			})
			if err != nil {
				svr.Log(err, "unable to render invalid confirmation page")
			}
		}
		accountID, err := account.ParseConfirmationToken(mux.Vars(r)["token"], svr.GetJWTSigningKey())
		if err != nil {
			invalid()
			return
		}
		err = accountRepo.Activate(r.Context(), accountID)
		if errors.Is(err, account.ErrAlreadyActive) {
			invalid()
			return
		}
		if err != nil {
			svr.Log(err, "unable to activate account")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		acc, err := accountRepo.AccountByID(r.Context(), accountID)
		if err != nil {
			svr.Log(err, "unable to retrieve activated account")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		user, err := signIn(svr, w, r, accountRepo, acc)
		if err != nil {
			svr.Log(err, "unable to sign in activated account")
			svr.Redirect(w, r, http.StatusSeeOther, middleware.LoginPath)
			return
		}
		svr.Flash(w, r, "Your email has been verified successfully.")
		svr.Redirect(w, r, http.StatusSeeOther, roleHome(user))
	}
}

func LoginHandler(svr server.Server, accountRepo accountRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := r.FormValue("next")
		if user := svr.CurrentUser(r); user != nil {
			svr.Redirect(w, r, http.StatusFound, roleHome(user))
			return
		}
		render := func(emailAddr string) {
			err := svr.Render(r, w, http.StatusOK, "login.html", map[string]interface{}{
				"Email": emailAddr,
				"Next":  next,
			})
			if err != nil {
				svr.Log(err, "unable to render login page")
			}
		}
		if r.Method == http.MethodGet {
			render("")
			return
		}
		emailAddr := account.NormaliseEmail(r.FormValue("email"))
		acc, err := accountRepo.Authenticate(r.Context(), emailAddr, r.FormValue("password"))
		if err != nil {
			if !errors.Is(err, account.ErrInvalidCredentials) {
				svr.Log(err, "unable to authenticate")
			}
			svr.Flash(w, r, "Invalid Email or Password.")
			render(emailAddr)
			return
		}
		user, err := signIn(svr, w, r, accountRepo, acc)
		if err != nil {
			svr.Log(err, "unable to sign in")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		svr.Redirect(w, r, http.StatusSeeOther, middleware.SafeRedirectTarget(next, roleHome(user)))
	}
}

func LogoutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svr.SignOut(w, r); err != nil {
			svr.Log(err, "unable to sign out")
		}
		svr.Redirect(w, r, http.StatusFound, "/")
	}
}

func ProfilePageHandler(svr server.Server, accountRepo accountRepository) http.HandlerFunc {
	return ownAccount(svr, func(w http.ResponseWriter, r *http.Request) {
		user := svr.CurrentUser(r)
		data := map[string]interface{}{}
		if user.IsEmployer() {
			emp, err := accountRepo.EmployerByAccountID(r.Context(), user.AccountID)
			if err != nil {
				svr.Log(err, "unable to retrieve employer profile")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			acc, err := accountRepo.AccountByID(r.Context(), user.AccountID)
			if err != nil {
				svr.Log(err, "unable to retrieve account")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			data["Account"] = acc
			data["Employer"] = emp
		} else {
			js, err := accountRepo.JobSeekerByAccountID(r.Context(), user.AccountID)
			if err != nil {
				svr.Log(err, "unable to retrieve job seeker profile")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			data["Account"] = js.Account
			data["JobSeeker"] = js
		}
		if err := svr.Render(r, w, http.StatusOK, "profile.html", data); err != nil {
			svr.Log(err, "unable to render profile page")
		}
	})
}

func renderProfileForm(svr server.Server, w http.ResponseWriter, r *http.Request, js account.JobSeeker, rq account.ProfileRq, errs form.Errors) {
	err := svr.Render(r, w, http.StatusOK, "profile-form.html", map[string]interface{}{
		"JobSeeker":         js,
		"Form":              rq,
		"Errors":            errs,
		"AllowedExtensions": resume.AllowedExtensions,
	})
	if err != nil {
		svr.Log(err, "unable to render profile form")
	}
}

func UpdateProfileHandler(svr server.Server, accountRepo accountRepository, store resume.Store) http.HandlerFunc {
	return ownJobSeekerAccount(svr, func(w http.ResponseWriter, r *http.Request) {
		user := svr.CurrentUser(r)
		js, err := accountRepo.JobSeekerByAccountID(r.Context(), user.AccountID)
		if err != nil {
			svr.Log(err, "unable to retrieve job seeker profile")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		if r.Method == http.MethodGet {
			renderProfileForm(svr, w, r, js, account.ProfileRq{
				FirstName:  js.FirstName,
				LastName:   js.LastName,
				Visibility: int(js.Visibility),
			}, nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, resume.MaxSize+(1<<20))
		rq := account.ProfileRq{
			FirstName:  plainText(r.FormValue("first_name")),
			LastName:   plainText(r.FormValue("last_name")),
			Visibility: atoi(r.FormValue("visibility")),
		}
		errs := form.Validate(rq)
		name, data, err := resume.ReadUpload(r, "resume")
		switch {
		case errors.Is(err, resume.ErrMissing):
		case errors.Is(err, resume.ErrExtensionNotValid):
			for field, msg := range form.Validate(application.ApplyRq{ResumeFileName: name}) {
				errs.Add(field, msg)
			}
		case err != nil:
			errs.Add("resume", "Resume must be smaller than 5MB.")
		}
		if errs.Any() {
			renderProfileForm(svr, w, r, js, rq, errs)
			return
		}
		var resumeID string
		if data != nil {
			file, err := store.Save(r.Context(), user.AccountID, name, data)
			if err != nil {
				svr.Log(err, "unable to save resume")
				svr.RenderError(r, w, http.StatusInternalServerError)
				return
			}
			resumeID = file.ID
		}
		if err := accountRepo.UpdateJobSeeker(r.Context(), user.AccountID, rq, resumeID); err != nil {
			svr.Log(err, "unable to update job seeker profile")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		svr.Flash(w, r, "Your account has been updated successfully.")
		svr.Redirect(w, r, http.StatusSeeOther, "/ac/"+user.UID+"/")
	})
}

func ProposalsHandler(svr server.Server, appRepo applicationRepository) http.HandlerFunc {
	return ownJobSeekerAccount(svr, func(w http.ResponseWriter, r *http.Request) {
		apps, err := appRepo.ApplicationsForJobSeeker(r.Context(), svr.CurrentUser(r).AccountID)
		if err != nil {
			svr.Log(err, "unable to retrieve proposals")
			svr.RenderError(r, w, http.StatusInternalServerError)
			return
		}
		active, archived := application.SplitArchived(apps)
		err = svr.Render(r, w, http.StatusOK, "proposals.html", map[string]interface{}{
			"Active":   active,
			"Archived": archived,
		})
		if err != nil {
			svr.Log(err, "unable to render proposals page")
		}
	})
}

func ResumeBuilderHandler(svr server.Server) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			user := svr.CurrentUser(r)
			err := svr.Render(r, w, http.StatusOK, "resume-builder.html", map[string]interface{}{
				"FirstName": strings.TrimSpace(user.FirstName),
			})
			if err != nil {
				svr.Log(err, "unable to render resume builder")
			}
		},
	)
}
