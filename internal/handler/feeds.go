package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/sebez/jobboard/internal/server"
	"github.com/snabb/sitemap"
)

const (
	rssJobs     = 20
	sitemapJobs = 50000
)

func ServeRSSFeed(svr server.Server, jobRepo jobRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := jobRepo.LatestPublished(r.Context(), rssJobs)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for RSS Feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		cfg := svr.GetConfig()
		base := cfg.URLProtocol + "://" + cfg.SiteHost
		feed := &feeds.Feed{
			Title:       cfg.SiteName + " Jobs",
			Link:        &feeds.Link{Href: base},
			Description: "Latest jobs posted on " + cfg.SiteName,
			Author:      &feeds.Author{Name: cfg.SiteName, Email: cfg.SupportEmail},
			Created:     time.Now(),
		}
		for _, j := range jobs {
			feed.Items = append(feed.Items, &feeds.Item{
				Id:          fmt.Sprintf("%s/jobs/%s/", base, j.Slug),
				Title:       fmt.Sprintf("%s with %s - %s", j.Title, j.CompanyName, j.Location),
				Link:        &feeds.Link{Href: fmt.Sprintf("%s/jobs/%s/", base, j.Slug)},
				Description: j.Summary,
				Author:      &feeds.Author{Name: j.CompanyName},
				Created:     j.DatePosted,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}

func SitemapHandler(svr server.Server, jobRepo jobRepository, categoryRepo categoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := jobRepo.LatestPublished(r.Context(), sitemapJobs)
		if err != nil {
			svr.Log(err, "unable to retrieve jobs for sitemap")
			svr.TEXT(w, http.StatusInternalServerError, "unable to fetch sitemap")
			return
		}
		categories, err := categoryRepo.Categories(r.Context(), 0)
		if err != nil {
			svr.Log(err, "unable to retrieve categories for sitemap")
			svr.TEXT(w, http.StatusInternalServerError, "unable to fetch sitemap")
			return
		}
		cfg := svr.GetConfig()
		base := cfg.URLProtocol + "://" + cfg.SiteHost
		now := time.Now().UTC()
		sm := sitemap.New()
		for _, p := range []string{"/", "/jobs/"} {
			sm.Add(&sitemap.URL{Loc: base + p, LastMod: &now, ChangeFreq: sitemap.Daily})
		}
		for _, c := range categories {
			sm.Add(&sitemap.URL{Loc: base + "/category/" + c.Slug + "/", LastMod: &now, ChangeFreq: sitemap.Daily})
		}
		for _, j := range jobs {
			posted := j.DatePosted
			sm.Add(&sitemap.URL{Loc: base + "/jobs/" + j.Slug + "/", LastMod: &posted, ChangeFreq: sitemap.Weekly})
		}
		buf := new(bytes.Buffer)
		if _, err := sm.WriteTo(buf); err != nil {
			svr.Log(err, "sitemap.WriteTo")
			svr.TEXT(w, http.StatusInternalServerError, "unable to save sitemap file")
			return
		}
		svr.XML(w, http.StatusOK, buf.Bytes())
	}
}
