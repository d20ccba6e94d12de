package handler

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/gin-gonic/gin"
)

const sitemapCacheControl = "public, max-age=60, s-maxage=60, stale-while-revalidate=300"

// SitemapLister lists every stored skill for the sitemap.
type SitemapLister interface {
	SitemapEntries(ctx context.Context) ([]domain.SitemapEntry, error)
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// SitemapHandler renders /sitemap.xml on demand.
type SitemapHandler struct {
	skills  SitemapLister
	baseURL string
	now     func() time.Time
}

// NewSitemapHandler creates a sitemap handler rooted at baseURL.
func NewSitemapHandler(skills SitemapLister, baseURL string) *SitemapHandler {
	return &SitemapHandler{
		skills:  skills,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// Sitemap handles GET /sitemap.xml. A datastore failure still yields the
// root URL.
func (h *SitemapHandler) Sitemap(c *gin.Context) {
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{{
			Loc:        h.baseURL + "/",
			LastMod:    h.now().UTC().Format(time.RFC3339),
			ChangeFreq: "daily",
			Priority:   "1.0",
		}},
	}

	entries, err := h.skills.SitemapEntries(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Warn("Sitemap falling back to static URLs")
	}
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + "/skill/" + e.ID,
			LastMod:    e.CreatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: "never",
			Priority:   "0.7",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header("Cache-Control", sitemapCacheControl)
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}
