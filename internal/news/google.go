package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/cleared-dev/folio/internal/config"
	"github.com/cleared-dev/folio/internal/model"
)

const searchPath = "/rss/search"

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Items []item `xml:"item"`
}

type item struct {
	Title   string     `xml:"title"`
	Link    string     `xml:"link"`
	PubDate string     `xml:"pubDate"`
	Source  itemSource `xml:"source"`
}

type itemSource struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// GoogleNews searches the Google News RSS feed.
type GoogleNews struct {
	client   *resty.Client
	language string
	country  string
	limit    int
}

// NewGoogleNews creates a client for cfg's base URL and locale.
func NewGoogleNews(cfg config.NewsConfig) *GoogleNews {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", "folio/1.0 (+https://github.com/cleared-dev/folio)")

	limit := cfg.Limit
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return &GoogleNews{
		client:   client,
		language: cfg.Language,
		country:  cfg.Country,
		limit:    limit,
	}
}

// Search returns at most limit headlines for query. An empty query returns
// no results without a request.
func (g *GoogleNews) Search(ctx context.Context, query string) ([]model.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := map[string]string{"q": query}
	if g.language != "" {
		params["hl"] = g.language
	}
	if g.country != "" {
		params["gl"] = g.country
		lang, _, _ := strings.Cut(g.language, "-")
		if lang != "" {
			params["ceid"] = g.country + ":" + lang
		}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("fetching news for %q: %w", query, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetching news for %q: HTTP %d", query, resp.StatusCode())
	}

	var feed rss
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("parsing news feed: %w", err)
	}

	articles := make([]model.Article, 0, g.limit)
	for _, it := range feed.Channel.Items {
		if len(articles) == g.limit {
			break
		}
		title := cleanText(it.Title)
		if title == "" {
			continue
		}
		articles = append(articles, model.Article{
			Title:     title,
			Link:      strings.TrimSpace(it.Link),
			Source:    cleanText(it.Source.Text),
			Published: parseDate(it.PubDate),
		})
	}
	return articles, nil
}

// cleanText strips markup and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
