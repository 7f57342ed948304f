package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default provider endpoints. Tests point these at httptest servers.
const (
	defaultSearchBaseURL  = "https://api.duckduckgo.com"
	defaultCryptoBaseURL  = "https://api.coingecko.com"
	defaultNewsBaseURL    = "https://newsapi.org"
	defaultWeatherBaseURL = "https://api.openweathermap.org"
)

// ProviderConfig configures the external data providers behind the
// capabilities. Zero-value base URLs select the real services; absent keys
// make the news and weather capabilities fall back to web search.
type ProviderConfig struct {
	NewsAPIKey string
	WeatherKey string

	SearchBaseURL  string
	CryptoBaseURL  string
	NewsBaseURL    string
	WeatherBaseURL string

	HTTPClient *http.Client // nil gets a 10s-timeout client
}

// Providers performs the upstream calls for the non-knowledge capabilities.
// Every method returns presentable text; upstream failures become degraded
// result strings, never errors.
type Providers struct {
	cfg    ProviderConfig
	client *http.Client
}

// NewProviders applies defaults to cfg.
func NewProviders(cfg ProviderConfig) *Providers {
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = defaultSearchBaseURL
	}
	if cfg.CryptoBaseURL == "" {
		cfg.CryptoBaseURL = defaultCryptoBaseURL
	}
	if cfg.NewsBaseURL == "" {
		cfg.NewsBaseURL = defaultNewsBaseURL
	}
	if cfg.WeatherBaseURL == "" {
		cfg.WeatherBaseURL = defaultWeatherBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Providers{cfg: cfg, client: client}
}

// getJSON issues a GET and decodes the JSON body into out.
func (p *Providers) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// WebSearch queries the DuckDuckGo instant-answer API.
func (p *Providers) WebSearch(ctx context.Context, query string) string {
	u := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		p.cfg.SearchBaseURL, url.QueryEscape(query))

	var data struct {
		Abstract      string `json:"Abstract"`
		Answer        string `json:"Answer"`
		Definition    string `json:"Definition"`
		RelatedTopics []struct {
			Text string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := p.getJSON(ctx, u, &data); err != nil {
		log.Printf("capability: web search failed: %v", err)
		return "Web search is temporarily unavailable."
	}

	switch {
	case data.Abstract != "":
		return "Search result: " + data.Abstract
	case data.Answer != "":
		return "Answer: " + data.Answer
	case data.Definition != "":
		return "Definition: " + data.Definition
	case len(data.RelatedTopics) > 0 && data.RelatedTopics[0].Text != "":
		return "Related info: " + data.RelatedTopics[0].Text
	default:
		return "No specific web results found."
	}
}

// CryptoPrice looks up a coin's USD price and 24h change.
func (p *Providers) CryptoPrice(ctx context.Context, symbol string) string {
	if symbol == "" {
		symbol = DefaultCoin
	}
	u := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		p.cfg.CryptoBaseURL, url.QueryEscape(symbol))

	var data map[string]struct {
		USD       float64 `json:"usd"`
		Change24h float64 `json:"usd_24h_change"`
	}
	if err := p.getJSON(ctx, u, &data); err != nil {
		log.Printf("capability: crypto price failed: %v", err)
		return fmt.Sprintf("The %s price is temporarily unavailable.", symbol)
	}

	quote, ok := data[symbol]
	if !ok {
		return fmt.Sprintf("Could not fetch the %s price.", symbol)
	}
	return fmt.Sprintf("%s is priced at $%.2f (%+.2f%% over 24h)", titleCase(symbol), quote.USD, quote.Change24h)
}

// titleCase uppercases the first letter for display ("bitcoin" → "Bitcoin").
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// News fetches headlines from NewsAPI, falling back to a web search when no
// key is configured or the provider call fails.
func (p *Providers) News(ctx context.Context, topic string) string {
	if p.cfg.NewsAPIKey == "" {
		return p.newsFallback(ctx, topic)
	}

	var u string
	if topic != "" && containsAny(strings.ToLower(topic), []string{"bitcoin", "crypto"}) {
		u = fmt.Sprintf("%s/v2/everything?q=bitcoin+cryptocurrency&sortBy=publishedAt&language=en&apiKey=%s",
			p.cfg.NewsBaseURL, p.cfg.NewsAPIKey)
	} else {
		u = fmt.Sprintf("%s/v2/top-headlines?country=us&language=en&apiKey=%s",
			p.cfg.NewsBaseURL, p.cfg.NewsAPIKey)
	}

	var data struct {
		Articles []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := p.getJSON(ctx, u, &data); err != nil {
		log.Printf("capability: news failed: %v", err)
		return p.newsFallback(ctx, topic)
	}
	if len(data.Articles) == 0 {
		return p.newsFallback(ctx, topic)
	}

	const maxHeadlines = 3
	out := "Latest news:"
	for i, a := range data.Articles {
		if i == maxHeadlines {
			break
		}
		out += fmt.Sprintf("\n%d. %s", i+1, a.Title)
	}
	return out
}

func (p *Providers) newsFallback(ctx context.Context, topic string) string {
	if topic == "" {
		return p.WebSearch(ctx, "latest news today")
	}
	return p.WebSearch(ctx, "latest news "+topic)
}

// Weather fetches current conditions from OpenWeatherMap, falling back to a
// web search when no key is configured or the provider call fails.
func (p *Providers) Weather(ctx context.Context, location string) string {
	if location == "" {
		location = DefaultLocation
	}
	if p.cfg.WeatherKey == "" {
		return p.WebSearch(ctx, fmt.Sprintf("weather in %s today", location))
	}

	u := fmt.Sprintf("%s/data/2.5/weather?q=%s&appid=%s&units=metric",
		p.cfg.WeatherBaseURL, url.QueryEscape(location), p.cfg.WeatherKey)

	var data struct {
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := p.getJSON(ctx, u, &data); err != nil {
		log.Printf("capability: weather failed: %v", err)
		return p.WebSearch(ctx, fmt.Sprintf("weather in %s today", location))
	}

	desc := "unknown conditions"
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}
	return fmt.Sprintf("Weather in %s: %.1f°C, %s, humidity %d%%",
		location, data.Main.Temp, desc, data.Main.Humidity)
}
