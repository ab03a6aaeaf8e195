package multimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
)

const (
	DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	DefaultPixabayURL    = "https://pixabay.com/api/"
)

// Config configures Client. Empty URLs fall back to the public defaults.
type Config struct {
	DictionaryURL string
	PixabayURL    string
	PixabayKey    string
	Timeout       time.Duration
}

type Client struct {
	httpClient    *http.Client
	dictionaryURL string
	pixabayURL    string
	pixabayKey    string
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.DictionaryURL == "" {
		cfg.DictionaryURL = DefaultDictionaryURL
	}
	if cfg.PixabayURL == "" {
		cfg.PixabayURL = DefaultPixabayURL
	}
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		dictionaryURL: strings.TrimRight(cfg.DictionaryURL, "/"),
		pixabayURL:    cfg.PixabayURL,
		pixabayKey:    cfg.PixabayKey,
	}
}

type dictionaryEntry struct {
	Phonetics []struct {
		Text  string `json:"text"`
		Audio string `json:"audio"`
	} `json:"phonetics"`
}

type pixabayResp struct {
	Hits []struct {
		WebformatURL string `json:"webformatURL"`
		PreviewURL   string `json:"previewURL"`
	} `json:"hits"`
}

// FetchAudio returns the first pronunciation recording the dictionary has
// for word.
func (c *Client) FetchAudio(ctx context.Context, word string) models.MediaLookup {
	log := logger.FromContext(ctx).WithPrefix("multimedia").WithField("word", word)
	endpoint := fmt.Sprintf("%s/%s", c.dictionaryURL, url.PathEscape(word))

	var entries []dictionaryEntry
	status, err := c.getJSON(ctx, endpoint, &entries)
	if status == http.StatusNotFound {
		log.Debug("no dictionary entry")
		return failed("no pronunciation found")
	}
	if err != nil {
		log.Warn("audio lookup failed: %v", err)
		return failed("audio service unavailable")
	}

	for _, e := range entries {
		for _, p := range e.Phonetics {
			if a := strings.TrimSpace(p.Audio); a != "" {
				log.Debug("audio found: %s", a)
				return found(a)
			}
		}
	}
	return failed("no pronunciation found")
}

// FetchImage returns the first Pixabay hit for word.
func (c *Client) FetchImage(ctx context.Context, word string) models.MediaLookup {
	log := logger.FromContext(ctx).WithPrefix("multimedia").WithField("word", word)
	if c.pixabayKey == "" {
		return failed("image service not configured")
	}

	q := url.Values{}
	q.Set("key", c.pixabayKey)
	q.Set("q", word)
	q.Set("image_type", "photo")
	q.Set("safesearch", "true")
	q.Set("per_page", "3")

	var out pixabayResp
	if _, err := c.getJSON(ctx, c.pixabayURL+"?"+q.Encode(), &out); err != nil {
		log.Warn("image lookup failed: %v", err)
		return failed("image service unavailable")
	}
	for _, hit := range out.Hits {
		if u := hit.WebformatURL; u != "" {
			return found(u)
		}
		if u := hit.PreviewURL; u != "" {
			return found(u)
		}
	}
	return failed("no image found")
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("multimedia")
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func found(u string) models.MediaLookup {
	return models.MediaLookup{Success: true, URL: &u}
}

func failed(msg string) models.MediaLookup {
	return models.MediaLookup{Success: false, Message: msg}
}
