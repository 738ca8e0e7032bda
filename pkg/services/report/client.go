package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Type selects one of the two upstream transaction reports. The endpoints
// key clinics differently and name the monetary field differently; both
// resolve to the same clinic id in our model.
type Type string

const (
	Products   Type = "products"
	Treatments Type = "treatments"
)

func (t Type) endpoint() string {
	if t == Treatments {
		return "laporan-penjualan-perawatan"
	}
	return "laporan-penjualan-produk"
}

func (t Type) clinicKey() string {
	if t == Treatments {
		return "klinik"
	}
	return "nama_cabang"
}

type Fetcher interface {
	// FetchAll walks every page of one report for one clinic and date
	// range. Upstream failures degrade to a partial (possibly empty)
	// result; the only thing that stops the walk early besides the
	// upstream is context cancellation.
	FetchAll(ctx context.Context, typ Type, clinicID int, period domain.Period) []Record
}

type Config struct {
	BaseURL       string
	MaxPages      int
	MaxRetries    int
	RetryWaitMin  time.Duration
	RetryWaitMax  time.Duration
	RateLimitWait time.Duration
	PageDelay     time.Duration
}

type Client struct {
	http          *retryablehttp.Client
	baseURL       string
	maxPages      int
	rateLimitWait time.Duration
	pageDelay     time.Duration
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		maxPages:      cfg.MaxPages,
		rateLimitWait: cfg.RateLimitWait,
		pageDelay:     cfg.PageDelay,
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.Logger = nil
	rc.Backoff = c.backoff
	c.http = rc
	return c
}

// backoff waits a fixed interval on 429 (the upstream rate limit is soft
// and recovers quickly) and falls back to exponential backoff between
// RetryWaitMin and RetryWaitMax for 5xx and network failures.
func (c *Client) backoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return c.rateLimitWait
	}
	return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
}

type pageResponse struct {
	Data        []Record `json:"data"`
	NextPageURL string   `json:"next_page_url"`
}

func (c *Client) FetchAll(ctx context.Context, typ Type, clinicID int, period domain.Period) []Record {
	logger := zerolog.Ctx(ctx)

	var all []Record
	for page := 1; page <= c.maxPages; page++ {
		body, ok := c.fetchPage(ctx, typ, clinicID, period, page)
		if !ok {
			return all
		}
		if len(body.Data) == 0 {
			return all
		}
		all = append(all, body.Data...)
		if body.NextPageURL == "" {
			return all
		}
		if !sleep(ctx, c.pageDelay) {
			return all
		}
	}
	logger.Warn().
		Str("report", string(typ)).
		Int("clinic_id", clinicID).
		Int("max_pages", c.maxPages).
		Msg("page ceiling reached, returning partial result")
	return all
}

// fetchPage requests a single page, retrying per the client's policy.
// ok is false when the page must be abandoned; accumulated data from
// earlier pages is still served.
func (c *Client) fetchPage(
	ctx context.Context,
	typ Type,
	clinicID int,
	period domain.Period,
	page int,
) (*pageResponse, bool) {
	logger := zerolog.Ctx(ctx)

	q := url.Values{}
	q.Set(typ.clinicKey(), strconv.Itoa(clinicID))
	q.Set("dari_tanggal", period.StartDate())
	q.Set("sampai_tanggal", period.EndDate())
	q.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, typ.endpoint(), q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Error().Err(err).Str("url", endpoint).Msg("failed to build report request")
		return nil, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("report", string(typ)).
			Int("page", page).
			Msg("report page abandoned after retries")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn().
			Int("status", resp.StatusCode).
			Str("report", string(typ)).
			Int("page", page).
			Msg("report page abandoned")
		return nil, false
	}

	var body pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Warn().
			Err(err).
			Str("report", string(typ)).
			Int("page", page).
			Msg("malformed report page")
		return nil, false
	}
	return &body, true
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
