package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/go-covid-forecast/internal/config"
	"github.com/mr1hm/go-covid-forecast/internal/models"
)

var ErrMissingIndicator = errors.New("missing indicator table")

// Provider supplies the three raw indicator tables.
type Provider interface {
	Fetch(ctx context.Context) (models.Tables, error)
	Source() string
}

// DirProvider reads the tables from CSV files in a local directory.
type DirProvider struct {
	Dir string
}

func (p *DirProvider) Source() string {
	return "dir:" + p.Dir
}

// matchIndicator classifies a file name the way the dataset folders are
// usually laid out: confirmed wins over death, death over recovered.
func matchIndicator(name string) (models.Indicator, bool) {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".csv") {
		return "", false
	}
	switch {
	case strings.Contains(lower, "confirmed"):
		return models.IndicatorConfirmed, true
	case strings.Contains(lower, "death"):
		return models.IndicatorDeaths, true
	case strings.Contains(lower, "recovered"):
		return models.IndicatorRecovered, true
	}
	return "", false
}

// Discover maps each indicator to a file in dir. When several files match
// the same indicator the last one in lexical order is used.
func Discover(dir string) (map[models.Indicator]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading dataset dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make(map[models.Indicator]string, len(models.Indicators))
	for _, name := range names {
		if ind, ok := matchIndicator(name); ok {
			files[ind] = filepath.Join(dir, name)
		}
	}

	var missing []string
	for _, ind := range models.Indicators {
		if _, ok := files[ind]; !ok {
			missing = append(missing, ind.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: %s", ErrMissingIndicator, dir, strings.Join(missing, ", "))
	}

	return files, nil
}

func (p *DirProvider) Fetch(ctx context.Context) (models.Tables, error) {
	files, err := Discover(p.Dir)
	if err != nil {
		return models.Tables{}, err
	}

	var tables models.Tables
	for _, ind := range models.Indicators {
		if err := ctx.Err(); err != nil {
			return models.Tables{}, err
		}
		t, err := readFile(ind, files[ind])
		if err != nil {
			return models.Tables{}, err
		}
		tables.Set(t)
	}
	return tables, nil
}

func readFile(ind models.Indicator, path string) (models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()
	return ParseCSV(ind, f)
}

// DefaultFiles are the global time series published by JHU CSSE.
var DefaultFiles = map[models.Indicator]string{
	models.IndicatorConfirmed: "time_series_covid19_confirmed_global.csv",
	models.IndicatorDeaths:    "time_series_covid19_deaths_global.csv",
	models.IndicatorRecovered: "time_series_covid19_recovered_global.csv",
}

// HTTPProvider downloads the three tables concurrently, retrying transient
// failures with exponential backoff.
type HTTPProvider struct {
	BaseURL         string
	Files           map[models.Indicator]string
	Client          *http.Client
	MaxRetries      int
	InitialInterval time.Duration
}

func NewHTTPProvider(baseURL string, timeout time.Duration, maxRetries int) *HTTPProvider {
	return &HTTPProvider{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Files:      DefaultFiles,
		Client:     &http.Client{Timeout: timeout},
		MaxRetries: maxRetries,
	}
}

func (p *HTTPProvider) Source() string {
	return "http:" + p.BaseURL
}

func (p *HTTPProvider) Fetch(ctx context.Context) (models.Tables, error) {
	var (
		mu     sync.Mutex
		tables models.Tables
	)

	for _, ind := range models.Indicators {
		if _, ok := p.Files[ind]; !ok {
			return models.Tables{}, fmt.Errorf("%w: no file configured for %s", ErrMissingIndicator, ind)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, ind := range models.Indicators {
		url := p.BaseURL + "/" + p.Files[ind]

		eg.Go(func() error {
			t, err := p.download(egCtx, ind, url)
			if err != nil {
				return fmt.Errorf("download %s: %w", ind, err)
			}
			mu.Lock()
			tables.Set(t)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return models.Tables{}, err
	}
	return tables, nil
}

func (p *HTTPProvider) download(ctx context.Context, ind models.Indicator, url string) (models.RawTable, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}

	var table models.RawTable
	err := backoff.Retry(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("error creating request: %w", err))
			}

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("error while doing request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return backoff.Permanent(statusErr)
				}
				return statusErr
			}

			t, err := ParseCSV(ind, resp.Body)
			if err != nil {
				return backoff.Permanent(err)
			}
			table = t
			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.MaxRetries)), ctx),
	)
	if err != nil {
		return models.RawTable{}, err
	}
	return table, nil
}

// NewProvider picks the provider named by the data configuration.
func NewProvider(cfg config.DataConfig) Provider {
	if cfg.Source == config.SourceHTTP {
		return NewHTTPProvider(cfg.BaseURL, cfg.FetchTimeout, cfg.MaxRetries)
	}
	return &DirProvider{Dir: cfg.Dir}
}
