package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qadash/pkg/cache"
	"github.com/matzehuels/qadash/pkg/errors"
	"github.com/matzehuels/qadash/pkg/observability"
	"github.com/matzehuels/qadash/pkg/report"
)

// Runner executes the pipeline with caching. It keeps no per-run state,
// so one Runner may serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// uses the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute renders ds as described by opts. Formats found in the cache are
// served from it; the rest are rendered together and written back.
func (r *Runner) Execute(ctx context.Context, ds *report.Dataset, opts Options) (*Result, error) {
	if ds == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset is required")
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Chart:       opts.Chart,
		DatasetHash: DatasetHash(ds),
		Artifacts:   make(map[string][]byte, len(opts.Formats)),
	}

	var missing []string
	for _, format := range opts.Formats {
		if slices.Contains(missing, format) || result.Artifacts[format] != nil {
			continue
		}
		if data, ok := r.lookup(ctx, "artifact", r.Keyer.ArtifactKey(result.DatasetHash, opts.ArtifactKeyOpts(format)), opts.Refresh); ok {
			result.Artifacts[format] = data
			result.CacheInfo.Hits = append(result.CacheInfo.Hits, format)
			continue
		}
		missing = append(missing, format)
	}

	if len(missing) == 0 {
		r.Logger.Debug("all artifacts cached", "chart", opts.Chart, "formats", opts.Formats)
		return result, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, stats, err := Render(ctx, ds, renderOpts)
	if err != nil {
		return nil, err
	}
	result.Stats = stats
	result.CacheInfo.Misses = missing

	for format, data := range rendered {
		result.Artifacts[format] = data
		r.store(ctx, "artifact", r.Keyer.ArtifactKey(result.DatasetHash, opts.ArtifactKeyOpts(format)), data, cache.ArtifactTTL)
	}

	r.Logger.Info("rendered chart",
		"chart", opts.Chart,
		"formats", missing,
		"elements", stats.Elements,
		"duration", stats.RenderTime+stats.LayoutTime)
	return result, nil
}

// lookup reads key unless refresh is set. Backend errors count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string, refresh bool) ([]byte, bool) {
	if refresh {
		return nil, false
	}
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		hooks.OnCacheError(ctx, keyType, err)
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	case hit:
		hooks.OnCacheHit(ctx, keyType)
		return data, true
	default:
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
}

func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		observability.Cache().OnCacheError(ctx, keyType, err)
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Digest is the summary document served by the API.
type Digest struct {
	Title      string              `json:"title"`
	Period     string              `json:"period"`
	Target     float64             `json:"accuracy_target"`
	Thresholds report.Thresholds   `json:"thresholds"`
	Overview   report.Overview     `json:"overview"`
	Trend      report.TrendSummary `json:"trend"`
	Markets    []report.MarketRow  `json:"markets"`
	Issues     []report.Issue      `json:"critical_issues"`
}

// NewDigest derives the summary document of ds.
func NewDigest(ds *report.Dataset) Digest {
	return Digest{
		Title:      ds.Title,
		Period:     ds.Period,
		Target:     ds.AccuracyTarget,
		Thresholds: ds.Thresholds,
		Overview:   report.Summary(ds),
		Trend:      report.Trend(ds.Trend),
		Markets:    report.Rows(ds),
		Issues:     report.CriticalIssues(ds, report.CriticalIssueLimit),
	}
}

// Summary returns the JSON digest of ds, cached under the dataset hash.
func (r *Runner) Summary(ctx context.Context, ds *report.Dataset) ([]byte, error) {
	if ds == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "dataset is required")
	}
	key := r.Keyer.SummaryKey(DatasetHash(ds))
	if data, ok := r.lookup(ctx, "summary", key, false); ok {
		return data, nil
	}
	data, err := json.MarshalIndent(NewDigest(ds), "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode summary")
	}
	r.store(ctx, "summary", key, data, cache.SummaryTTL)
	return data, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
