package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline and cache events at debug level.
type LogHooks struct {
	Logger *log.Logger
}

var (
	_ PipelineHooks = LogHooks{}
	_ CacheHooks    = LogHooks{}
	_ HTTPHooks     = LogHooks{}
)

func (h LogHooks) OnDatasetLoad(_ context.Context, source string, size int, err error) {
	if err != nil {
		h.Logger.Warn("dataset load failed", "source", source, "err", err)
		return
	}
	h.Logger.Debug("dataset loaded", "source", source, "bytes", size)
}

func (h LogHooks) OnLayoutStart(_ context.Context, chart string, elements int) {
	h.Logger.Debug("layout start", "chart", chart, "elements", elements)
}

func (h LogHooks) OnLayoutComplete(_ context.Context, chart string, d time.Duration, err error) {
	h.Logger.Debug("layout done", "chart", chart, "took", d, "err", err)
}

func (h LogHooks) OnRenderStart(_ context.Context, chart string, formats []string) {
	h.Logger.Debug("render start", "chart", chart, "formats", formats)
}

func (h LogHooks) OnRenderComplete(_ context.Context, chart string, formats []string, d time.Duration, err error) {
	h.Logger.Debug("render done", "chart", chart, "formats", formats, "took", d, "err", err)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h LogHooks) OnCacheError(_ context.Context, keyType string, err error) {
	h.Logger.Warn("cache error", "type", keyType, "err", err)
}

func (h LogHooks) OnRequest(_ context.Context, method, route string) {}

func (h LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("request", "method", method, "route", route, "status", status, "took", d)
}
