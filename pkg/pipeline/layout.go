package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/qadash/pkg/cache"
	"github.com/matzehuels/qadash/pkg/render/flow"
	"github.com/matzehuels/qadash/pkg/render/heatmap"
	"github.com/matzehuels/qadash/pkg/report"
)

// BuildFlow lays out the dataset's flow diagram, applying any geometry or
// style overrides the dataset carries.
func BuildFlow(ds *report.Dataset) flow.Layout {
	var opts []flow.Option
	if ds.FlowGeometry != nil {
		opts = append(opts, flow.WithGeometry(*ds.FlowGeometry))
	}
	if ds.FlowStyle != nil {
		opts = append(opts, flow.WithStyle(*ds.FlowStyle))
	}
	return flow.Build(ds.Flow, opts...)
}

// BuildHeatmap lays out the dataset's error grid.
func BuildHeatmap(ds *report.Dataset) heatmap.Layout {
	return heatmap.Build(ds.Heatmap)
}

// DatasetHash returns a content hash of ds for cache keys. Two datasets
// that decode to the same values hash the same regardless of formatting.
func DatasetHash(ds *report.Dataset) string {
	data, err := json.Marshal(ds)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
