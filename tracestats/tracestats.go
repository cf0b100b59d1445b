// Package tracestats counts the rays a render casts, exported through
// OpenCensus views.
package tracestats

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	KeyScene = tag.MustNewKey("scene")

	PrimaryRays    = stats.Int64("whitted/primary_rays", "Camera rays traced", stats.UnitDimensionless)
	ShadowRays     = stats.Int64("whitted/shadow_rays", "Shadow rays traced toward lights", stats.UnitDimensionless)
	ReflectionRays = stats.Int64("whitted/reflection_rays", "Mirror reflection rays traced", stats.UnitDimensionless)
	RowsRendered   = stats.Int64("whitted/rows_rendered", "Image rows completed", stats.UnitDimensionless)
)

var (
	PrimaryRaysView = &view.View{
		Name:        "whitted/primary_rays",
		Description: "Total camera rays traced",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     PrimaryRays,
		Aggregation: view.Sum(),
	}
	ShadowRaysView = &view.View{
		Name:        "whitted/shadow_rays",
		Description: "Total shadow rays traced",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     ShadowRays,
		Aggregation: view.Sum(),
	}
	ReflectionRaysView = &view.View{
		Name:        "whitted/reflection_rays",
		Description: "Total reflection rays traced",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     ReflectionRays,
		Aggregation: view.Sum(),
	}
	RowsRenderedView = &view.View{
		Name:        "whitted/rows_rendered",
		Description: "Total image rows completed",
		TagKeys:     []tag.Key{KeyScene},
		Measure:     RowsRendered,
		Aggregation: view.Sum(),
	}
)

func Views() []*view.View {
	return []*view.View{PrimaryRaysView, ShadowRaysView, ReflectionRaysView, RowsRenderedView}
}

func RegisterViews() error {
	return view.Register(Views()...)
}

// Counts accumulates ray counts locally; a worker owns one and records it when
// it finishes a chunk of rows.
type Counts struct {
	Primary    int64
	Shadow     int64
	Reflection int64
	Rows       int64
}

func (c *Counts) Add(o Counts) {
	c.Primary += o.Primary
	c.Shadow += o.Shadow
	c.Reflection += o.Reflection
	c.Rows += o.Rows
}

// Record publishes c under the given scene name.
func Record(ctx context.Context, sceneName string, c Counts) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Upsert(KeyScene, sceneName)),
		stats.WithMeasurements(
			PrimaryRays.M(c.Primary),
			ShadowRays.M(c.Shadow),
			ReflectionRays.M(c.Reflection),
			RowsRendered.M(c.Rows),
		),
	)
}
