// Package tracer is a recursive Whitted ray tracer: Phong direct lighting with
// shadow rays, plus mirror reflections followed to a fixed depth.
package tracer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"row-major/whitted/camera"
	"row-major/whitted/envmap"
	"row-major/whitted/hit"
	"row-major/whitted/illuminator"
	"row-major/whitted/light"
	"row-major/whitted/material"
	"row-major/whitted/ray"
	"row-major/whitted/rgbimage"
	"row-major/whitted/scene"
	"row-major/whitted/tracestats"
	"row-major/whitted/vmath/vec2"
	"row-major/whitted/vmath/vec3"

	"github.com/golang/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultShadowBias        = 0.01
	DefaultReflectionBias    = 0.01
	DefaultSpecularThreshold = 1e-2
)

type Options struct {
	Width, Height int

	// MaxBounces is how many mirror reflections a primary ray may follow.
	MaxBounces int

	// Shadows enables shadow rays.  When false every light reaches every
	// surface facing it.
	Shadows bool

	// Background is returned for rays that escape the scene when EnvMap is
	// nil.
	Background vec3.T
	EnvMap     envmap.Map

	Camera camera.Camera

	// ShadowBias and ReflectionBias offset secondary ray origins along their
	// direction so they do not re-hit the surface they leave.  Zero selects
	// the default.
	ShadowBias     float64
	ReflectionBias float64

	// SpecularThreshold is the specular color magnitude below which no
	// reflection ray is cast.  Zero selects the default.
	SpecularThreshold float64

	// Workers is the number of concurrent row-chunk workers.  Zero selects
	// one per CPU.
	Workers int
}

type Tracer struct {
	opts Options
}

func New(opts Options) (*Tracer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("image size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.MaxBounces < 0 {
		return nil, fmt.Errorf("max bounces must be non-negative, got %d", opts.MaxBounces)
	}
	if opts.Camera == nil {
		return nil, fmt.Errorf("a camera is required")
	}

	if opts.ShadowBias == 0 {
		opts.ShadowBias = DefaultShadowBias
	}
	if opts.ReflectionBias == 0 {
		opts.ReflectionBias = DefaultReflectionBias
	}
	if opts.SpecularThreshold == 0 {
		opts.SpecularThreshold = DefaultSpecularThreshold
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	return &Tracer{opts: opts}, nil
}

func (t *Tracer) Options() Options {
	return t.opts
}

// Render crushes s, traces one ray per pixel, and, if outputPath is not empty,
// saves the image there once every pixel is done.
func (t *Tracer) Render(ctx context.Context, s *scene.Scene, outputPath string) (*rgbimage.Image, error) {
	tracer := otel.Tracer("row-major/whitted/tracer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "Tracer.Render")
	defer span.End()

	span.SetAttributes(
		attribute.String("scene", s.Name),
		attribute.Int64("width", int64(t.opts.Width)),
		attribute.Int64("height", int64(t.opts.Height)),
		attribute.Int64("max_bounces", int64(t.opts.MaxBounces)),
		attribute.Bool("shadows", t.opts.Shadows),
	)

	fail := func(err error) (*rgbimage.Image, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cs, err := s.Crush()
	if err != nil {
		return fail(fmt.Errorf("while crushing scene: %w", err))
	}

	glog.Infof("Rendering scene %q at %dx%d, max bounces %d, shadows %v, %d workers",
		s.Name, t.opts.Width, t.opts.Height, t.opts.MaxBounces, t.opts.Shadows, t.opts.Workers)
	start := time.Now()

	img, counts, err := t.renderCrushed(ctx, s.Name, cs)
	if err != nil {
		return fail(err)
	}

	glog.Infof("Rendered scene %q in %v: %d primary, %d shadow, %d reflection rays",
		s.Name, time.Since(start), counts.Primary, counts.Shadow, counts.Reflection)

	if outputPath != "" {
		if err := img.Save(ctx, outputPath); err != nil {
			return fail(fmt.Errorf("while saving image: %w", err))
		}
		glog.Infof("Saved render to %s", outputPath)
	}

	span.SetStatus(codes.Ok, "")
	return img, nil
}

// chunkWorker renders a band of rows into its own cut of the image.
type chunkWorker struct {
	tracer *Tracer
	scene  *scene.CrushedScene
	img    *rgbimage.Image

	rowSrc, rowLim int

	counts tracestats.Counts
}

func (w *chunkWorker) render(ctx context.Context) error {
	opts := w.tracer.opts
	for y := w.rowSrc; y < w.rowLim; y++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := 0; x < opts.Width; x++ {
			r := opts.Camera.GenerateRay(vec2.FromPixel(x, y, opts.Width, opts.Height))

			rec := hit.NewRecord()
			w.counts.Primary++
			color := w.tracer.traceRay(w.scene, r, opts.MaxBounces, &rec, &w.counts)
			w.img.SetPixel(x, y-w.rowSrc, color)
		}
		w.counts.Rows++
	}
	return nil
}

func (t *Tracer) renderCrushed(ctx context.Context, sceneName string, cs *scene.CrushedScene) (*rgbimage.Image, tracestats.Counts, error) {
	img := rgbimage.New(t.opts.Width, t.opts.Height)

	workers := t.opts.Workers
	if workers > t.opts.Height {
		workers = t.opts.Height
	}
	// We chunk work by rows.
	workUnit := (t.opts.Height + workers - 1) / workers

	// pasteMutex locks both img and total.
	pasteMutex := sync.Mutex{}
	total := tracestats.Counts{}

	g, gctx := errgroup.WithContext(ctx)
	for rowSrc := 0; rowSrc < t.opts.Height; rowSrc += workUnit {
		rowLim := rowSrc + workUnit
		if rowLim > t.opts.Height {
			rowLim = t.opts.Height
		}

		worker := &chunkWorker{
			tracer: t,
			scene:  cs,
			img:    img.Cut(rowSrc, rowLim, 0, t.opts.Width),
			rowSrc: rowSrc,
			rowLim: rowLim,
		}

		g.Go(func() error {
			tracer := otel.Tracer("row-major/whitted/tracer")
			chunkCtx, span := tracer.Start(gctx, "Tracer.renderChunk")
			defer span.End()
			span.SetAttributes(
				attribute.Int64("row_src", int64(worker.rowSrc)),
				attribute.Int64("row_lim", int64(worker.rowLim)),
			)

			if err := worker.render(chunkCtx); err != nil {
				return err
			}

			tracestats.Record(chunkCtx, sceneName, worker.counts)
			glog.V(1).Infof("Finished rows [%d, %d)", worker.rowSrc, worker.rowLim)

			pasteMutex.Lock()
			defer pasteMutex.Unlock()

			img.Paste(worker.img, worker.rowSrc, 0)
			total.Add(worker.counts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, total, fmt.Errorf("while rendering: %w", err)
	}

	return img, total, nil
}

// GetBackgroundColor is the color seen along a ray that hits nothing.
func (t *Tracer) GetBackgroundColor(direction vec3.T) vec3.T {
	if t.opts.EnvMap != nil {
		return t.opts.EnvMap.GetTexel(direction)
	}
	return t.opts.Background
}

// TraceRay returns the color seen along r (in world space), following at most
// bounces mirror reflections.  rec must be fresh; on return it describes the
// closest hit of r itself, if any.
func (t *Tracer) TraceRay(cs *scene.CrushedScene, r ray.Ray, bounces int, rec *hit.Record) vec3.T {
	return t.traceRay(cs, r, bounces, rec, &tracestats.Counts{})
}

func (t *Tracer) traceRay(cs *scene.CrushedScene, r ray.Ray, bounces int, rec *hit.Record, counts *tracestats.Counts) vec3.T {
	tMin := t.opts.Camera.TMin()

	mtl, ok := cs.Intersect(r, tMin, rec)
	if !ok {
		return t.GetBackgroundColor(r.Direction)
	}

	hitPos := r.At(rec.Time)
	normal := rec.Normal
	surfaceToEye := vec3.Normalize(vec3.Neg(r.Direction))

	direct := vec3.T{}
	for _, l := range cs.Lights {
		if l.Kind == light.KindAmbient {
			direct = vec3.AddVV(direct, vec3.MulVV(l.Color, mtl.Ambient))
			continue
		}

		dirToLight, intensity, distToLight, ok := illuminator.GetIllumination(l, hitPos)
		if !ok {
			continue
		}

		if t.opts.Shadows {
			counts.Shadow++
			if t.occluded(cs, hitPos, dirToLight, distToLight, tMin) {
				continue
			}
		}

		direct = vec3.AddVV(direct, Diffuse(mtl, dirToLight, intensity, normal))
		direct = vec3.AddVV(direct, Specular(mtl, surfaceToEye, dirToLight, intensity, normal))
	}

	indirect := vec3.T{}
	if bounces > 0 && mtl.Reflective(t.opts.SpecularThreshold) {
		reflected := vec3.Reflect(r.Direction, normal)
		origin := vec3.AddVV(hitPos, vec3.MulVS(vec3.Normalize(reflected), t.opts.ReflectionBias))

		counts.Reflection++
		subRec := hit.NewRecord()
		bounced := t.traceRay(cs, ray.New(origin, reflected), bounces-1, &subRec, counts)
		indirect = vec3.MulVV(mtl.Specular, bounced)
	}

	return vec3.Sanitize(vec3.AddVV(direct, indirect))
}

// occluded reports whether something lies between hitPos and a light
// distToLight away in direction dirToLight.
func (t *Tracer) occluded(cs *scene.CrushedScene, hitPos, dirToLight vec3.T, distToLight, tMin float64) bool {
	shadowRay := ray.New(vec3.AddVV(hitPos, vec3.MulVS(dirToLight, t.opts.ShadowBias)), dirToLight)
	shadowRec := hit.NewRecord()
	if _, ok := cs.Intersect(shadowRay, tMin, &shadowRec); !ok {
		return false
	}
	// The shadow ray starts ShadowBias along dirToLight, so the light sits
	// that much closer to its origin.  Occluders beyond the light do not count.
	return shadowRec.Time <= distToLight-t.opts.ShadowBias
}

// Diffuse is the Lambertian term max(0, L.N) * I * kd.
func Diffuse(m *material.Material, dirToLight, intensity, normal vec3.T) vec3.T {
	cos := math.Max(0, vec3.IProd(dirToLight, normal))
	return vec3.MulVS(vec3.MulVV(intensity, m.Diffuse), cos)
}

// Specular is the Phong term max(0, E.R)^shininess * I * ks, where R is the
// direction to the light mirrored about the normal.
func Specular(m *material.Material, surfaceToEye, dirToLight, intensity, normal vec3.T) vec3.T {
	reflected := vec3.Normalize(vec3.SubVV(vec3.MulVS(normal, 2*vec3.IProd(dirToLight, normal)), dirToLight))
	cos := vec3.IProd(surfaceToEye, reflected)
	if cos <= 0 {
		return vec3.T{}
	}
	return vec3.MulVS(vec3.MulVV(intensity, m.Specular), math.Pow(cos, m.Shininess))
}
