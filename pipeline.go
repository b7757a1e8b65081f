// seehuhn.de/go/terrain - road-aware heightmap deformation
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package terrain deforms a georeferenced heightmap so that roads
// become locally level across their width, follow a smoothed
// longitudinal profile, blend into the surrounding terrain with
// shaped embankments, and respect priority where roads overlap.
//
// The entry point is Pipeline.Run. It consumes an original heightmap
// and a list of road materials (binary raster masks or polylines in
// pixel coordinates) and produces a modified heightmap plus a
// material index plane, with diagnostics in Stats.
//
// All grids are square, bottom-origin, and indexed [y][x]; world
// coordinates are pixel coordinates scaled by the meters-per-pixel
// factor.
package terrain

import (
	"log/slog"
	"time"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/deform"
	"seehuhn.de/go/terrain/edt"
	"seehuhn.de/go/terrain/morph"
	"seehuhn.de/go/terrain/road"
)

// Config is the pipeline-wide configuration.
type Config struct {
	// MPP is the horizontal scale in meters per pixel. Must be
	// positive.
	MPP float64

	// MaxHeight is the exclusive upper bound for output heights,
	// used by the pre-save validator.
	MaxHeight float64

	// DefaultMaterial is the name of material index 0, the fallback
	// ground material.
	DefaultMaterial string

	// GlobalJunction overrides per-material junction radii for
	// materials with UseGlobalSettings set.
	GlobalJunction road.JunctionSettings

	// UseDistanceField enables the distance field. The elevation map
	// is the same with or without it, since the field only rejects
	// pixels beyond every road's influence early; the blender also
	// uses it as the distance to the nearest road, so blended heights
	// can differ when it is disabled.
	UseDistanceField bool

	// Logger receives stage-level diagnostics. Nil uses
	// slog.Default().
	Logger *slog.Logger
}

// RoadMaterial describes one road layer fed into the pipeline.
type RoadMaterial struct {
	Name     string
	Priority int

	// SourceTag marks vector-derived geometry (e.g. an OSM category).
	// It is ignored for raster masks, which are always tagged as
	// raster-derived.
	SourceTag string

	Params road.Params

	// Exactly one of Mask and Polylines must be set. Polylines are in
	// pixel coordinates.
	Mask      *Mask
	Polylines [][]vec.Vec2
}

// Result is the output of one pipeline run.
type Result struct {
	// Heights is the deformed heightmap, same size and orientation as
	// the input.
	Heights *Heightmap

	// MaterialIndices assigns every pixel the index of its material
	// in MaterialNames; 0 is the default ground material.
	MaterialIndices []uint8

	// MaterialNames is the stable material-name list; index 0 is the
	// fallback.
	MaterialNames []string

	// Holes is the per-cell hole flag consumed by terrain-file
	// writers; the pipeline never punches holes.
	Holes []bool
}

// Pipeline runs the road-aware deformation stages in order. A
// Pipeline is cheap to create and must not be shared between
// concurrent runs.
type Pipeline struct {
	cfg Config
	log *slog.Logger
}

// NewPipeline validates the configuration and returns a pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.MPP <= 0 {
		return nil, invalidInput("meters per pixel %g must be positive", cfg.MPP)
	}
	if cfg.MaxHeight <= 0 {
		return nil, invalidInput("max height %g must be positive", cfg.MaxHeight)
	}
	if cfg.DefaultMaterial == "" {
		cfg.DefaultMaterial = "groundmodel_base"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, log: log}, nil
}

// terrainView adapts a heightmap to the world-coordinate sampling
// interface of the elevation calculator.
type terrainView struct {
	h   *Heightmap
	mpp float64
}

func (t terrainView) SampleWorld(x, y float64) float64 {
	return t.h.SampleBilinear(x/t.mpp, y/t.mpp)
}

// Run executes the full pipeline on the original heightmap h0. The
// input is not modified. Invalid inputs fail before any stage runs;
// every later anomaly is recovered and counted in Stats.
func (p *Pipeline) Run(h0 *Heightmap, materials []RoadMaterial) (*Result, *Stats, error) {
	stats := &Stats{
		StageDurations: make(map[string]time.Duration),
	}

	if h0 == nil || !ValidSize(h0.Size) {
		return nil, nil, invalidInput("heightmap size is not one of %v", ValidSizes)
	}
	size := h0.Size

	mats, names, nameIndex, err := p.checkMaterials(size, materials)
	if err != nil {
		return nil, nil, err
	}

	// stage: network extraction
	t0 := time.Now()
	net, err := road.BuildNetwork(size, p.cfg.MPP, mats)
	if err != nil {
		return nil, nil, invalidInput("%v", err)
	}
	stats.StageDurations["network"] = time.Since(t0)

	if net.Empty() {
		p.log.Info("road network is empty; returning unmodified terrain")
		stats.EmptyNetwork = true
		return p.emptyResult(h0, names), stats, nil
	}
	stats.Splines = len(net.Splines)
	stats.CrossSections = len(net.Sections)
	p.log.Info("road network built",
		"splines", stats.Splines, "crossSections", stats.CrossSections)
	p.warnRiskyParams(net)

	// stage: distance field
	var distField []float64
	if p.cfg.UseDistanceField {
		t0 = time.Now()
		distField = p.buildDistanceField(size, mats)
		stats.StageDurations["distanceField"] = time.Since(t0)
	}

	// stage: elevation profiles
	t0 = time.Now()
	est := road.CalculateElevations(net, terrainView{h0, p.cfg.MPP})
	stats.SlopeAdjustments = est.SlopeAdjustments
	stats.StageDurations["elevation"] = time.Since(t0)

	// stage: junction harmonization
	t0 = time.Now()
	junctions := road.DetectJunctions(net, &p.cfg.GlobalJunction)
	stats.Junctions = len(junctions)
	stats.HarmonizedSections = road.HarmonizeJunctions(net, junctions)
	stats.StageDurations["junctions"] = time.Since(t0)
	p.log.Info("junctions harmonized",
		"junctions", stats.Junctions, "sections", stats.HarmonizedSections)

	// stage: protection mask and ownership
	t0 = time.Now()
	prot := deform.BuildProtection(net)
	stats.PriorityOverwrites = prot.Overwrites
	stats.SkippedSections = prot.SkippedSections
	stats.StageDurations["protection"] = time.Since(t0)

	// stage: spatial indices (sequential, immutable afterwards)
	t0 = time.Now()
	idx := road.NewIndex(net)
	sidx := road.NewSplineIndex(net)
	pidx := road.NewProtectionIndex(net)
	stats.StageDurations["indices"] = time.Since(t0)

	// stage: elevation map
	t0 = time.Now()
	em := deform.BuildElevationMap(net, prot, idx, sidx, distField)
	stats.EarlyRejects = em.EarlyRejects
	stats.AnomalySkips = em.AnomalySkips
	stats.StageDurations["elevationMap"] = time.Since(t0)

	// stage: protected blending
	t0 = time.Now()
	h1data, bst := deform.Blend(net, em, sidx, pidx, distField, h0.Data)
	stats.CorePixels = bst.CorePixels
	stats.BlendPixels = bst.BlendPixels
	stats.ProtectedPixels = bst.ProtectedPixels
	stats.AnomalySkips += bst.AnomalySkips
	stats.StageDurations["blend"] = time.Since(t0)

	h1 := &Heightmap{Size: size, Data: h1data}

	// stage: post-processing smoothing
	t0 = time.Now()
	stats.SmoothedPixels = deform.Smooth(net, h1.Data)
	stats.StageDurations["smoothing"] = time.Since(t0)

	// stage: material painting
	t0 = time.Now()
	splineMat := make([]uint8, len(net.Splines))
	for i := range net.Splines {
		splineMat[i] = nameIndex[net.Splines[i].Material]
	}
	matPlane := deform.PaintMaterials(prot, splineMat)
	stats.StageDurations["materials"] = time.Since(t0)

	// stage: pre-save validation
	t0 = time.Now()
	stats.RepairedCells = ValidateHeights(h1, p.cfg.MaxHeight)
	stats.StageDurations["validation"] = time.Since(t0)
	if stats.RepairedCells > 0 {
		p.log.Info("pre-save validator repaired cells", "count", stats.RepairedCells)
	}

	return &Result{
		Heights:         h1,
		MaterialIndices: matPlane,
		MaterialNames:   names,
		Holes:           make([]bool, size*size),
	}, stats, nil
}

// checkMaterials validates all material inputs and converts them to
// the road package's form. It also assembles the stable material-name
// list (index 0 is the default) and the name-to-index mapping used
// for painting.
func (p *Pipeline) checkMaterials(size int, materials []RoadMaterial) ([]road.Material, []string, map[string]uint8, error) {
	if len(materials) == 0 {
		return nil, nil, nil, invalidInput("no road materials given")
	}

	names := []string{p.cfg.DefaultMaterial}
	nameIndex := map[string]uint8{p.cfg.DefaultMaterial: 0}

	mats := make([]road.Material, 0, len(materials))
	for i := range materials {
		m := &materials[i]
		if m.Name == "" {
			return nil, nil, nil, invalidInput("material %d has no name", i)
		}
		if (m.Mask == nil) == (m.Polylines == nil) {
			return nil, nil, nil, invalidInput("material %q must have exactly one of mask and polylines", m.Name)
		}
		if err := m.Params.Validate(); err != nil {
			return nil, nil, nil, invalidInput("material %q: %v", m.Name, err)
		}

		rm := road.Material{
			Name:      m.Name,
			Priority:  m.Priority,
			SourceTag: m.SourceTag,
			Params:    m.Params,
			Polylines: m.Polylines,
		}
		if m.Mask != nil {
			if m.Mask.Size != size {
				return nil, nil, nil, invalidInput("material %q: mask size %d does not match terrain size %d",
					m.Name, m.Mask.Size, size)
			}
			rm.Mask = m.Mask.Data
		}
		mats = append(mats, rm)

		if _, ok := nameIndex[m.Name]; !ok {
			if len(names) > 255 {
				return nil, nil, nil, invalidInput("more than 255 distinct material names")
			}
			nameIndex[m.Name] = uint8(len(names))
			names = append(names, m.Name)
		}
	}
	return mats, names, nameIndex, nil
}

// buildDistanceField rasterizes all road geometry into one foreground
// mask and computes its Euclidean distance transform in meters.
func (p *Pipeline) buildDistanceField(size int, mats []road.Material) []float64 {
	fg := make([]byte, size*size)
	for i := range mats {
		m := &mats[i]
		if m.Mask != nil {
			for j, v := range m.Mask {
				if v > 127 {
					fg[j] = 255
				}
			}
			continue
		}
		for _, pl := range m.Polylines {
			for k := 1; k < len(pl); k++ {
				morph.DrawLine(fg, size, size,
					int(pl[k-1].X), int(pl[k-1].Y),
					int(pl[k].X), int(pl[k].Y))
			}
		}
	}

	d, err := edt.Transform(fg, size, size, p.cfg.MPP)
	if err != nil {
		// size is validated, so this cannot happen; fall back to no
		// early rejection
		p.log.Warn("distance transform failed", "err", err)
		return nil
	}
	return d
}

// emptyResult returns the no-op result for an empty network.
func (p *Pipeline) emptyResult(h0 *Heightmap, names []string) *Result {
	return &Result{
		Heights:         h0.Clone(),
		MaterialIndices: make([]uint8, h0.Size*h0.Size),
		MaterialNames:   names,
		Holes:           make([]bool, h0.Size*h0.Size),
	}
}

// warnRiskyParams logs parameter pairings known to interact badly.
func (p *Pipeline) warnRiskyParams(net *road.Network) {
	for i := range net.Splines {
		s := &net.Splines[i]
		if s.Params.GlobalLevelingStrength > 0.5 && s.Params.TerrainAffectedRange < 15 {
			p.log.Warn("strong global leveling with a narrow blend range can cause steps",
				"material", s.Material,
				"leveling", s.Params.GlobalLevelingStrength,
				"blendRange", s.Params.TerrainAffectedRange)
		}
	}
}
