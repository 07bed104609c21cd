package filters

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"voxelcraft.ai/redstone/internal/catalogs"
	"voxelcraft.ai/redstone/internal/circuit/busroute"
	"voxelcraft.ai/redstone/internal/circuit/connectivity"
	"voxelcraft.ai/redstone/internal/circuit/voxel"
	"voxelcraft.ai/redstone/internal/persistence/indexdb"
	"voxelcraft.ai/redstone/internal/persistence/runlog"
	"voxelcraft.ai/redstone/internal/terrain/store"
	"voxelcraft.ai/redstone/internal/tuning"
)

type Name string

const (
	Analyze Name = "ANALYZE"
	Route   Name = "ROUTE"
)

var (
	ErrRegionTooLarge = errors.New("region too large")
	ErrUnknownFilter  = errors.New("unknown filter")
)

func ParseName(s string) (Name, error) {
	switch n := Name(strings.ToUpper(strings.TrimSpace(s))); n {
	case Analyze, Route:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

type RunRecorder interface {
	RecordRun(indexdb.Run)
}

type RunWriter interface {
	WriteRun(runlog.Entry) error
}

type ChangeWriter interface {
	WriteChange(runlog.ChangeEntry) error
}

// Runner applies filters with materials resolved once from the catalog.
type Runner struct {
	transparent voxel.MaterialSet
	skipBeneath voxel.MaterialSet
	marker      uint16
	maxVolume   int
	names       catalogs.MaterialCatalog

	Log     *log.Logger
	Index   RunRecorder
	Runs    RunWriter
	Changes ChangeWriter
}

func New(cats *catalogs.Catalogs, tune tuning.Tuning) (*Runner, error) {
	tr, err := cats.Materials.Set(tune.Transparent)
	if err != nil {
		return nil, fmt.Errorf("tuning transparent: %w", err)
	}
	skip, err := cats.Materials.Set(tune.SkipBeneath)
	if err != nil {
		return nil, fmt.Errorf("tuning skip_beneath: %w", err)
	}
	marker, ok := cats.Materials.Defs[strings.ToUpper(tune.Marker)]
	if !ok {
		return nil, fmt.Errorf("tuning marker: %w: %q", catalogs.ErrUnknownMaterial, tune.Marker)
	}
	return &Runner{
		transparent: tr,
		skipBeneath: skip,
		marker:      marker.Material,
		maxVolume:   tune.MaxRegionVolume,
		names:       cats.Materials,
	}, nil
}

type Result struct {
	Filter Name
	Region voxel.Box

	Connectivity *connectivity.Result
	Buses        *busroute.Report

	// Changes lists every rewritten voxel, including markers written just
	// below the region.
	Changes []store.Change
}

// CheckRegion rejects regions above the configured volume limit.
func (r *Runner) CheckRegion(region voxel.Box) error {
	if vol := region.Volume(); r.maxVolume > 0 && vol > r.maxVolume {
		return fmt.Errorf("%w: %d voxels, limit %d", ErrRegionTooLarge, vol, r.maxVolume)
	}
	return nil
}

func (r *Runner) MaxVolume() int { return r.maxVolume }

// Run applies filter name to region of s.
func (r *Runner) Run(name Name, s voxel.Store, region voxel.Box) (*Result, error) {
	res := &Result{Filter: name, Region: region}
	if err := r.CheckRegion(region); err != nil {
		r.record(res, err)
		return nil, err
	}

	span := region.Expand(1)
	before := store.Capture(s, span)

	var err error
	switch name {
	case Analyze:
		cr := connectivity.AnalyzeConnectivity(s, region, connectivity.Options{
			Transparent: r.transparent,
			SkipBeneath: r.skipBeneath,
			Paint:       connectivity.MarkerPainter(r.marker),
			Log:         r.Log,
		})
		res.Connectivity = &cr
	case Route:
		res.Buses, err = busroute.RouteBuses(s, region, busroute.Options{Log: r.Log})
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	if err != nil {
		r.record(res, err)
		return nil, err
	}

	res.Changes = store.Diff(s, span, before)
	r.record(res, nil)
	return res, nil
}

func (r *Runner) record(res *Result, runErr error) {
	now := time.Now().UTC()
	e := runlog.Entry{
		Time:    now,
		Filter:  string(res.Filter),
		Min:     res.Region.Min.ToArray(),
		Max:     res.Region.Max.ToArray(),
		Changed: len(res.Changes),
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	if c := res.Connectivity; c != nil {
		e.Networks = c.Networks.Count
		e.Painted = c.Painted
		e.Skipped = c.Skipped
	}
	routed, partial := 0, 0
	if b := res.Buses; b != nil {
		e.Unpaired = b.Unpaired
		for _, c := range b.Colors {
			ce := runlog.ColorEntry{
				Color:     c.Color,
				Name:      voxel.ColorName(c.Color),
				Guides:    c.Guides,
				Reached:   c.Reached,
				Placed:    c.Placed,
				Repeaters: c.Repeaters,
				Complete:  c.Complete,
			}
			if c.Complete {
				routed++
			} else {
				partial++
				dead := c.DeadEnd.ToArray()
				ce.DeadEnd = &dead
			}
			e.Colors = append(e.Colors, ce)
		}
	}

	if r.Runs != nil {
		if err := r.Runs.WriteRun(e); err != nil && r.Log != nil {
			r.Log.Printf("filters: run log: %v", err)
		}
	}
	if r.Changes != nil {
		for _, ch := range res.Changes {
			ce := runlog.ChangeEntry{
				Time:   now,
				Filter: string(res.Filter),
				Pos:    ch.Pos.ToArray(),
				From:   ch.From.Packed(),
				To:     ch.To.Packed(),
			}
			if err := r.Changes.WriteChange(ce); err != nil {
				if r.Log != nil {
					r.Log.Printf("filters: change log: %v", err)
				}
				break
			}
		}
	}
	if r.Index != nil {
		r.Index.RecordRun(indexdb.Run{
			Filter:        e.Filter,
			Min:           e.Min,
			Max:           e.Max,
			Networks:      e.Networks,
			ColorsRouted:  routed,
			ColorsPartial: partial,
			Changed:       e.Changed,
			Error:         e.Error,
			RecordedAt:    now,
		})
	}
}

// Describe renders a change for humans, e.g. "[3 1 0] AIR:0 -> REDSTONE_WIRE:0".
func (r *Runner) Describe(c store.Change) string {
	return fmt.Sprintf("%v %s:%d -> %s:%d", c.Pos.ToArray(),
		r.names.Name(c.From.Material), c.From.Data, r.names.Name(c.To.Material), c.To.Data)
}

// Summary is a one-line account of res.
func Summary(res *Result) string {
	switch {
	case res.Connectivity != nil:
		c := res.Connectivity
		return fmt.Sprintf("%s %s: networks=%d painted=%d skipped=%d changed=%d",
			res.Filter, res.Region, c.Networks.Count, c.Painted, c.Skipped, len(res.Changes))
	case res.Buses != nil:
		b := res.Buses
		return fmt.Sprintf("%s %s: colors=%d partial=%v unpaired=%v changed=%d",
			res.Filter, res.Region, len(b.Colors), b.Partial(), b.Unpaired, len(res.Changes))
	}
	return fmt.Sprintf("%s %s: changed=%d", res.Filter, res.Region, len(res.Changes))
}
