// Package dataset describes the classification datasets the tool can
// aggregate: which raster to scan, how to classify its pixels, and which
// aggregation strategy to use. The set of dataset variants to process is
// an explicit list, overridable from a manifest file, so adding e.g.
// historical land-cover years is configuration rather than code.
package dataset

import (
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/geomatics-io/landstat/internal/classify"
	"github.com/geomatics-io/landstat/internal/raster"
)

// Mode selects the aggregation strategy for a variant.
type Mode string

const (
	// ModeClip clips the raster to each region polygon and full-scans
	// the clip.
	ModeClip Mode = "clip"
	// ModeMask walks the raster in native blocks against precomputed
	// per-region masks.
	ModeMask Mode = "mask"
)

// Kind selects the classification lookup for a variant.
type Kind string

const (
	KindFAOLandCover Kind = "fao-land-cover"
	KindESALandCover Kind = "esa-land-cover"
	KindKoppenGeiger Kind = "koppen-geiger"
	KindSlope        Kind = "slope"
	KindWorkability  Kind = "workability"
)

// Variant is one concrete dataset to aggregate: a raster, its
// classification, and its output file.
type Variant struct {
	Name       string `yaml:"name"`
	Kind       Kind   `yaml:"kind"`
	Raster     string `yaml:"raster"`
	Output     string `yaml:"output"`
	Mode       Mode   `yaml:"mode"`
	AllTouched bool   `yaml:"all_touched"`
	Fill       uint8  `yaml:"fill"`
}

// FlagGroup maps a variant to the CLI selection flag that runs it.
func (v Variant) FlagGroup() string {
	switch v.Kind {
	case KindFAOLandCover, KindESALandCover:
		return "lc"
	case KindKoppenGeiger:
		return "kg"
	case KindSlope:
		return "sl"
	case KindWorkability:
		return "wk"
	}
	return ""
}

// NewLookup builds the variant's classification lookup. Palette-indexed
// kinds read the color table from the variant's raster.
func (v Variant) NewLookup() (classify.Lookup, error) {
	switch v.Kind {
	case KindFAOLandCover:
		return classify.NewFAOLandCover(), nil
	case KindESALandCover:
		return classify.NewESALandCover(), nil
	case KindSlope:
		return classify.NewSlope(), nil
	case KindWorkability:
		return classify.NewWorkability(), nil
	case KindKoppenGeiger:
		ds, err := raster.Open(v.Raster)
		if err != nil {
			return nil, err
		}
		defer ds.Close()
		palette := ds.ColorTable()
		if palette == nil {
			return nil, eris.Errorf("dataset: %s has no color table for palette lookup", v.Raster)
		}
		return classify.NewKoppenGeiger(palette), nil
	}
	return nil, eris.Errorf("dataset: unknown kind %q", v.Kind)
}

// Validate checks a variant is runnable.
func (v Variant) Validate() error {
	if v.Name == "" {
		return eris.New("dataset: variant missing name")
	}
	if v.Raster == "" {
		return eris.Errorf("dataset: variant %s missing raster path", v.Name)
	}
	if v.Output == "" {
		return eris.Errorf("dataset: variant %s missing output name", v.Name)
	}
	switch v.Mode {
	case ModeClip, ModeMask:
	default:
		return eris.Errorf("dataset: variant %s has invalid mode %q", v.Name, v.Mode)
	}
	switch v.Kind {
	case KindFAOLandCover, KindESALandCover, KindKoppenGeiger, KindSlope, KindWorkability:
	default:
		return eris.Errorf("dataset: variant %s has invalid kind %q", v.Name, v.Kind)
	}
	return nil
}

// Defaults is the built-in variant list, one per dataset family, with
// raster paths relative to dataDir.
func Defaults(dataDir string) []Variant {
	return []Variant{
		{
			Name:       "fao-land-cover",
			Kind:       KindFAOLandCover,
			Raster:     filepath.Join(dataDir, "FAO", "glc_shv10_dominant_landcover.tif"),
			Output:     "FAO-Land-Cover-by-country.csv",
			Mode:       ModeMask,
			AllTouched: true,
			Fill:       255,
		},
		{
			Name:       "koppen-geiger-present",
			Kind:       KindKoppenGeiger,
			Raster:     filepath.Join(dataDir, "Beck_KG_V1", "Beck_KG_V1_present_0p0083.tif"),
			Output:     "Köppen-Geiger-present-by-country.csv",
			Mode:       ModeMask,
			AllTouched: true,
			Fill:       255,
		},
		{
			Name:       "koppen-geiger-future",
			Kind:       KindKoppenGeiger,
			Raster:     filepath.Join(dataDir, "Beck_KG_V1", "Beck_KG_V1_future_0p0083.tif"),
			Output:     "Köppen-Geiger-future-by-country.csv",
			Mode:       ModeMask,
			AllTouched: true,
			Fill:       255,
		},
		{
			Name:       "slope",
			Kind:       KindSlope,
			Raster:     filepath.Join(dataDir, "geomorpho90m", "classified_slope_merit_dem_250m_s0..0cm_2018_v1.0.tif"),
			Output:     "Slope-by-country.csv",
			Mode:       ModeClip,
			AllTouched: true,
			Fill:       255,
		},
		{
			Name:   "workability",
			Kind:   KindWorkability,
			Raster: filepath.Join(dataDir, "FAO", "workability_FAO_sq7_10km.tif"),
			Output: "Workability-by-country.csv",
			Mode:   ModeClip,
			// workability warps with center-containment only
			AllTouched: false,
			Fill:       0,
		},
	}
}
