package quality

import (
	"fmt"
	"strings"
)

type Tier string

const (
	Low    Tier = "low"
	Medium Tier = "medium"
	High   Tier = "high"
	Max    Tier = "max"
)

// Default is used when a caller does not pick a tier.
const Default = Medium

// Preset is the bundle of Ghostscript parameters behind a tier.
type Preset struct {
	PDFSettings    string `json:"pdfSettings"`
	Resolution     int    `json:"resolution"`
	DownsampleType string `json:"downsampleType"`
	ImageFilter    string `json:"imageFilter"`
	Description    string `json:"description"`
}

// ordered low -> max; menus and error messages rely on this order
var tiers = []Tier{Low, Medium, High, Max}

var presets = map[Tier]Preset{
	Low: {
		PDFSettings:    "/screen",
		Resolution:     72,
		DownsampleType: "/Bicubic",
		ImageFilter:    "/DCTEncode",
		Description:    "Low quality, smallest file size (72 dpi)",
	},
	Medium: {
		PDFSettings:    "/ebook",
		Resolution:     150,
		DownsampleType: "/Bicubic",
		ImageFilter:    "/DCTEncode",
		Description:    "Medium quality (150 dpi)",
	},
	High: {
		PDFSettings:    "/printer",
		Resolution:     300,
		DownsampleType: "/Bicubic",
		ImageFilter:    "/DCTEncode",
		Description:    "High quality (300 dpi)",
	},
	Max: {
		PDFSettings:    "/prepress",
		Resolution:     300,
		DownsampleType: "/Bicubic",
		ImageFilter:    "/FlateEncode",
		Description:    "Maximum quality, color preserving (300 dpi)",
	},
}

// Tiers returns every tier from lowest to highest quality.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Names is the valid set as plain strings, in tier order.
func Names() []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, string(t))
	}
	return out
}

func (t Tier) Valid() bool {
	_, ok := presets[t]
	return ok
}

func (t Tier) String() string { return string(t) }

// Preset returns a copy of the tier's parameters.
func (t Tier) Preset() (Preset, bool) {
	p, ok := presets[t]
	return p, ok
}

// Parse accepts an exact tier name. Matching is case-sensitive so that the
// HTTP boundary rejects anything outside low|medium|high|max.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid quality setting %q: choose from %s", s, strings.Join(Names(), ", "))
	}
	return t, nil
}

// FromMenu maps console menu input ("1".."4" or a tier name, any case) to a
// tier. Unknown input falls back to Default.
func FromMenu(input string) Tier {
	in := strings.ToLower(strings.TrimSpace(input))
	switch in {
	case "1":
		return Low
	case "2":
		return Medium
	case "3":
		return High
	case "4":
		return Max
	}
	if t := Tier(in); t.Valid() {
		return t
	}
	return Default
}

// Settings maps tier name to PDFSETTINGS token, for the info endpoint.
func Settings() map[string]string {
	out := make(map[string]string, len(presets))
	for t, p := range presets {
		out[string(t)] = p.PDFSettings
	}
	return out
}
