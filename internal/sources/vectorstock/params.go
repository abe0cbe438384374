package vectorstock

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/curator/pkg/errors"
)

// Categories accepted by the search endpoint.
var Categories = []string{
	"abstract", "animals-wildlife", "artistic-experimental", "backgrounds-textures",
	"beauty-fashion", "borders-frames", "buildings-landmarks", "business-finance",
	"cartoons", "celebration-party", "children-family", "christmas", "cityscapes",
	"communication", "computers", "copy-space", "dj-dance-music", "dancing",
	"design-elements", "digital-media", "document-template", "easter", "education",
	"entertainment", "flags-ribbons", "floral-decorative", "fonts-type", "food-drink",
	"game-assets", "geographical-maps", "graffiti", "graphs-charts", "grunge",
	"halloween", "healthcare-medical", "heraldry", "housing", "icon-emblem-(single)",
	"icons-emblems-(sets)", "industrial", "infographics", "interiors",
	"landscapes-nature", "logos", "military", "miscellaneous", "music",
	"objects-still-life", "packaging", "patterns-(seamless)", "patterns-(single)",
	"people", "photo-real", "religion", "science", "seasons", "shopping-retail",
	"signs-symbols", "silhouettes", "sports-recreation", "t-shirt-graphics",
	"technology", "telecommunications", "transportation", "urban-scenes",
	"user-interface", "vacation-travel", "valentines-day", "vintage", "weddings",
}

// ObjectDetectionModes accepted by the search endpoint.
var ObjectDetectionModes = []string{"show_objects", "hide_objects"}

// Orders accepted by the search endpoint.
var Orders = []string{"trending", "bestmatch", "latest", "isolated", "featured"}

// Params are the search query parameters. Nil pointers and empty strings
// are left out of the request.
type Params struct {
	Keywords string `json:"keywords"`
	Category string `json:"category,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Page     *int   `json:"page,omitempty"`

	Free          *bool `json:"free,omitempty"`
	Expanded      *bool `json:"expanded,omitempty"`
	SVGOnly       *bool `json:"svg_only,omitempty"`
	TemplatesOnly *bool `json:"templates_only,omitempty"`
	PODFirst      *bool `json:"pod_first,omitempty"`
	CMYKOnly      *bool `json:"cmyk_only,omitempty"`
	PNGOnly       *bool `json:"png_only,omitempty"`
	Editorial     *bool `json:"editorial,omitempty"`
	CountOnly     *bool `json:"count_only,omitempty"`

	ObjectDetection string `json:"object_detection,omitempty"`
	ObjectCountMin  *int   `json:"object_count_min,omitempty"`
	ObjectCountMax  *int   `json:"object_count_max,omitempty"`

	Color          string `json:"color,omitempty"`
	ColorThreshold *int   `json:"color_threshold,omitempty"`
	ScorePopular   *int   `json:"score_popular,omitempty"`
	ArtistScore    *int   `json:"artist_score,omitempty"`

	Order string `json:"order,omitempty"`
}

// Validate checks p and returns a normalized copy: colors gain a leading
// "#" and surrounding blanks are trimmed.
func (p Params) Validate() (Params, error) {
	p.Keywords = strings.TrimSpace(p.Keywords)
	if p.Keywords == "" {
		return Params{}, &errors.ValidationError{Field: "keywords", Message: "is required"}
	}

	if p.Category != "" && !slices.Contains(Categories, p.Category) {
		return Params{}, invalid("category", p.Category)
	}
	if p.ObjectDetection != "" && !slices.Contains(ObjectDetectionModes, p.ObjectDetection) {
		return Params{}, invalid("object_detection", p.ObjectDetection)
	}
	if p.Order != "" && !slices.Contains(Orders, p.Order) {
		return Params{}, invalid("order", p.Order)
	}

	ranges := []struct {
		field    string
		value    *int
		min, max int
	}{
		{"object_count_min", p.ObjectCountMin, 1, 200},
		{"object_count_max", p.ObjectCountMax, 1, 200},
		{"color_threshold", p.ColorThreshold, 1, 10},
		{"score_popular", p.ScorePopular, 1, 10},
		{"artist_score", p.ArtistScore, 1, 10},
	}
	for _, r := range ranges {
		if r.value != nil && (*r.value < r.min || *r.value > r.max) {
			return Params{}, &errors.ValidationError{
				Field:   r.field,
				Value:   *r.value,
				Message: fmt.Sprintf("must be between %d and %d", r.min, r.max),
			}
		}
	}

	if p.Color != "" {
		color, err := normalizeColor(p.Color)
		if err != nil {
			return Params{}, err
		}
		p.Color = color
	}
	return p, nil
}

func invalid(field, value string) error {
	return &errors.ValidationError{Field: field, Value: value, Message: fmt.Sprintf("invalid %s: %s", field, value)}
}

func normalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if len(color) != 7 {
		return "", &errors.ValidationError{Field: "color", Value: color, Message: "must be a valid hexadecimal color code"}
	}
	if _, err := strconv.ParseUint(color[1:], 16, 32); err != nil {
		return "", &errors.ValidationError{Field: "color", Value: color, Message: "must be a valid hexadecimal color code"}
	}
	return color, nil
}

// Query renders p as URL query values. Call Validate first.
func (p Params) Query() url.Values {
	q := url.Values{}
	q.Set("keywords", p.Keywords)
	setString(q, "category", p.Category)
	setString(q, "artist", p.Artist)
	setInt(q, "page", p.Page)

	setBool(q, "free", p.Free)
	setBool(q, "expanded", p.Expanded)
	setBool(q, "svg_only", p.SVGOnly)
	setBool(q, "templates_only", p.TemplatesOnly)
	setBool(q, "pod_first", p.PODFirst)
	setBool(q, "cmyk_only", p.CMYKOnly)
	setBool(q, "png_only", p.PNGOnly)
	setBool(q, "editorial", p.Editorial)
	setBool(q, "count_only", p.CountOnly)

	setString(q, "object_detection", p.ObjectDetection)
	setInt(q, "object_count_min", p.ObjectCountMin)
	setInt(q, "object_count_max", p.ObjectCountMax)

	setString(q, "color", p.Color)
	setInt(q, "color_threshold", p.ColorThreshold)
	setInt(q, "score_popular", p.ScorePopular)
	setInt(q, "artist_score", p.ArtistScore)

	setString(q, "order", p.Order)
	return q
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setInt(q url.Values, key string, v *int) {
	if v != nil {
		q.Set(key, strconv.Itoa(*v))
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}
