package document

// FeatureNames is the ordered feature set the heading classifier was
// trained on. Vector returns values in this order.
var FeatureNames = []string{
	"font_size",
	"is_bold",
	"is_italic",
	"y_pos_normalized",
	"x_pos_normalized",
	"line_height",
	"space_after_line",
	"space_before_line",
	"normalized_space_after_line",
	"normalized_space_before_line",
	"is_left_aligned",
	"page",
	"is_title_case",
	"is_upper",
	"ends_colon",
	"starts_number",
	"word_count",
	"has_bullet_prefix",
	"is_conventional_heading",
}

// Features holds the typographic and text-shape measurements of one line.
type Features struct {
	FontSize                  float64 `json:"font_size"`
	IsBold                    bool    `json:"is_bold"`
	IsItalic                  bool    `json:"is_italic"`
	YPosNormalized            float64 `json:"y_pos_normalized"`
	XPosNormalized            float64 `json:"x_pos_normalized"`
	LineHeight                float64 `json:"line_height"`
	SpaceAfterLine            float64 `json:"space_after_line"`
	SpaceBeforeLine           float64 `json:"space_before_line"`
	NormalizedSpaceAfterLine  float64 `json:"normalized_space_after_line"`
	NormalizedSpaceBeforeLine float64 `json:"normalized_space_before_line"`
	IsLeftAligned             bool    `json:"is_left_aligned"`
	Page                      int     `json:"page"`
	IsTitleCase               bool    `json:"is_title_case"`
	IsUpper                   bool    `json:"is_upper"`
	EndsColon                 bool    `json:"ends_colon"`
	StartsNumber              bool    `json:"starts_number"`
	WordCount                 int     `json:"word_count"`
	HasBulletPrefix           bool    `json:"has_bullet_prefix"`
	IsConventionalHeading     bool    `json:"is_conventional_heading"`
}

// Vector flattens f in FeatureNames order; booleans become 0 or 1.
func (f Features) Vector() []float64 {
	return []float64{
		f.FontSize,
		b2f(f.IsBold),
		b2f(f.IsItalic),
		f.YPosNormalized,
		f.XPosNormalized,
		f.LineHeight,
		f.SpaceAfterLine,
		f.SpaceBeforeLine,
		f.NormalizedSpaceAfterLine,
		f.NormalizedSpaceBeforeLine,
		b2f(f.IsLeftAligned),
		float64(f.Page),
		b2f(f.IsTitleCase),
		b2f(f.IsUpper),
		b2f(f.EndsColon),
		b2f(f.StartsNumber),
		float64(f.WordCount),
		b2f(f.HasBulletPrefix),
		b2f(f.IsConventionalHeading),
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
