package document

// Descriptor identifies one input document of a collection.
type Descriptor struct {
	Filename string // Name as listed in the collection metadata
	Path     string // Resolved path on disk
}

// BBox is an axis-aligned box in page points with a top-left origin.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// Span is a run of glyphs sharing one font and size.
type Span struct {
	Text     string
	Font     string
	FontSize float64
	BBox     BBox
	Bold     bool
	Italic   bool
}

// RawLine is a visual line assembled from spans, before cleaning.
type RawLine struct {
	Text       string
	Page       int // 1-based
	BBox       BBox
	FontSize   float64 // Mean span size
	Bold       bool
	Italic     bool
	PageWidth  float64
	PageHeight float64

	// Hint is a label supplied by structure-tagged sources (e.g. "H2" for a
	// markdown heading). Empty for geometry-only sources such as PDF.
	Hint string
}

// Line is a cleaned line with its classifier features.
type Line struct {
	Text     string
	Page     int
	BBox     BBox
	Hint     string
	Features Features
}

// ClassifiedLine pairs a line with the label assigned to it.
type ClassifiedLine struct {
	Line
	Label string
}

// Chunk is a run of body text attributed to the heading that opened it.
type Chunk struct {
	Document     string `json:"document"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title"`
	Text         string `json:"text"`
}
