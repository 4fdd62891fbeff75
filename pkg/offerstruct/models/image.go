package models

// ImageRole classifies a bound image.
type ImageRole string

const (
	// ImageMain is the canonical product picture (one per product).
	ImageMain ImageRole = "main"
	// ImageAdditional is any other picture bound to the product.
	ImageAdditional ImageRole = "additional"
)

// ImageAnchor represents an embedded picture and the cell it is anchored to.
type ImageAnchor struct {
	// Anchor is the top-left cell of the picture's drawing anchor.
	Anchor Pos `json:"anchor"`
	// Data is the raw image payload.
	Data []byte `json:"-"`
	// Extension is the lower-case file extension without the dot (e.g. "png").
	Extension string `json:"extension"`
	// Digest is the hex SHA-256 of Data.
	Digest string `json:"digest"`
	// Size is len(Data) in bytes.
	Size int `json:"size"`
	// Grouped is true when the picture sat inside a drawing group shape.
	Grouped bool `json:"grouped,omitempty"`
	// Seq is the position in anchor order (row, column, discovery order).
	Seq int `json:"seq"`
}

// ProductImage is an image bound to one product.
type ProductImage struct {
	ProductRef string    `json:"product_ref"`
	Block      int       `json:"block"`
	BytesRef   string    `json:"bytes_ref"`
	Role       ImageRole `json:"role"`
	Anchor     Pos       `json:"anchor"`
	CellRef    string    `json:"cell_ref"`
	Filename   string    `json:"filename"`
	Extension  string    `json:"extension"`
	MIME       string    `json:"mime,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Verified   bool      `json:"verified"`
	Data       []byte    `json:"-"`
}
