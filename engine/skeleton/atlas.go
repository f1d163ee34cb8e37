package skeleton

// AtlasPage is one texture page listed in an atlas file.
type AtlasPage struct {
	Name   string
	Width  int
	Height int
	Format string
	Filter string
	Repeat string
	PMA    bool
}

// AtlasRegion is a named rectangle packed on a page.
// Width and Height are the unrotated packed size; Degrees is 0 or 90.
type AtlasRegion struct {
	Name  string
	Page  *AtlasPage
	Index int

	X, Y          int
	Width, Height int

	U, V, U2, V2 float32

	OffsetX, OffsetY float32
	OriginalWidth    float32
	OriginalHeight   float32
	Degrees          int
}

// Rotated reports whether the region is stored rotated 90 degrees on its page.
func (r *AtlasRegion) Rotated() bool {
	return r.Degrees == 90
}

// ComputeUVs fills U, V, U2, V2 from the packed rectangle and page size.
func (r *AtlasRegion) ComputeUVs() {
	if r.Page == nil || r.Page.Width == 0 || r.Page.Height == 0 {
		return
	}
	pw, ph := float32(r.Page.Width), float32(r.Page.Height)
	w, h := r.Width, r.Height
	if r.Rotated() {
		w, h = h, w
	}
	r.U = float32(r.X) / pw
	r.V = float32(r.Y) / ph
	r.U2 = float32(r.X+w) / pw
	r.V2 = float32(r.Y+h) / ph
}

// Atlas is the parsed content of an atlas descriptor.
type Atlas struct {
	Pages   []*AtlasPage
	Regions []*AtlasRegion
}

// ComputeUVs recomputes texture coordinates of every region, for example after a page
// size was filled in from its image.
func (a *Atlas) ComputeUVs() {
	for _, r := range a.Regions {
		r.ComputeUVs()
	}
}

// FindRegion returns the first region with the given name, or nil.
func (a *Atlas) FindRegion(name string) *AtlasRegion {
	if a == nil {
		return nil
	}
	for _, r := range a.Regions {
		if r.Name == name {
			return r
		}
	}
	return nil
}
