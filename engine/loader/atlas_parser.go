package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// ErrNoPages is returned for an atlas that lists no texture page.
var ErrNoPages = errors.New("atlas has no pages")

// ParseAtlas reads a libGDX/Spine texture atlas. Both the legacy layout (xy, size, orig,
// offset, rotate: true) and the newer one (bounds, offsets, rotate: 90) are accepted.
//
// Parameters:
//   - r: the atlas text
//
// Returns:
//   - *skeleton.Atlas: pages and regions with texture coordinates computed
//   - error: error if a value is malformed or no page is declared
func ParseAtlas(r io.Reader) (*skeleton.Atlas, error) {
	atlas := &skeleton.Atlas{}
	var (
		page       *skeleton.AtlasPage
		region     *skeleton.AtlasRegion
		expectPage = true
		origSet    bool
	)

	finishRegion := func() {
		if region != nil && !origSet {
			region.OriginalWidth = float32(region.Width)
			region.OriginalHeight = float32(region.Height)
		}
		region, origSet = nil, false
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			finishRegion()
			expectPage = true
			continue
		}

		key, value, isField := strings.Cut(line, ":")
		if !isField {
			finishRegion()
			if expectPage || page == nil {
				page = &skeleton.AtlasPage{Name: line}
				atlas.Pages = append(atlas.Pages, page)
				expectPage = false
				continue
			}
			region = &skeleton.AtlasRegion{Name: line, Page: page, Index: -1}
			atlas.Regions = append(atlas.Regions, region)
			continue
		}
		expectPage = false

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		var err error
		if region == nil {
			if page == nil {
				return nil, fmt.Errorf("atlas line %d: field %q before any page", lineNo, key)
			}
			err = parsePageField(page, key, value)
		} else {
			var orig bool
			orig, err = parseRegionField(region, key, value)
			origSet = origSet || orig
		}
		if err != nil {
			return nil, fmt.Errorf("atlas line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read atlas: %w", err)
	}
	finishRegion()

	if len(atlas.Pages) == 0 {
		return nil, ErrNoPages
	}
	atlas.ComputeUVs()
	return atlas, nil
}

func parsePageField(p *skeleton.AtlasPage, key, value string) error {
	switch key {
	case "size":
		v, err := parseInts(value, 2)
		if err != nil {
			return fmt.Errorf("page size: %w", err)
		}
		p.Width, p.Height = v[0], v[1]
	case "format":
		p.Format = value
	case "filter":
		p.Filter = value
	case "repeat":
		p.Repeat = value
	case "pma":
		p.PMA = value == "true"
	}
	return nil
}

// parseRegionField applies one region field and reports whether it set the original size.
func parseRegionField(r *skeleton.AtlasRegion, key, value string) (bool, error) {
	switch key {
	case "xy":
		v, err := parseInts(value, 2)
		if err != nil {
			return false, fmt.Errorf("region %q xy: %w", r.Name, err)
		}
		r.X, r.Y = v[0], v[1]
	case "size":
		v, err := parseInts(value, 2)
		if err != nil {
			return false, fmt.Errorf("region %q size: %w", r.Name, err)
		}
		r.Width, r.Height = v[0], v[1]
	case "bounds":
		v, err := parseInts(value, 4)
		if err != nil {
			return false, fmt.Errorf("region %q bounds: %w", r.Name, err)
		}
		r.X, r.Y, r.Width, r.Height = v[0], v[1], v[2], v[3]
	case "orig":
		v, err := parseInts(value, 2)
		if err != nil {
			return false, fmt.Errorf("region %q orig: %w", r.Name, err)
		}
		r.OriginalWidth, r.OriginalHeight = float32(v[0]), float32(v[1])
		return true, nil
	case "offset":
		v, err := parseInts(value, 2)
		if err != nil {
			return false, fmt.Errorf("region %q offset: %w", r.Name, err)
		}
		r.OffsetX, r.OffsetY = float32(v[0]), float32(v[1])
	case "offsets":
		v, err := parseInts(value, 4)
		if err != nil {
			return false, fmt.Errorf("region %q offsets: %w", r.Name, err)
		}
		r.OffsetX, r.OffsetY = float32(v[0]), float32(v[1])
		r.OriginalWidth, r.OriginalHeight = float32(v[2]), float32(v[3])
		return true, nil
	case "rotate":
		switch value {
		case "true":
			r.Degrees = 90
		case "false":
			r.Degrees = 0
		default:
			deg, err := strconv.Atoi(value)
			if err != nil {
				return false, fmt.Errorf("region %q rotate: %w", r.Name, err)
			}
			r.Degrees = deg
		}
	case "index":
		idx, err := strconv.Atoi(value)
		if err != nil {
			return false, fmt.Errorf("region %q index: %w", r.Name, err)
		}
		r.Index = idx
	}
	return false, nil
}

func parseInts(value string, n int) ([]int, error) {
	parts := strings.Split(value, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d values, got %q", n, value)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
