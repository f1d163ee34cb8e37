package loader

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
	"github.com/tidwall/gjson"
)

const (
	binaryMagic   = "AEFRSKEL"
	binaryVersion = uint16(1)
)

// ErrNotContainer is returned for .skel files that are not in the AEFR container format,
// such as native Spine binary exports.
var ErrNotContainer = errors.New("not an AEFR skeleton container")

// containerBackend reads the .skel container written by EncodeBinarySkeleton: the AEFRSKEL
// magic, a big-endian uint16 version and a gzip-compressed Spine JSON document.
type containerBackend struct {
	doc spineJSONBackend
}

var _ skeletonBackend = containerBackend{}

func (containerBackend) Extension() string { return ".skel" }

func (b containerBackend) Decode(data []byte, atlas *skeleton.Atlas) (*skeleton.Definition, error) {
	doc, err := unpackBinarySkeleton(data)
	if err != nil {
		return nil, err
	}
	return b.doc.Decode(doc, atlas)
}

func unpackBinarySkeleton(data []byte) ([]byte, error) {
	header := len(binaryMagic) + 2
	if len(data) < header || string(data[:len(binaryMagic)]) != binaryMagic {
		return nil, ErrNotContainer
	}
	if v := binary.BigEndian.Uint16(data[len(binaryMagic):header]); v != binaryVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrNotContainer, v)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data[header:]))
	if err != nil {
		return nil, fmt.Errorf("open skeleton container: %w", err)
	}
	defer zr.Close()
	doc, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read skeleton container: %w", err)
	}
	return doc, nil
}

// EncodeBinarySkeleton writes a Spine JSON document as a .skel container.
//
// Parameters:
//   - w: the destination
//   - doc: the Spine JSON document
//
// Returns:
//   - error: ErrInvalidJSON, or error if writing fails
func EncodeBinarySkeleton(w io.Writer, doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return ErrInvalidJSON
	}
	if _, err := io.WriteString(w, binaryMagic); err != nil {
		return fmt.Errorf("write skeleton header: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, binaryVersion); err != nil {
		return fmt.Errorf("write skeleton header: %w", err)
	}
	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(doc); err != nil {
		zw.Close()
		return fmt.Errorf("compress skeleton: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress skeleton: %w", err)
	}
	return nil
}
