package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/engine/loader"
)

// Pack converts a Spine JSON skeleton into the .skel container the loader reads.
//
// Parameters:
//   - args: flags, see -h
//   - stdio: stdout receives the output path
//
// Returns:
//   - error: ErrUsage without -in, or error if the input is not JSON or the output cannot be written
func Pack(args []string, stdio IO) error {
	fs := newFlagSet("pack", stdio)
	in := fs.String("in", "", "skeleton JSON file")
	out := fs.String("out", "", "output file (default: the input with a .skel extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: pack needs -in", ErrUsage)
	}
	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(*in, filepath.Ext(*in)) + ".skel"
	}

	doc, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read skeleton: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if err := loader.EncodeBinarySkeleton(f, doc); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("pack %s: %w", *in, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	fmt.Fprintln(stdio.Stdout, dst)
	return nil
}
