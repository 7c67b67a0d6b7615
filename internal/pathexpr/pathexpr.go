// Package pathexpr implements C1, the path interpreter: parsing a posix
// path inside a collection into the structured tag expression described in
// spec.md §4.1. It is pure — no I/O, no store access.
package pathexpr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engineerr"
)

// RefKind distinguishes a plain Tag from a TagGroup reference.
type RefKind int

const (
	TagRef RefKind = iota
	GroupRef
)

// Ref names either a Tag or a TagGroup, per spec.md §4.1.
type Ref struct {
	Kind RefKind
	Name string
}

// TerminalKind is the trailing-segment classification of a path.
type TerminalKind int

const (
	NoTerminal TerminalKind = iota
	Filedir
	FileLeaf
)

// Expr is the structured tag expression produced by Parse.
type Expr struct {
	Positive []Ref
	Negative []Ref
	Terminal TerminalKind

	// Populated only when Terminal == FileLeaf.
	FileName  string
	HasDevIno bool
	Device    uint64
	Inode     uint64
}

// Canonical returns Positive sorted by name — the canonical ordering
// spec.md §4.1 rule 6 uses to make path order semantically irrelevant.
// Callers that need canonical ordering by tag id (once names are resolved
// against the store) re-sort by id instead; this sorts by name because C1
// has no store access.
func (e Expr) Canonical() []Ref {
	out := append([]Ref(nil), e.Positive...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Contradiction reports whether any tag appears in both Positive and
// Negative, which spec.md §4.1 rule 5 says yields the empty intersection.
func (e Expr) Contradiction() bool {
	neg := make(map[string]bool, len(e.Negative))
	for _, n := range e.Negative {
		neg[n.Name] = true
	}
	for _, p := range e.Positive {
		if neg[p.Name] {
			return true
		}
	}
	return false
}

// Parse interprets path (relative to the collection root, '/'-separated)
// into an Expr, applying the rules of spec.md §4.1 in order.
func Parse(path string, sym config.Symbols) (Expr, error) {
	segments := splitPath(path)

	var e Expr
	seenPositive := make(map[string]bool)
	seenNegative := make(map[string]bool)

	for i, seg := range segments {
		isLast := i == len(segments)-1
		negated := false
		if strings.HasPrefix(seg, "-") {
			negated = true
			seg = seg[1:]
		}

		if seg == sym.FiledirStr || seg == sym.FiledirCLI {
			if !isLast {
				return Expr{}, engineerr.New(engineerr.NotFound, "filedir marker must be the last path segment")
			}
			e.Terminal = Filedir
			continue
		}

		if isLast {
			if devIno, ok, err := parseFileLeaf(seg, sym); err != nil {
				return Expr{}, err
			} else if ok {
				e.Terminal = FileLeaf
				e.FileName = devIno.name
				e.HasDevIno = true
				e.Device = devIno.device
				e.Inode = devIno.inode
				continue
			}
			// A bare final segment with no device/inode suffix and no
			// filedir match may still name a file (the un-fully-qualified
			// case from §4.4), but C1 has no way to know without querying.
			// It is recorded below as an ordinary tag/group ref with no
			// terminal; C3 tries it as a tag first and falls back to a
			// file-name match, matching lookup()'s documented behavior.
		}

		ref := Ref{Name: seg}
		if sym.TagGroupStr != "" && strings.HasSuffix(seg, sym.TagGroupStr) && seg != sym.TagGroupStr {
			ref.Kind = GroupRef
		} else {
			ref.Kind = TagRef
		}

		if negated {
			if !seenNegative[ref.Name] {
				seenNegative[ref.Name] = true
				e.Negative = append(e.Negative, ref)
			}
		} else {
			if !seenPositive[ref.Name] {
				seenPositive[ref.Name] = true
				e.Positive = append(e.Positive, ref)
			}
		}
	}

	return e, nil
}

func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

type devIno struct {
	name   string
	device uint64
	inode  uint64
}

// parseFileLeaf recognizes the fully-qualified suffix
// "<device_char><device><inode_char><inode>" appended to a display name,
// per spec.md §4.1 rule 4 and §4.4.
func parseFileLeaf(seg string, sym config.Symbols) (devIno, bool, error) {
	if sym.DeviceChar == "" {
		return devIno{}, false, nil
	}
	devIdx := strings.LastIndex(seg, sym.DeviceChar)
	if devIdx < 0 {
		return devIno{}, false, nil
	}
	suffix := seg[devIdx+len(sym.DeviceChar):]
	inoIdx := strings.Index(suffix, sym.InodeChar)
	if inoIdx < 0 {
		return devIno{}, false, nil
	}
	deviceStr := suffix[:inoIdx]
	inodeStr := suffix[inoIdx+len(sym.InodeChar):]
	device, err := strconv.ParseUint(deviceStr, 10, 64)
	if err != nil {
		return devIno{}, false, nil
	}
	inode, err := strconv.ParseUint(inodeStr, 10, 64)
	if err != nil {
		return devIno{}, false, nil
	}
	return devIno{
		name:   seg[:devIdx],
		device: device,
		inode:  inode,
	}, true, nil
}

// QualifiedName renders the fully-qualified suffix form of a display name,
// as §4.4 requires for collision resolution.
func QualifiedName(name string, device, inode uint64, sym config.Symbols) string {
	return fmt.Sprintf("%s%s%d%s%d", name, sym.DeviceChar, device, sym.InodeChar, inode)
}
