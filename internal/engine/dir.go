package engine

import (
	"context"
	"os"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/amoffat/supertag/internal/config"
	"github.com/amoffat/supertag/internal/engineerr"
	"github.com/amoffat/supertag/internal/identity"
	"github.com/amoffat/supertag/internal/pathexpr"
	"github.com/amoffat/supertag/internal/store"
)

// Dir represents a tag-path position: the set of tags (and negations)
// navigated so far, optionally narrowed to one TagGroup's membership
// (spec.md §4.3.1 "stat transparency"). The zero value is the collection
// root.
type Dir struct {
	eng      *Engine
	positive []store.Tag
	negative []store.Tag
	group    *store.Group
	attrs    dirAttrs
	// segments is the literal path traversed to reach this Dir (tag and
	// group names, in navigation order), used only to resolve a relative
	// symlink target against this directory's location.
	segments []string
}

var _ fs.Node = (*Dir)(nil)

func (d *Dir) positiveIDs() []int64 { return idsOf(d.positive) }
func (d *Dir) negativeIDs() []int64 { return idsOf(d.negative) }

// combinedIDs is the canonical identity signature for this position:
// positive tag ids plus negated ids for every negative tag, so `/a` and
// `/a/-b` hash to different inodes (spec.md §4.4 inode allocation).
func (d *Dir) combinedIDs() []int64 {
	return append(append([]int64(nil), d.positiveIDs()...), negatedIDs(d.negative)...)
}

func (d *Dir) symbols() config.Symbols { return d.eng.Config.Symbols }

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = d.attrs.inode
	a.Mode = os.ModeDir | os.FileMode(d.attrs.perm)
	a.Uid = d.attrs.uid
	a.Gid = d.attrs.gid
	return nil
}

func (d *Dir) extendPositive(t store.Tag) *Dir {
	pos := append(append([]store.Tag(nil), d.positive...), t)
	ids := append(append([]int64(nil), idsOf(pos)...), negatedIDs(d.negative)...)
	return &Dir{
		eng:      d.eng,
		positive: pos,
		negative: d.negative,
		attrs:    dirAttrs{inode: identity.TagDirInode(ids), uid: t.UID, gid: t.GID, perm: t.Perm},
		segments: append(append([]string(nil), d.segments...), t.Name),
	}
}

func (d *Dir) extendNegative(t store.Tag) *Dir {
	neg := append(append([]store.Tag(nil), d.negative...), t)
	ids := append(append([]int64(nil), d.positiveIDs()...), negatedIDs(neg)...)
	return &Dir{
		eng:      d.eng,
		positive: d.positive,
		negative: neg,
		attrs:    dirAttrs{inode: identity.TagDirInode(ids), uid: t.UID, gid: t.GID, perm: t.Perm},
		segments: append(append([]string(nil), d.segments...), "-"+t.Name),
	}
}

func (d *Dir) enterGroup(g store.Group) *Dir {
	ids := append(append([]int64(nil), d.combinedIDs()...), -(g.ID + groupInodeOffset))
	return &Dir{
		eng:      d.eng,
		positive: d.positive,
		negative: d.negative,
		group:    &g,
		attrs:    dirAttrs{inode: identity.TagDirInode(ids), uid: g.UID, gid: g.GID, perm: g.Perm},
		segments: append(append([]string(nil), d.segments...), g.Name),
	}
}

// groupMembersFiltered returns this Dir's group's member tags. At the root,
// tag enumeration itself is unfiltered (spec.md §4.2), so every member is
// listed; anywhere deeper, members are narrowed to the ones that leave the
// current intersection non-empty, the same way the ungrouped `default`
// branch below narrows with SubTags (spec.md §4.3.1: entering a group
// "lists its member tags filtered by the current intersection").
func (d *Dir) groupMembersFiltered() ([]store.Tag, error) {
	members, err := d.eng.Store.GroupMembers(d.group.ID)
	if err != nil {
		return nil, err
	}
	if len(d.positive) == 0 && len(d.negative) == 0 {
		return members, nil
	}
	valid, err := d.eng.Store.SubTags(d.positiveIDs(), d.negativeIDs())
	if err != nil {
		return nil, err
	}
	validIDs := make(map[int64]bool, len(valid))
	for _, t := range valid {
		validIDs[t.ID] = true
	}
	out := make([]store.Tag, 0, len(members))
	for _, t := range members {
		if validIDs[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// Lookup resolves one path segment at a time, matching spec.md §4.3
// `lookup`: try directory resolution (tag, group, pin, or the filedir
// marker) before falling back to a file in the current intersection.
func (d *Dir) Lookup(ctx context.Context, req *fuse.LookupRequest, resp *fuse.LookupResponse) (fs.Node, error) {
	sym := d.symbols()
	name := identity.StripSync(req.Name, sym)
	expr, err := pathexpr.Parse(name, sym)
	if err != nil {
		return nil, engineerr.Errno(err)
	}

	switch expr.Terminal {
	case pathexpr.Filedir:
		return &FiledirNode{dir: d}, nil
	case pathexpr.FileLeaf:
		f, err := d.eng.Store.FindByDevInoWithin(d.positiveIDs(), expr.Device, expr.Inode)
		if err != nil {
			return nil, engineerr.Errno(err)
		}
		return d.fileNode(f), nil
	}

	if len(expr.Negative) == 1 {
		ref := expr.Negative[0]
		if t, err := d.eng.Store.ResolveTag(ref.Name); err == nil {
			return d.extendNegative(t), nil
		}
	} else if len(expr.Positive) == 1 {
		ref := expr.Positive[0]
		if ref.Kind == pathexpr.GroupRef {
			if g, err := d.eng.Store.ResolveGroup(ref.Name); err == nil {
				return d.enterGroup(g), nil
			}
		} else if t, err := d.eng.Store.ResolveTag(ref.Name); err == nil {
			return d.extendPositive(t), nil
		}
	}

	// Not a navigable tag/group: try resolving name as a file in the
	// current (unextended) intersection.
	files, err := d.eng.Store.FindByName(d.positiveIDs(), name)
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	if len(files) == 1 {
		return d.fileNode(files[0]), nil
	}
	return nil, fuse.ENOENT
}

// ReadDirAll lists sub-tags (after tag-group projection), pin-forced
// entries, and the literal filedir marker (spec.md §4.3 `readdir`).
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	var tags []store.Tag
	var err error
	switch {
	case d.group != nil:
		tags, err = d.groupMembersFiltered()
	case len(d.positive) == 0 && len(d.negative) == 0:
		tags, err = d.eng.Store.GetAllTags()
	default:
		tags, err = d.eng.Store.SubTags(d.positiveIDs(), d.negativeIDs())
	}
	if err != nil {
		return nil, engineerr.Errno(err)
	}

	var groups map[int64][]store.Group
	if d.group == nil && len(tags) > 0 {
		groups, err = d.eng.Store.TagGroupsOver(idsOf(tags))
		if err != nil {
			return nil, engineerr.Errno(err)
		}
	}

	var out []fuse.Dirent
	seenGroup := make(map[int64]bool)
	seenName := make(map[string]bool)
	base := d.combinedIDs()
	for _, t := range tags {
		if gs := groups[t.ID]; len(gs) > 0 {
			for _, g := range gs {
				if seenGroup[g.ID] {
					continue
				}
				seenGroup[g.ID] = true
				seenName[g.Name] = true
				out = append(out, fuse.Dirent{
					Name:  g.Name,
					Type:  fuse.DT_Dir,
					Inode: identity.TagDirInode(append(append([]int64(nil), base...), -(g.ID + groupInodeOffset))),
				})
			}
			continue
		}
		seenName[t.Name] = true
		out = append(out, fuse.Dirent{
			Name:  t.Name,
			Type:  fuse.DT_Dir,
			Inode: identity.TagDirInode(append(append([]int64(nil), base...), t.ID)),
		})
	}

	if d.group == nil {
		pins, err := d.eng.Store.PinsWithPrefix(d.positiveIDs())
		if err != nil {
			return nil, engineerr.Errno(err)
		}
		for _, p := range pins {
			extra := setDiff(d.positiveIDs(), p.TagIDs)
			if len(extra) != 1 {
				continue
			}
			nt, err := d.eng.Store.TagByID(extra[0])
			if err != nil || seenName[nt.Name] {
				continue
			}
			seenName[nt.Name] = true
			out = append(out, fuse.Dirent{
				Name:  nt.Name,
				Type:  fuse.DT_Dir,
				Inode: identity.TagDirInode(append(append([]int64(nil), base...), nt.ID)),
			})
		}
	}

	out = append(out, fuse.Dirent{Name: d.symbols().FiledirStr, Type: fuse.DT_Dir})
	return out, nil
}

// Mkdir creates a Tag (or TagGroup if the name carries the configured
// suffix) and, if this directory already has positive tags (non-root),
// pins the resulting path so it stays listable even with no
// files yet (spec.md §4.3 `mkdir`, §3 Pin lifecycle).
func (d *Dir) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	sym := d.symbols()
	name := identity.StripSync(req.Name, sym)
	expr, err := pathexpr.Parse(name, sym)
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	if expr.Terminal != pathexpr.NoTerminal || len(expr.Positive) != 1 || len(expr.Negative) != 0 {
		return nil, engineerr.Errno(engineerr.New(engineerr.NameInvalid, "not a valid tag name"))
	}
	ref := expr.Positive[0]
	isGroup := ref.Kind == pathexpr.GroupRef

	rules := store.NameRules{Filedir: sym.FiledirStr, FiledirCLI: sym.FiledirCLI, PathSep: "/", GroupSuffix: sym.TagGroupStr}
	if err := store.ValidateTagName(ref.Name, isGroup, rules); err != nil {
		return nil, engineerr.Errno(err)
	}

	mnt := d.eng.Config.Mount
	if isGroup {
		g, err := d.eng.Store.CreateGroup(ref.Name, mnt.UID, mnt.GID, mnt.Permissions)
		if err != nil {
			return nil, engineerr.Errno(err)
		}
		return d.enterGroup(g), nil
	}

	t, err := d.eng.Store.CreateTag(ref.Name, mnt.UID, mnt.GID, mnt.Permissions)
	if err != nil {
		return nil, engineerr.Errno(err)
	}
	if len(d.positive) > 0 {
		if _, err := d.eng.Store.CreatePin(append(append([]int64(nil), d.positiveIDs()...), t.ID)); err != nil {
			return nil, engineerr.Errno(err)
		}
	}
	return d.extendPositive(t), nil
}

// Remove implements unlink (deepest-only untagging, spec.md §4.3.2) and
// refuses rmdir outright (spec.md §4.3.3).
func (d *Dir) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	if req.Dir {
		return fuse.EPERM
	}
	if len(d.positive) == 0 {
		return fuse.ENOENT
	}
	deepest := d.positive[len(d.positive)-1]

	sym := d.symbols()
	name := identity.StripSync(req.Name, sym)
	var f store.File
	var err error
	if expr, perr := pathexpr.Parse(name, sym); perr == nil && expr.Terminal == pathexpr.FileLeaf {
		f, err = d.eng.Store.FindByDevInoWithin(d.positiveIDs(), expr.Device, expr.Inode)
	} else {
		var files []store.File
		files, err = d.eng.Store.FindByName(d.positiveIDs(), name)
		if err == nil {
			if len(files) != 1 {
				return fuse.ENOENT
			}
			f = files[0]
		}
	}
	if err != nil {
		return engineerr.Errno(err)
	}
	return engineerr.Errno(d.eng.Store.UnlinkFileFromTag(f.ID(), deepest.ID))
}

var _ = fs.NodeMkdirer(&Dir{})
var _ = fs.NodeRequestLookuper(&Dir{})
var _ = fs.HandleReadDirAller(&Dir{})
var _ = fs.NodeRemover(&Dir{})
