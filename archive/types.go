// Package archive implements the structural differ over ZIP entries
// (C6): classifying each path as modified/added/deleted/unchanged,
// delegating to package patch for modified entries, and serializing the
// result as a patch set. Apply is the mirror: it rebuilds a byte-faithful
// output archive from a before archive and a patch set.
package archive

import (
	"sort"

	"github.com/dolphin-foss/files-diff/internal/ferr"
	"github.com/dolphin-foss/files-diff/patch"
)

// OperationKind tags how an archive entry's path relates to the before
// and after archives.
type OperationKind byte

const (
	// OperationModified: the path exists in both archives with
	// differing content; Patch carries the delta.
	OperationModified OperationKind = 0
	// OperationAdded: the path exists only in after; Added carries the
	// literal new content.
	OperationAdded OperationKind = 1
	// OperationDeleted: the path exists only in before.
	OperationDeleted OperationKind = 2
	// OperationUnchanged: the path exists in both with identical
	// content (by fingerprint).
	OperationUnchanged OperationKind = 3
)

func (k OperationKind) String() string {
	switch k {
	case OperationModified:
		return "Modified"
	case OperationAdded:
		return "Added"
	case OperationDeleted:
		return "Deleted"
	case OperationUnchanged:
		return "Unchanged"
	default:
		return "Unknown"
	}
}

// Operation is the per-entry tagged choice described in SPEC_FULL.md
// §3. Exactly one of Patch / Added is populated, selected by Kind.
type Operation struct {
	Kind  OperationKind
	Patch *patch.Patch // set iff Kind == OperationModified
	Added []byte       // set iff Kind == OperationAdded
}

// Entry pairs a ZIP entry path with its Operation. crc32 is populated
// only when produced fresh by Diff (see SPEC_FULL.md §6.4); it is not
// part of the wire format and is zero on a PatchSet obtained via
// Unmarshal.
type Entry struct {
	Path      string
	Operation Operation

	crc32    uint32
	hasCRC32 bool
}

// PatchSet is an ordered mapping from entry path to Operation. Entries
// is always kept sorted lexicographically by Path with unique paths;
// this order is part of the wire format (PS1 in SPEC_FULL.md §3).
type PatchSet struct {
	Entries []Entry
}

// newPatchSet builds a PatchSet from entries, sorting them by path and
// verifying path uniqueness (PS1).
func newPatchSet(entries []Entry) (*PatchSet, error) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	for i := 1; i < len(entries); i++ {
		if entries[i-1].Path == entries[i].Path {
			return nil, ferr.Errorf(
				"%w: duplicate path %q in patch set",
				ferr.ErrMalformedArchive,
				entries[i].Path,
			)
		}
	}

	return &PatchSet{Entries: entries}, nil
}

// Len returns the number of entries in the patch set.
func (ps *PatchSet) Len() int { return len(ps.Entries) }

// find returns the index of path in the sorted Entries slice, if present.
func (ps *PatchSet) find(path string) (int, bool) {
	i := sort.Search(len(ps.Entries), func(i int) bool {
		return ps.Entries[i].Path >= path
	})

	if i < len(ps.Entries) && ps.Entries[i].Path == path {
		return i, true
	}

	return 0, false
}

// EntryCRC32 returns the ZIP central-directory CRC-32 recorded for path
// at Diff time, for Modified/Added/Unchanged entries. It returns
// (0, false) for Deleted entries and for any PatchSet obtained via
// Unmarshal, since the CRC is not part of the serialized format.
func (ps *PatchSet) EntryCRC32(path string) (uint32, bool) {
	i, ok := ps.find(path)
	if !ok || !ps.Entries[i].hasCRC32 {
		return 0, false
	}

	return ps.Entries[i].crc32, true
}
