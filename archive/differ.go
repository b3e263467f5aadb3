package archive

import (
	"archive/zip"
	"io"
	"sort"
	"sync"

	"github.com/dolphin-foss/files-diff/compressor"
	"github.com/dolphin-foss/files-diff/deltacodec"
	"github.com/dolphin-foss/files-diff/fingerprint"
	"github.com/dolphin-foss/files-diff/internal/bufpool"
	"github.com/dolphin-foss/files-diff/internal/ferr"
	"github.com/dolphin-foss/files-diff/patch"
)

// Differ drives diff_archive. The zero value diffs sequentially;
// Concurrency > 1 fans per-entry Modified work out across a bounded
// worker pool while still reassembling the PatchSet in lexicographic
// order, so output bytes never depend on Concurrency (SPEC_FULL.md §5).
type Differ struct {
	Concurrency int
}

// Diff runs diff_archive with default (sequential) concurrency.
func Diff(
	beforePath, afterPath string,
	delta deltacodec.Algorithm,
	compress compressor.Algorithm,
) (*PatchSet, error) {
	return (&Differ{Concurrency: 1}).Diff(beforePath, afterPath, delta, compress)
}

// Diff reads the two ZIP archives at beforePath/afterPath, classifies
// every path in their lexicographic union, and returns the resulting
// PatchSet.
func (d *Differ) Diff(
	beforePath, afterPath string,
	delta deltacodec.Algorithm,
	compress compressor.Algorithm,
) (*PatchSet, error) {
	beforeZip, err := zip.OpenReader(beforePath)
	if err != nil {
		return nil, ferr.WrapIo(err)
	}
	defer beforeZip.Close()

	afterZip, err := zip.OpenReader(afterPath)
	if err != nil {
		return nil, ferr.WrapIo(err)
	}
	defer afterZip.Close()

	beforeFiles, err := indexZipEntries(beforeZip.File)
	if err != nil {
		return nil, err
	}

	afterFiles, err := indexZipEntries(afterZip.File)
	if err != nil {
		return nil, err
	}

	paths := unionSortedPaths(beforeFiles, afterFiles)

	type job struct {
		index int
		path  string
	}

	type result struct {
		index int
		entry Entry
		err   error
	}

	concurrency := d.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]result, len(paths))

	jobs := make(chan job)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()

		for j := range jobs {
			entry, err := classifyEntry(j.path, beforeFiles, afterFiles, delta, compress)
			results[j.index] = result{index: j.index, entry: entry, err: err}
		}
	}

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker()
	}

	go func() {
		for i, p := range paths {
			jobs <- job{index: i, path: p}
		}
		close(jobs)
	}()

	wg.Wait()

	entries := make([]Entry, 0, len(paths))
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}

		entries = append(entries, r.entry)
	}

	return newPatchSet(entries)
}

func indexZipEntries(files []*zip.File) (map[string]*zip.File, error) {
	index := make(map[string]*zip.File, len(files))

	for _, f := range files {
		if _, exists := index[f.Name]; exists {
			return nil, ferr.Errorf(
				"%w: duplicate entry name %q",
				ferr.ErrMalformedArchive,
				f.Name,
			)
		}

		index[f.Name] = f
	}

	return index, nil
}

func unionSortedPaths(before, after map[string]*zip.File) []string {
	seen := make(map[string]struct{}, len(before)+len(after))
	paths := make([]string, 0, len(before)+len(after))

	for p := range before {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}

	for p := range after {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}

	sort.Strings(paths)

	return paths
}

func classifyEntry(
	path string,
	before, after map[string]*zip.File,
	delta deltacodec.Algorithm,
	compress compressor.Algorithm,
) (Entry, error) {
	beforeFile, inBefore := before[path]
	afterFile, inAfter := after[path]

	switch {
	case inBefore && !inAfter:
		return Entry{Path: path, Operation: Operation{Kind: OperationDeleted}}, nil

	case !inBefore && inAfter:
		data, err := readZipEntry(afterFile)
		if err != nil {
			return Entry{}, err
		}

		return Entry{
			Path:      path,
			Operation: Operation{Kind: OperationAdded, Added: data},
			crc32:     afterFile.CRC32,
			hasCRC32:  true,
		}, nil

	default:
		beforeData, err := readZipEntry(beforeFile)
		if err != nil {
			return Entry{}, err
		}

		afterData, err := readZipEntry(afterFile)
		if err != nil {
			return Entry{}, err
		}

		if fingerprint.Of(beforeData).Equal(fingerprint.Of(afterData)) {
			return Entry{
				Path:      path,
				Operation: Operation{Kind: OperationUnchanged},
				crc32:     afterFile.CRC32,
				hasCRC32:  true,
			}, nil
		}

		p, err := patch.Diff(beforeData, afterData, delta, compress)
		if err != nil {
			return Entry{}, err
		}

		return Entry{
			Path:      path,
			Operation: Operation{Kind: OperationModified, Patch: p},
			crc32:     afterFile.CRC32,
			hasCRC32:  true,
		}, nil
	}
}

// allowedZipMethods are the compression methods this differ can read.
// archive/zip decodes zip.Store and zip.Deflate without any additional
// decompressor registration; everything else is UnsupportedEntry.
var allowedZipMethods = map[uint16]bool{
	zip.Store:   true,
	zip.Deflate: true,
}

func readZipEntry(f *zip.File) ([]byte, error) {
	if !allowedZipMethods[f.Method] {
		return nil, ferr.Errorf(
			"%w: entry %q uses unsupported compression method %d",
			ferr.ErrUnsupportedEntry,
			f.Name,
			f.Method,
		)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, ferr.Errorf("%w: opening entry %q: %v", ferr.ErrMalformedArchive, f.Name, err)
	}
	defer rc.Close()

	buf, repool := bufpool.GetBuffer()
	defer repool()

	if _, err := io.Copy(buf, rc); err != nil {
		return nil, ferr.WrapIo(err)
	}

	data := make([]byte, buf.Len())
	copy(data, buf.Bytes())

	return data, nil
}
