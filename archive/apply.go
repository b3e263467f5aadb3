package archive

import (
	"archive/zip"
	"os"
	"time"

	"github.com/dolphin-foss/files-diff/internal/ferr"
)

// Apply rebuilds an output ZIP archive at outPath from the before
// archive at beforePath and the operations recorded in ps
// (apply_archive, SPEC_FULL.md §4.6). Entries are written to outPath
// in patch-set order.
//
// Apply is not transactional: a failure partway through may leave a
// partially written file at outPath. Callers that need atomicity
// should write to a temporary path and rename on success.
func (ps *PatchSet) Apply(beforePath, outPath string) error {
	beforeZip, err := zip.OpenReader(beforePath)
	if err != nil {
		return ferr.WrapIo(err)
	}
	defer beforeZip.Close()

	beforeFiles, err := indexZipEntries(beforeZip.File)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return ferr.WrapIo(err)
	}
	defer out.Close()

	w := zip.NewWriter(out)

	seen := make(map[string]struct{}, len(ps.Entries))

	for _, entry := range ps.Entries {
		seen[entry.Path] = struct{}{}

		switch entry.Operation.Kind {
		case OperationDeleted:
			if _, ok := beforeFiles[entry.Path]; !ok {
				return ferr.Errorf(
					"%w: deleted entry %q has no corresponding before entry",
					ferr.ErrMismatchedBase,
					entry.Path,
				)
			}

		case OperationUnchanged:
			bf, ok := beforeFiles[entry.Path]
			if !ok {
				return ferr.Errorf(
					"%w: unchanged entry %q has no corresponding before entry",
					ferr.ErrMismatchedBase,
					entry.Path,
				)
			}

			data, err := readZipEntry(bf)
			if err != nil {
				return err
			}

			if err := writeEntry(w, entry.Path, data, bf.Modified); err != nil {
				return err
			}

		case OperationAdded:
			if err := writeEntry(w, entry.Path, entry.Operation.Added, time.Now()); err != nil {
				return err
			}

		case OperationModified:
			bf, ok := beforeFiles[entry.Path]
			if !ok {
				return ferr.Errorf(
					"%w: modified entry %q has no corresponding before entry",
					ferr.ErrMismatchedBase,
					entry.Path,
				)
			}

			beforeData, err := readZipEntry(bf)
			if err != nil {
				return err
			}

			afterData, err := entry.Operation.Patch.Apply(beforeData)
			if err != nil {
				return err
			}

			if err := writeEntry(w, entry.Path, afterData, time.Now()); err != nil {
				return err
			}

		default:
			return ferr.Errorf(
				"%w: unsupported operation kind %d for path %q",
				ferr.ErrUnsupportedAlgorithm,
				entry.Operation.Kind,
				entry.Path,
			)
		}
	}

	for path := range beforeFiles {
		if _, ok := seen[path]; !ok {
			return ferr.Errorf(
				"%w: before entry %q not accounted for in patch set",
				ferr.ErrIncompletePatchSet,
				path,
			)
		}
	}

	if err := w.Close(); err != nil {
		return ferr.WrapIo(err)
	}

	return nil
}

func writeEntry(w *zip.Writer, path string, data []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     path,
		Method:   zip.Deflate,
		Modified: modified,
	}

	entryWriter, err := w.CreateHeader(header)
	if err != nil {
		return ferr.WrapIo(err)
	}

	if _, err := entryWriter.Write(data); err != nil {
		return ferr.WrapIo(err)
	}

	return nil
}
