// Package archive provides a uniform read-only view over the compressed
// archives source distributions ship in.
//
// # Overview
//
// Two container formats are supported, each behind the [Reader] interface:
//
//   - Zip archives (.zip, .egg)
//   - Tar archives, plain or compressed (gzip and bzip2 by name; other
//     compressions mholt/archives recognizes are read as well)
//     (.tar, .tar.gz, .tgz, .tar.bz2, .tbz2, .tbz, .gz, .bz2)
//
// [Open] picks the implementation from the file name alone. The tar reader
// detects the compression of the stream itself, so a plain tar saved with a
// .tgz suffix still opens.
//
// # Directories
//
// Directory members are always reported with a trailing "/" and can be
// extracted like any other member. Zip archives frequently omit explicit
// directory entries, so the zip reader synthesizes the missing parents and
// then returns all names sorted. Tar archives are reported in member order
// without synthesized entries.
//
// # Usage
//
//	r, err := archive.Open("requests-2.31.0.tar.gz")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	names, err := r.Names()
//	lines, err := r.Lines("requests-2.31.0/PKG-INFO")
//	path, err := r.Extract("requests-2.31.0/setup.py", tmpDir)
//
// # Errors
//
// Every operation on a closed reader fails with [ErrClosed]. Missing members
// fail with [ErrMemberNotFound]. Member names that would escape the
// destination directory fail with [ErrUnsafeMemberName] and are never
// written. Unknown file suffixes fail with [ErrUnsupported].
package archive
