// Package lockfile records the artifacts of a resolution so that later runs
// can detect drift.
//
// A lockfile maps each artifact identity key (groupId:artifactId:extension
// [:classifier]) to the exact coordinate that was selected, the repository
// that served it, its scope, and the SHA-256 digest of the downloaded file.
//
// # Usage
//
// Record a resolution:
//
//	res, err := depgraph.Resolve(ctx, session, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lf, err := lockfile.FromResult(res)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := lf.WriteFile("depgraph.lock"); err != nil {
//	    log.Fatal(err)
//	}
//
// Compare against a previous run:
//
//	old, err := lockfile.ReadFile("depgraph.lock")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if diff := lockfile.Compare(old, lf); !diff.IsEmpty() {
//	    fmt.Print(diff.Summary())
//	}
//
// # Format
//
// Output is indented JSON with sorted keys, so the same resolution always
// produces the same bytes. Files are written atomically.
package lockfile
