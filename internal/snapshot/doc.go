// Package snapshot publishes rendered HTML snapshots.
//
// A Store persists a Snapshot and returns where it was written. FileStore
// writes to a local directory; S3Store uploads to an S3 bucket.
//
//	store, err := snapshot.NewFileStore("snapshots")
//	if err != nil {
//	    return err
//	}
//	loc, err := store.Put(ctx, snapshot.New("index", html))
package snapshot
