// Package download writes received bodies to disk atomically and runs
// async work on a bounded queue.
//
// # Saving Files
//
// [Save] streams a body to a temporary file alongside the destination
// path, then renames it over the destination on success. [Replace] does
// the same for an in-memory body:
//
//	err := download.Replace(ctx, listPath, body, logger,
//		download.WithBackup(),
//	)
//
// With [WithBackup] the previous file is kept as path+".bak". With
// [WithChecksum] the data is hashed while it is written and the file is
// only put in place when the sum matches.
//
// # Queue
//
// [Queue] runs [WorkFunc]s concurrently up to a limit and collects their
// errors:
//
//	q := download.NewQueue(4)
//	r := q.Start(ctx, work)
//	err := r.Err()      // this work only
//	err = q.Wait()      // everything started so far
package download
