// Package backup exports full directory snapshots to object storage.
//
// A snapshot is a timestamped JSON object under the snapshots/ prefix,
// holding every player in the directory at export time. The stored set can
// be listed, fetched back and pruned to a retained count.
//
// # HTTP Endpoints
//
//   - GET /snapshots : List stored snapshots, newest first.
//   - POST /snapshots : Export the current directory as a new snapshot.
//   - DELETE /snapshots : Prune snapshots beyond the retained count.
package backup
