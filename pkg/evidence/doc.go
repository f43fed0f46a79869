// Package evidence records one execution record per assembly run by the
// gateway: which operation ran, how it ended, which failures were caught
// and how long it took.
//
// Records are built by the recorder from an engine result, written
// asynchronously so request handling never waits on storage, and pruned on
// a cron schedule by the retention package. Storage backends live in the
// storage package (in-memory and SQLite); query validation and export
// formats live in query and export.
//
//	store, _ := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: "data/evidence.db"})
//	rec := recorder.New(store, recorder.DefaultConfig(), logger)
//	rec.Record(recorder.NewRecord(execCtx, result, def.ID()))
package evidence
