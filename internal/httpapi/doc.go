// Package httpapi exposes the rename service over HTTP.
//
// Routes:
//
//	GET|POST /ajax/clean?id=N                       legacy result: -1, -2 or ["old","new"]
//	GET|POST /wp-admin/admin-ajax.php?action=clean_existing_media_filenames&id=N
//	GET      /api/attachments/pending               ids whose primary file needs cleaning
//	GET      /api/attachments/{id}                  stored records
//	POST     /api/attachments/{id}/rename           rename summary
//	GET|POST /api/queue                             queue length, or enqueue pending ids
//	GET      /healthz                               health checks
//	GET      /metrics                               Prometheus exposition
//
// Structured endpoints answer with the {"data": ..., "error": ...} envelope.
// The legacy endpoints write the bare value with status 200, encoded the way
// the original WordPress plugin did.
package httpapi
