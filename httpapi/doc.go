// Package httpapi exposes job submission, progress, search and embedding
// management over HTTP using gin.
//
// Every error response has the shape
//
//	{"error": {"message": "...", "code": "..."}}
package httpapi
