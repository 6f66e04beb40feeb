// Package notion is a client for the Notion REST API.
//
// It covers:
//   - A tolerant codec for the polymorphic property and block payloads: a payload whose shape
//     does not match its declared kind degrades to a null variant instead of failing the decode
//   - A fetch primitive with client-side throttling and bounded retries on 429 and 5xx
//   - Cursor pagination into flat, ordered result lists
//   - Block tree materialization following has_children depth-first
package notion
