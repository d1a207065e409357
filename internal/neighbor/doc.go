// Package neighbor holds the edge record and bounded adjacency list used
// during graph construction.
package neighbor
