// Package feed implements the viewer side of the playlist synchronisation
// protocol: a poller that asks the playlist backend for entries after the
// highest index it has merged, and the merge step that hands each new entry
// to a display exactly once.
//
// The feed is append-only, so the only state kept is a single watermark
// rather than a set of seen entries.
package feed
