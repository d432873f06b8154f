// Package storage owns the on-disk layout of downloaded media. Files live
// under <output>/<username>/ with deterministic names derived from post
// date, post id and item index, so a rerun can recognize finished work by
// filename alone.
package storage
