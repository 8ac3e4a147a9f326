// Package queue provides the in-process buffering between trade execution
// and the database writer. The ring grows instead of blocking producers,
// so a slow database never stalls gameplay.
package queue
