// Package cache provides the bounded, insertion-ordered store for retained
// work items. Eviction is strict FIFO by first insertion; reads never promote
// an entry. This matches a pure age-based retention policy rather than LRU.
package cache
