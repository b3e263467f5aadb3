// Package bufpool provides pooled scratch buffers and hashers for the
// hot per-entry paths in the delta and archive pipelines. It mirrors the
// teacher's alfa/pool.Value wrapper (a generic sync.Pool with a reset
// hook) narrowed to the two swimmers this module actually needs.
package bufpool

import (
	"bytes"
	"crypto/md5"
	"hash"
	"sync"
)

type value[T any] struct {
	inner *sync.Pool
	reset func(T)
}

func makeValue[T any](newFn func() T, reset func(T)) *value[T] {
	return &value[T]{
		reset: reset,
		inner: &sync.Pool{
			New: func() any { return newFn() },
		},
	}
}

func (p *value[T]) get() T {
	return p.inner.Get().(T)
}

// GetWithRepool returns an element and a function that returns it to the
// pool (after resetting it). Callers should defer the returned func.
func (p *value[T]) GetWithRepool() (T, func()) {
	element := p.get()
	return element, func() { p.put(element) }
}

func (p *value[T]) put(element T) {
	if p.reset != nil {
		p.reset(element)
	}
	p.inner.Put(element)
}

var (
	buffers = makeValue(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
	)

	md5Hashers = makeValue(
		func() hash.Hash { return md5.New() },
		func(h hash.Hash) { h.Reset() },
	)
)

// GetBuffer returns a pooled, empty *bytes.Buffer and its repool func.
func GetBuffer() (*bytes.Buffer, func()) {
	return buffers.GetWithRepool()
}

// GetMD5 returns a pooled, reset MD5 hash.Hash and its repool func.
func GetMD5() (hash.Hash, func()) {
	return md5Hashers.GetWithRepool()
}
