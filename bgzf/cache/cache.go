// Copyright ©2015 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache provides a bounded LRU block cache for the bgzf package.
package cache

import (
	"github.com/6br/bam/bgzf"
)

// LRU is a bgzf.Cache with least-recently-used eviction and a fixed
// capacity, keyed by a block's compressed file offset.
type LRU struct {
	root  node
	table map[int64]*node
	cap   int
}

type node struct {
	b bgzf.Block

	next, prev *node
}

// New returns an LRU cache holding at most n blocks. Per the builder's
// default (§6), n should be 1000 unless the caller overrides it. If n is
// less than 1, nil is returned and callers should treat that as "no
// cache".
func New(n int) *LRU {
	if n < 1 {
		return nil
	}
	c := &LRU{
		table: make(map[int64]*node, n),
		cap:   n,
	}
	c.root.next = &c.root
	c.root.prev = &c.root
	return c
}

// Len returns the number of blocks currently held.
func (c *LRU) Len() int { return len(c.table) }

// Cap returns the cache's capacity.
func (c *LRU) Cap() int { return c.cap }

func remove(n *node, table map[int64]*node) {
	delete(table, n.b.Base())
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
}

func insertFront(root, n *node) {
	n.next = root.next
	n.prev = root
	root.next.prev = n
	root.next = n
}

// Get returns the Block with the given base file offset, removing it
// from the cache, or nil if absent.
func (c *LRU) Get(base int64) bgzf.Block {
	n, ok := c.table[base]
	if !ok {
		return nil
	}
	remove(n, c.table)
	return n.b
}

// Put inserts a Block into the cache, evicting and returning the least
// recently used block if the cache was at capacity.
func (c *LRU) Put(b bgzf.Block) (evicted bgzf.Block) {
	if _, ok := c.table[b.Base()]; ok {
		return nil
	}
	if len(c.table) == c.cap {
		lru := c.root.prev
		remove(lru, c.table)
		evicted = lru.b
	}
	n := &node{b: b}
	c.table[b.Base()] = n
	insertFront(&c.root, n)
	return evicted
}
