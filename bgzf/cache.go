// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

// Cache is a Block caching type, consulted only by Seek. A concrete LRU
// implementation is provided by the cache sub-package.
type Cache interface {
	// Get returns the Block with the given base file offset, removing
	// it from the Cache, or nil if it is not present.
	Get(base int64) Block

	// Put inserts a Block into the Cache, returning the Block that was
	// evicted, if any.
	Put(b Block) (evicted Block)
}
