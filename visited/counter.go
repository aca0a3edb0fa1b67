package visited

import "sync/atomic"

// int64Counter is a tiny atomic counter, used instead of a mutex-guarded
// int so Generated()/Len() never contend with shard inserts.
type int64Counter struct {
	v atomic.Int64
}

func (c *int64Counter) add(n int64) { c.v.Add(n) }
func (c *int64Counter) load() int64 { return c.v.Load() }
