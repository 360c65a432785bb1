// Package cache provides small generic caches used for metadata that is
// expensive to fetch, such as table schemas.
//
// [Memory] keeps entries in process; [Redis] shares them between processes
// through github.com/redis/go-redis/v9. Both implement [Cache].
//
// [Loader] sits in front of a cache and deduplicates concurrent misses with
// golang.org/x/sync/singleflight, so a fill function runs at most once per
// key at a time:
//
//	schemas := cache.NewLoader[[]query.Column](cache.NewMemory[[]query.Column](), 0)
//	cols, err := schemas.GetOrSet(ctx, "default:posts", func(ctx context.Context) ([]query.Column, error) {
//		return conn.Describe(ctx, "posts")
//	})
package cache
