package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// Cache coordinates concurrent creation of expensive entries: the first caller
// for a key claims it, everyone else waits for the claimed entry to become
// valid. See GetOrCreate.
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
