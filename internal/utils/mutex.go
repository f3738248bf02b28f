package utils

import "sync"

var mu sync.Mutex

func ExecuteWithMutex(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	fn()
}
