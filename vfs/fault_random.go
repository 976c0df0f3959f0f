package vfs

import (
	"math/rand/v2"
	"syscall"
)

// oneInFault fails a call with errno once in every n calls on average.
type oneInFault struct {
	n     int
	errno syscall.Errno
}

// SetErrorOneIn makes calls to op fail with errno once in n calls on average,
// after any scripted errnos for op are used up. n <= 0 disables it.
//
// Draws come from a seeded generator, see Seed, so a failing run can be
// replayed.
func (fs *FaultInjectionFS) SetErrorOneIn(op Op, n int, errno syscall.Errno) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if n <= 0 {
		delete(fs.oneIn, op)
		return
	}
	fs.oneIn[op] = oneInFault{n: n, errno: errno}
}

// Seed resets the generator behind SetErrorOneIn.
func (fs *FaultInjectionFS) Seed(seed uint64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.rng = rand.New(rand.NewPCG(seed, seed))
}

// Injected returns how many calls to op failed with an injected errno,
// scripted or random.
func (fs *FaultInjectionFS) Injected(op Op) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.injected[op]
}

// rollLocked draws a random fault for op. fs.mu must be held.
func (fs *FaultInjectionFS) rollLocked(op Op) syscall.Errno {
	f, ok := fs.oneIn[op]
	if !ok || fs.rng.IntN(f.n) != 0 {
		return 0
	}
	fs.injected[op]++
	return f.errno
}
