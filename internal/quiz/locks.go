package quiz

import "sync"

// keyedMutex serializes the read-modify-write sequences of allocation and
// merge per (student, lecture). Different keys never block each other.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[GradeKey]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[GradeKey]*sync.Mutex{}}
}

// Lock acquires the mutex for the key and returns its unlock func. Mutexes
// are kept for the process lifetime; the key space is bounded by students ×
// lectures actually touched.
func (k *keyedMutex) Lock(studentID, lectureID string) func() {
	key := GradeKey{StudentID: studentID, LectureID: lectureID}
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
