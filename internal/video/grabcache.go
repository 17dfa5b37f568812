package video

import (
	"container/list"
	"image"
	"sync"
)

// frameMemoCapacity bounds the fast_frame_grab memo.
const frameMemoCapacity = 100

// frameMemo caches extracted frames keyed by path and frame number so
// repeated browse requests skip ffmpeg entirely.
type frameMemo struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type memoEntry struct {
	key string
	img image.Image
}

func newFrameMemo(capacity int) *frameMemo {
	return &frameMemo{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (m *frameMemo) Get(key string) (image.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*memoEntry).img, true
}

func (m *frameMemo) Put(key string, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		el.Value.(*memoEntry).img = img
		m.order.MoveToFront(el)
		return
	}
	m.entries[key] = m.order.PushFront(&memoEntry{key: key, img: img})
	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoEntry).key)
	}
}

func (m *frameMemo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}
