package activity

// ring is a fixed-capacity register that overwrites its oldest entry.
type ring struct {
	buf  []string
	next int
	size int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]string, capacity)}
}

func (r *ring) push(v string) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// items returns the entries most recent first.
func (r *ring) items() []string {
	out := make([]string, 0, r.size)
	for i := 1; i <= r.size; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}

func (r *ring) reset() {
	clear(r.buf)
	r.next = 0
	r.size = 0
}
