package capture

import (
	"errors"
	"fmt"
)

// MinBuffers is the smallest pool that lets the driver fill one buffer
// while the application drains another.
const MinBuffers = 2

// Buffer is one mmap'd driver buffer. Data is nil once unmapped.
type Buffer struct {
	Index  uint32
	Offset uint32
	Length uint32
	Data   []byte
}

// Pool is a fixed set of mapped driver buffers. It is never resized.
type Pool struct {
	dev      Device
	buffers  []Buffer
	released bool
}

// ArmPool requests count buffers and maps each one. Arming is all or
// nothing: when any buffer fails to query or map, every buffer mapped so
// far is unmapped and the request released before the error is returned.
func ArmPool(dev Device, count int) (*Pool, error) {
	if count < MinBuffers {
		return nil, newError(KindConfiguration, "arm buffers",
			fmt.Errorf("need at least %d buffers, got %d", MinBuffers, count))
	}

	granted, err := dev.RequestBuffers(uint32(count))
	if err != nil {
		return nil, newError(KindDevice, "request buffers", err)
	}

	p := &Pool{dev: dev}
	if granted < MinBuffers {
		_ = p.release()
		return nil, newError(KindResource, "request buffers",
			fmt.Errorf("driver granted %d buffers, need at least %d", granted, MinBuffers))
	}

	p.buffers = make([]Buffer, granted)
	for i := range p.buffers {
		idx := uint32(i)
		length, offset, err := dev.QueryBuffer(idx)
		if err != nil {
			_ = p.Teardown()
			return nil, newError(KindDevice, fmt.Sprintf("query buffer %d", idx), err)
		}
		data, err := dev.MapBuffer(length, offset)
		if err != nil {
			_ = p.Teardown()
			return nil, newError(KindResource, fmt.Sprintf("map buffer %d", idx), err)
		}
		p.buffers[i] = Buffer{Index: idx, Offset: offset, Length: length, Data: data}
	}

	return p, nil
}

// Len returns the number of buffers in the pool.
func (p *Pool) Len() int { return len(p.buffers) }

// Buffer returns the buffer at index.
func (p *Pool) Buffer(index uint32) *Buffer { return &p.buffers[index] }

// Teardown unmaps every buffer that is still mapped, then releases the
// driver's buffer request. Each region is unmapped at most once, so calling
// Teardown again or on a partially armed pool is safe.
func (p *Pool) Teardown() error {
	var errs []error
	for i := range p.buffers {
		b := &p.buffers[i]
		if b.Data == nil {
			continue
		}
		if err := p.dev.UnmapBuffer(b.Data); err != nil {
			errs = append(errs, fmt.Errorf("failed to unmap buffer %d: %w", b.Index, err))
		}
		b.Data = nil
	}
	if err := p.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Mapped returns the number of buffers still mapped.
func (p *Pool) Mapped() int {
	n := 0
	for i := range p.buffers {
		if p.buffers[i].Data != nil {
			n++
		}
	}
	return n
}

func (p *Pool) release() error {
	if p.released {
		return nil
	}
	p.released = true
	if _, err := p.dev.RequestBuffers(0); err != nil {
		return fmt.Errorf("failed to release buffers: %w", err)
	}
	return nil
}
