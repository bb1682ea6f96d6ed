package capture

import (
	"errors"
	"testing"
)

func TestArmPool(t *testing.T) {
	dev := newFakeDevice(t)

	pool, err := ArmPool(dev, 4)
	if err != nil {
		t.Fatalf("ArmPool: %v", err)
	}
	if pool.Len() != 4 || pool.Mapped() != 4 {
		t.Fatalf("Len = %d, Mapped = %d, want 4", pool.Len(), pool.Mapped())
	}
	for i := uint32(0); i < 4; i++ {
		b := pool.Buffer(i)
		if b.Index != i || b.Length != 1024 || len(b.Data) != 1024 || b.Offset != i*1024 {
			t.Errorf("buffer %d = %+v", i, b)
		}
	}

	if err := pool.Teardown(); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if len(dev.unmapped) != 4 || pool.Mapped() != 0 {
		t.Errorf("unmapped %v", dev.unmapped)
	}
	if dev.last(1)[0] != "reqbufs 0" {
		t.Errorf("request not released, calls %v", dev.calls)
	}
}

func TestArmPoolMapFailureUnwinds(t *testing.T) {
	dev := newFakeDevice(t)
	dev.mapErrAt = 2

	pool, err := ArmPool(dev, 4)
	if pool != nil {
		t.Error("no pool may be returned on failure")
	}
	if !errors.Is(err, ErrResource) {
		t.Fatalf("got %v, want resource error", err)
	}

	if !equalUint32(dev.mapCalls, []uint32{0, 1}) {
		t.Errorf("mapped %v, want [0 1]", dev.mapCalls)
	}
	if !equalUint32(dev.unmapped, []uint32{0, 1}) {
		t.Errorf("unmapped %v, want [0 1]", dev.unmapped)
	}
	for _, c := range dev.calls {
		if c == "querybuf 3" || c == "map 3" {
			t.Errorf("buffer 3 touched after failure: %v", dev.calls)
		}
	}
	if dev.last(1)[0] != "reqbufs 0" {
		t.Errorf("request not released, calls %v", dev.calls)
	}
}

func TestArmPoolQueryFailureUnwinds(t *testing.T) {
	dev := newFakeDevice(t)
	dev.queryErrAt = 1

	_, err := ArmPool(dev, 3)
	if !errors.Is(err, ErrDevice) {
		t.Fatalf("got %v, want device error", err)
	}
	if !equalUint32(dev.unmapped, []uint32{0}) {
		t.Errorf("unmapped %v, want [0]", dev.unmapped)
	}
}

func TestArmPoolPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		granted uint32
		reqErr  error
		want    error
	}{
		{"one buffer", 1, 0, nil, ErrConfiguration},
		{"zero buffers", 0, 0, nil, ErrConfiguration},
		{"driver grants one", 4, 1, nil, ErrResource},
		{"request fails", 4, 0, errInjected, ErrDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice(t)
			dev.granted = tt.granted
			dev.reqErr = tt.reqErr

			_, err := ArmPool(dev, tt.count)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if len(dev.mapCalls) != 0 {
				t.Errorf("buffers mapped: %v", dev.mapCalls)
			}
		})
	}
}

func TestArmPoolUsesGrantedCount(t *testing.T) {
	dev := newFakeDevice(t)
	dev.granted = 3

	pool, err := ArmPool(dev, 8)
	if err != nil {
		t.Fatal(err)
	}
	if pool.Len() != 3 {
		t.Errorf("Len = %d, want 3", pool.Len())
	}
}

func TestTeardownIdempotent(t *testing.T) {
	dev := newFakeDevice(t)
	pool, err := ArmPool(dev, 2)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.Teardown(); err != nil {
		t.Fatal(err)
	}
	if err := pool.Teardown(); err != nil {
		t.Fatal(err)
	}
	if len(dev.unmapped) != 2 {
		t.Errorf("unmapped %v, want each buffer once", dev.unmapped)
	}
	releases := 0
	for _, c := range dev.calls {
		if c == "reqbufs 0" {
			releases++
		}
	}
	if releases != 1 {
		t.Errorf("released %d times, want 1", releases)
	}
}

func TestTeardownReportsReleaseError(t *testing.T) {
	dev := newFakeDevice(t)
	dev.releaseErr = errInjected
	pool, err := ArmPool(dev, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Teardown(); !errors.Is(err, errInjected) {
		t.Errorf("got %v, want release error", err)
	}
	if pool.Mapped() != 0 {
		t.Error("buffers must be unmapped even when release fails")
	}
}

func equalUint32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
