package thumbcore

import "testing"

func TestGetBufferSizes(t *testing.T) {
	cases := []struct {
		size    int
		wantCap int
	}{
		{100, smallBufferSize},
		{smallBufferSize, smallBufferSize},
		{smallBufferSize + 1, mediumBufferSize},
		{mediumBufferSize + 1, largeBufferSize},
		{largeBufferSize + 1, largeBufferSize + 1}, // Direct allocation
	}
	for _, tc := range cases {
		buf := GetBuffer(tc.size)
		if len(buf) != tc.size {
			t.Errorf("GetBuffer(%d): len = %d", tc.size, len(buf))
		}
		if cap(buf) != tc.wantCap {
			t.Errorf("GetBuffer(%d): cap = %d, want %d", tc.size, cap(buf), tc.wantCap)
		}
		PutBuffer(buf)
	}
}

func TestPutBufferNonStandard(t *testing.T) {
	// Non-pool capacities are dropped, not pooled; neither call may panic.
	PutBuffer(nil)
	PutBuffer(make([]byte, 12345))
}

func TestBufferReuse(t *testing.T) {
	buf := GetBuffer(1000)
	for i := range buf {
		buf[i] = 0xFF
	}
	PutBuffer(buf)

	// A fresh buffer of the same class has the right length regardless of
	// what a previous user left in it.
	buf2 := GetBuffer(2000)
	if len(buf2) != 2000 {
		t.Errorf("Expected length 2000, got %d", len(buf2))
	}
	PutBuffer(buf2)
}
