package memory_test

import (
	"testing"

	"multibox/memory"
	"multibox/memory/memtest"
)

const base = 0x140000000

func TestAccessorReads(t *testing.T) {
	fake := memtest.NewFake()
	mem := fake.Accessor(42, "ElementClient.exe", base)

	fake.PutU64(0x20000, 0x1122334455667788)
	fake.PutI32(0x20010, -7)
	fake.PutF32(0x20020, 12.5)
	fake.PutUTF16(0x20030, "Leader", 32)

	t.Run("u64", func(t *testing.T) {
		v, ok := mem.ReadU64(0x20000)
		if !ok || v != 0x1122334455667788 {
			t.Fatalf("expected pointer value, got 0x%X ok=%v", v, ok)
		}
	})

	t.Run("i32", func(t *testing.T) {
		v, ok := mem.ReadI32(0x20010)
		if !ok || v != -7 {
			t.Fatalf("expected -7, got %d ok=%v", v, ok)
		}
	})

	t.Run("f32", func(t *testing.T) {
		v, ok := mem.ReadF32(0x20020)
		if !ok || v != 12.5 {
			t.Fatalf("expected 12.5, got %v ok=%v", v, ok)
		}
	})

	t.Run("utf16 truncated at nul", func(t *testing.T) {
		v, ok := mem.ReadUTF16(0x20030, 32)
		if !ok || v != "Leader" {
			t.Fatalf("expected Leader, got %q ok=%v", v, ok)
		}
	})

	t.Run("short read yields no value", func(t *testing.T) {
		fake.PutU32(0x20100, 1)
		if _, ok := mem.ReadU64(0x20100); ok {
			t.Fatalf("expected partial read to fail")
		}
	})

	t.Run("null page is never read", func(t *testing.T) {
		if _, ok := mem.ReadU32(0); ok {
			t.Fatalf("expected read at 0 to fail")
		}
	})
}

func TestAccessorWrites(t *testing.T) {
	fake := memtest.NewFake()
	mem := fake.Accessor(1, "ElementClient.exe", base)

	if !mem.WriteF32(0x30000, 3.25) {
		t.Fatalf("expected write to succeed")
	}
	if got := fake.F32(0x30000); got != 3.25 {
		t.Fatalf("expected 3.25, got %v", got)
	}

	fake.FailWrites = true
	if mem.WriteI32(0x30010, 5) {
		t.Fatalf("expected failed write to report false")
	}
}

func TestAccessorCloseIsIdempotent(t *testing.T) {
	fake := memtest.NewFake()
	mem := fake.Accessor(1, "ElementClient.exe", base)

	if !mem.IsAlive() {
		t.Fatalf("expected process alive")
	}
	for i := 0; i < 3; i++ {
		if err := mem.Close(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if fake.Closes() != 1 {
		t.Fatalf("expected one close, got %d", fake.Closes())
	}
	if mem.IsAlive() {
		t.Fatalf("expected closed process to be dead")
	}
	if _, ok := mem.ReadU32(0x30000); ok {
		t.Fatalf("expected read on closed process to fail")
	}
}

func TestDistance(t *testing.T) {
	if d := memory.Distance(0, 0, 0, 3, 4, 0); d != 5 {
		t.Fatalf("expected 5, got %v", d)
	}
}
