package meta

import (
	"errors"
	"testing"
)

func TestObjectRefCounting(t *testing.T) {
	released := 0
	obj := NewObject(7, 100, Identity{Name: "x"}, func(*Object) { released++ })

	if got := obj.Refs(); got != 1 {
		t.Fatalf("new object refs = %d, want 1", got)
	}
	obj.Ref()
	obj.Drop()
	if released != 0 {
		t.Fatal("release fired while references remain")
	}

	// The last drop without the release flag keeps the object parked.
	obj.Drop()
	if released != 0 {
		t.Fatal("release fired without FlagRelease")
	}

	obj.Ref()
	obj.SetFlags(FlagRelease)
	obj.Drop()
	if released != 1 {
		t.Fatalf("release fired %d times, want 1", released)
	}
}

func TestObjectDropUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on reference underflow")
		}
	}()
	obj := NewObject(1, 0, Identity{}, nil)
	obj.Drop()
	obj.Drop()
}

func TestObjectFlags(t *testing.T) {
	obj := NewObject(1, 0, Identity{}, nil)
	if obj.TestFlags(FlagOnLRU) {
		t.Fatal("flags must start clear")
	}
	obj.SetFlags(FlagOnLRU | FlagRelease)
	if !obj.TestFlags(FlagOnLRU) || !obj.TestFlags(FlagRelease) {
		t.Fatal("flags not set")
	}
	obj.ClearFlags(FlagOnLRU)
	if obj.TestFlags(FlagOnLRU) {
		t.Fatal("FlagOnLRU not cleared")
	}
	if !obj.TestFlags(FlagRelease) {
		t.Fatal("FlagRelease lost by unrelated clear")
	}
}

func TestObjectOwner(t *testing.T) {
	obj := NewObject(1, 0, Identity{}, nil)
	a, b := new(int), new(int)

	obj.BindOwner(a)
	obj.BindOwner(a) // same owner is idempotent
	if obj.Owner() != a {
		t.Fatal("owner not recorded")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic on rebind to a different owner")
			}
		}()
		obj.BindOwner(b)
	}()

	obj.ClearOwner()
	obj.BindOwner(b)
	if obj.Owner() != b {
		t.Fatal("rebind after clear failed")
	}
}

func TestObjectContent(t *testing.T) {
	obj := NewObject(1, 0, Identity{}, nil)
	if obj.HasLiveContent() {
		t.Fatal("new object must have no live content")
	}
	obj.AddContent(2)
	obj.AddContent(-1)
	if !obj.HasLiveContent() {
		t.Fatal("live content lost")
	}
	obj.AddContent(-1)
	if obj.HasLiveContent() {
		t.Fatal("content not drained")
	}
}

func TestObjectErr(t *testing.T) {
	obj := NewObject(1, 0, Identity{}, nil)
	if obj.Err() != nil {
		t.Fatal("new object must carry no error")
	}
	want := errors.New("bad crc")
	obj.SetErr(want)
	if !errors.Is(obj.Err(), want) {
		t.Fatal("per-entry error not recorded")
	}
}
