package metrics

import "testing"

func TestCounters(t *testing.T) {
	c := NewCounters(100)
	if c.IOUnitLimit() != 100 {
		t.Fatalf("limit = %d", c.IOUnitLimit())
	}

	c.AddFSObjects(3)
	c.AddFSObjects(-1)
	c.AddMetaObjects(5)
	c.AddIOUnits(2)
	c.SetIOUnitLimit(200)

	snap := c.Snapshot()
	if snap.FSObjects != 2 {
		t.Errorf("FSObjects = %d, want 2", snap.FSObjects)
	}
	if snap.MetaObjects != 5 {
		t.Errorf("MetaObjects = %d, want 5", snap.MetaObjects)
	}
	if snap.IOUnits != 2 {
		t.Errorf("IOUnits = %d, want 2", snap.IOUnits)
	}
	if snap.IOUnitLimit != 200 {
		t.Errorf("IOUnitLimit = %d, want 200", snap.IOUnitLimit)
	}
}
