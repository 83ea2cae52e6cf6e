package cache

import "testing"

func TestInflightGuard(t *testing.T) {
	g := NewInflightGuard()

	if !g.Begin("u1") {
		t.Fatal("first Begin should succeed")
	}
	if g.Begin("u1") {
		t.Fatal("second Begin while busy should be rejected")
	}
	if !g.Begin("u2") {
		t.Fatal("different keys are independent")
	}

	g.End("u1")
	if !g.Begin("u1") {
		t.Fatal("Begin should succeed again after End")
	}
}
