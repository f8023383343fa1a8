package cos

import "testing"

func TestShardIdEqual(t *testing.T) {
	cases := []struct {
		a, b ShardId
		want bool
	}{
		{IntShard(3), IntShard(3), true},
		{IntShard(3), IntShard(4), false},
		{StrShard("us-west"), StrShard("us-west"), true},
		{StrShard("3"), IntShard(3), false}, // tag mismatch, never equal
	}
	for _, c := range cases {
		if got := c.a.Equal(c.b); got != c.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestShardIdHashNoCollisionAcrossTags(t *testing.T) {
	// Invariant from spec section 8: sharding is a pure function of the
	// record, and distinct shard ids must route to distinct buckets with
	// overwhelming probability - in particular the int/string tag must be
	// part of the hash input, not just the payload.
	intShard := IntShard(3)
	strShard := StrShard("3")
	if intShard.Hash() == strShard.Hash() {
		t.Fatalf("IntShard(3) and StrShard(%q) hashed to the same value", "3")
	}
}

func TestShardIdStringAndFileBase(t *testing.T) {
	if got, want := IntShard(42).String(), "0042"; got != want {
		t.Errorf("IntShard(42).String() = %q, want %q", got, want)
	}
	if got, want := StrShard("us-west").String(), "us-west"; got != want {
		t.Errorf("StrShard(us-west).String() = %q, want %q", got, want)
	}
	if got, want := IntShard(7).FileBase("part"), "part-shard-0007"; got != want {
		t.Errorf("FileBase = %q, want %q", got, want)
	}
}

func TestShardIdAsMapKey(t *testing.T) {
	m := map[ShardId]int{}
	m[IntShard(1)] = 10
	m[StrShard("1")] = 20
	if len(m) != 2 {
		t.Fatalf("expected IntShard(1) and StrShard(1) to be distinct map keys, got %d entries", len(m))
	}
	m[IntShard(1)] = 30
	if len(m) != 2 || m[IntShard(1)] != 30 {
		t.Fatalf("re-inserting IntShard(1) should overwrite, not add a key: %v", m)
	}
}
