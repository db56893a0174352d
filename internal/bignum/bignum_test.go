package bignum

import "testing"

func TestAddUint64(t *testing.T) {
	tests := []struct {
		name     string
		u        Uint128
		v        uint64
		wantHi   uint64
		wantLo   uint64
		wantOver bool
	}{
		{"simple", FromUint64(1), 1, 0, 2, false},
		{"carry into hi", Uint128{Hi: 0, Lo: ^uint64(0)}, 1, 1, 0, false},
		{"overflow", Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}, 1, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, over := tt.u.AddUint64(tt.v)
			if got.Hi != tt.wantHi || got.Lo != tt.wantLo || over != tt.wantOver {
				t.Errorf("AddUint64(%v, %d) = %+v, %v; want {%d %d}, %v",
					tt.u, tt.v, got, over, tt.wantHi, tt.wantLo, tt.wantOver)
			}
		})
	}
}

func TestSubUint64Underflow(t *testing.T) {
	_, under := FromUint64(0).SubUint64(1)
	if !under {
		t.Error("expected underflow subtracting 1 from 0")
	}
}

func TestDivModUint32(t *testing.T) {
	u := FromUint64(1_000_000)
	q, r := u.DivModUint32(64)
	if q.Lo != 1_000_000/64 || r != 1_000_000%64 {
		t.Errorf("DivModUint32 = %v, %d; want %d, %d", q, r, 1_000_000/64, 1_000_000%64)
	}

	// Divide a value whose high half is nonzero.
	big := Uint128{Hi: 1, Lo: 0}
	q, r = big.DivModUint32(2)
	want := Uint128{Hi: 0, Lo: 1 << 63}
	if q != want || r != 0 {
		t.Errorf("DivModUint32 high-half = %v, %d; want %v, 0", q, r, want)
	}
}

func TestBytesBERoundTrip(t *testing.T) {
	u := Uint128{Hi: 0x0102030405060708, Lo: 0x0910111213141516}
	got := FromBytesBE(u.BytesBE())
	if got != u {
		t.Errorf("round trip = %+v; want %+v", got, u)
	}
}

func TestTestBit(t *testing.T) {
	u := Uint128{Lo: 1 << 5}
	if !u.TestBit(5) {
		t.Error("bit 5 should be set")
	}
	if u.TestBit(4) || u.TestBit(64) {
		t.Error("unexpected bit set")
	}

	hiBit := Uint128{Hi: 1}
	if !hiBit.TestBit(64) {
		t.Error("bit 64 should be set")
	}
}

func TestHexRoundTrip(t *testing.T) {
	u := Uint128{Hi: 0xdeadbeef, Lo: 0x1}
	s := u.HexLower()
	got, err := FromHex(s)
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if got != u {
		t.Errorf("round trip = %+v; want %+v", got, u)
	}
}

func TestFromHexLeadingZeros(t *testing.T) {
	got, err := FromHex("2c")
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if got != FromUint64(0x2c) {
		t.Errorf("FromHex(\"2c\") = %+v; want 0x2c", got)
	}
}

func TestCmp(t *testing.T) {
	a := FromUint64(5)
	b := FromUint64(10)
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("Cmp gave wrong ordering")
	}
}

func TestKeyEqualConstantTime(t *testing.T) {
	var k1, k2 Key256
	k1[0] = 1
	k2[0] = 1
	if !k1.Equal(k2) {
		t.Error("identical keys should compare equal")
	}
	k2[0] = 2
	if k1.Equal(k2) {
		t.Error("different keys should not compare equal")
	}
}

func TestKeyZero(t *testing.T) {
	k := Key256{0: 1, 31: 1}
	k.Zero()
	for i, b := range k {
		if b != 0 {
			t.Errorf("byte %d not zeroed: %x", i, b)
		}
	}
}
