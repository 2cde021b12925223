package genstore

import "testing"

func TestParseGen(t *testing.T) {
	cases := []struct {
		in      any
		want    uint64
		wantErr bool
	}{
		{nil, 0, false},
		{"7", 7, false},
		{[]byte("12"), 12, false},
		{int64(3), 3, false},
		{"x", 0, true},
		{"-1", 0, true},
	}
	for _, tc := range cases {
		got, err := parseGen(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseGen(%v) err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if err == nil && got != tc.want {
			t.Fatalf("parseGen(%v)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestRedisGenStoreKeyIsNamespaced(t *testing.T) {
	s := NewRedisGenStore(nil, "parkcache")
	if got := s.key("snap:bookings:cachedBookings"); got != "gen:parkcache:snap:bookings:cachedBookings" {
		t.Fatalf("key=%q", got)
	}
	if s.Shared() != s || !s.shared {
		t.Fatalf("Shared should mark and return the store")
	}
}
