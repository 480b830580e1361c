package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/00aj99/Hauk/internal/expiry"
)

func pt(lat float64) Point { return Point{Lat: lat, Lon: lat, Time: lat} }

func TestNew_Unsaved(t *testing.T) {
	s := New("abc")
	if s.ID != "abc" || s.Expire != 0 || s.Interval != nil {
		t.Errorf("New = %+v, want zero expire and unset interval", s)
	}
	if len(s.Targets) != 0 || len(s.Points) != 0 {
		t.Error("New should start with no targets or points")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Session)
		wantErr error
	}{
		{"interval unset", func(s *Session) { s.Expire = 100 }, ErrIntervalUnset},
		{"expire zero", func(s *Session) { s.SetInterval(5) }, ErrIndefinite},
		{"both unset", func(*Session) {}, ErrIntervalUnset},
		{"valid", func(s *Session) { s.Expire = 100; s.SetInterval(5) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("abc")
			tt.setup(s)
			err := s.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && !errors.Is(err, expiry.ErrInvariant) {
				t.Error("validation errors should wrap ErrInvariant")
			}
		})
	}
}

func TestAddPoint_EvictsOldestFirst(t *testing.T) {
	s := New("abc")
	for i := 1; i <= 4; i++ {
		s.AddPoint(pt(float64(i)), 3)
	}
	want := []Point{pt(2), pt(3), pt(4)}
	if !reflect.DeepEqual(s.Points, want) {
		t.Errorf("Points = %v, want %v", s.Points, want)
	}
}

func TestAddPoint_CapOfOne(t *testing.T) {
	s := New("abc")
	s.AddPoint(pt(1), 1)
	s.AddPoint(pt(2), 1)
	if len(s.Points) != 1 || s.Points[0] != pt(2) {
		t.Errorf("Points = %v, want [%v]", s.Points, pt(2))
	}
}

func TestAddPoint_NeverExceedsCap(t *testing.T) {
	for limit := 1; limit <= 5; limit++ {
		s := New("abc")
		for i := 0; i < 20; i++ {
			s.AddPoint(pt(float64(i)), limit)
			if len(s.Points) > limit {
				t.Fatalf("limit %d: len = %d after %d pushes", limit, len(s.Points), i+1)
			}
		}
	}
}

func TestTargets(t *testing.T) {
	s := New("abc")
	s.AddTarget("A")
	s.AddTarget("B")
	s.AddTarget("C")
	s.AddTarget("B")
	if !reflect.DeepEqual(s.Targets, []string{"A", "B", "C"}) {
		t.Fatalf("Targets = %v, want [A B C]", s.Targets)
	}
	s.RemoveTarget("B")
	if !reflect.DeepEqual(s.Targets, []string{"A", "C"}) {
		t.Errorf("Targets after remove = %v, want [A C]", s.Targets)
	}
	s.RemoveTarget("missing")
	if len(s.Targets) != 2 {
		t.Errorf("removing an unknown target changed Targets to %v", s.Targets)
	}
	if !s.HasTarget("C") || s.HasTarget("B") {
		t.Error("HasTarget disagrees with Targets")
	}
}

func TestHasExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	s := New("abc")
	s.Expire = 1000
	if !s.HasExpired(now) {
		t.Error("expire == now should count as expired")
	}
	s.Expire = 1001
	if s.HasExpired(now) {
		t.Error("future expire should not be expired")
	}
}

func TestSessionJSON_RoundTrip(t *testing.T) {
	acc := 4.5
	s := New("abc")
	s.Expire = 1060
	s.SetInterval(5)
	s.AddTarget("AB12-CD34")
	s.AddPoint(Point{Lat: 59.9, Lon: 10.7, Time: 1000.25, Accuracy: &acc}, 3)

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Session
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got.ID = s.ID
	if !reflect.DeepEqual(&got, s) {
		t.Errorf("round trip = %+v, want %+v", got, *s)
	}
}

func TestPointJSON(t *testing.T) {
	spd := 1.5
	b, err := json.Marshal(Point{Lat: 1, Lon: 2, Time: 3, Speed: &spd})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != "[1,2,3,null,1.5]" {
		t.Errorf("Marshal = %s, want [1,2,3,null,1.5]", b)
	}

	var p Point
	if err := json.Unmarshal([]byte("[1,2,3]"), &p); err != nil {
		t.Fatalf("Unmarshal short form: %v", err)
	}
	if p.Accuracy != nil || p.Speed != nil {
		t.Error("short form should leave optional fields nil")
	}
	for _, bad := range []string{"[1,2]", "[1,2,3,4,5,6]", "[null,2,3]", `{"lat":1}`} {
		if err := json.Unmarshal([]byte(bad), &p); err == nil {
			t.Errorf("Unmarshal(%s) should fail", bad)
		}
	}
}

func TestRef(t *testing.T) {
	id := "8f14e45fceea167a5a36dedd4bea2543c4ca4238a0b923820dcc509a6f75849b"
	ref := Ref(id)
	if len(ref) != 12 {
		t.Fatalf("Ref length = %d, want 12", len(ref))
	}
	if ref == id[:12] {
		t.Error("Ref should not be a prefix of the ID")
	}
	if Ref(id) != ref {
		t.Error("Ref should be deterministic")
	}
	if Ref(id+"0") == ref {
		t.Error("different IDs should yield different refs")
	}
	if Ref("") != "" {
		t.Error("Ref of empty ID should be empty")
	}
}
