package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/00aj99/Hauk/internal/idgen"
	"github.com/00aj99/Hauk/internal/kv"
	sessiondomain "github.com/00aj99/Hauk/internal/session/domain"
	sessionrepo "github.com/00aj99/Hauk/internal/session/repository"
	sharedomain "github.com/00aj99/Hauk/internal/share/domain"
	sharerepo "github.com/00aj99/Hauk/internal/share/repository"
	telemetrydomain "github.com/00aj99/Hauk/internal/telemetry/domain"
)

var t0 = time.Unix(1_700_000_000, 0)

type fixture struct {
	svc      *SharingService
	store    *kv.MemoryStore
	sessions *sessionrepo.KVRepository
	shares   *sharerepo.KVRepository
	clock    time.Time
	events   *recordingEmitter
}

func (f *fixture) now() time.Time { return f.clock }

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func newFixture(t *testing.T, opts ...idgen.Option) *fixture {
	t.Helper()
	f := &fixture{clock: t0, events: &recordingEmitter{}}
	f.store = kv.NewMemoryStoreWithClock(f.now)
	f.sessions = sessionrepo.NewKVRepository(f.store, f.now)
	f.shares = sharerepo.NewKVRepository(f.store, f.now)
	limits := Limits{
		MaxDuration: 24 * time.Hour,
		MinInterval: time.Second,
		MaxPoints:   3,
		PublicURL:   "https://hauk.example/",
	}
	f.svc = NewSharingService(f.sessions, f.shares, idgen.New(f.store, 16, opts...), limits,
		WithClock(f.now), WithEmitter(f.events))
	return f
}

// recordingEmitter collects events emitted asynchronously.
type recordingEmitter struct {
	mu     sync.Mutex
	types  []string
	events []*telemetrydomain.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e *telemetrydomain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.EventType)
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEmitter) snapshot() []*telemetrydomain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recordingEmitter) waitFor(t *testing.T, eventType string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, got := range r.types {
			if got == eventType {
				r.mu.Unlock()
				return
			}
		}
		r.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("event %q was not emitted", eventType)
}

func fixedPIN(pin int) idgen.Option {
	return idgen.WithPINSource(func() int { return pin })
}

func point(lat float64) sessiondomain.Point {
	return sessiondomain.Point{Lat: lat, Lon: 10, Time: lat}
}

func (f *fixture) create(t *testing.T, req CreateRequest) *CreateResult {
	t.Helper()
	res, err := f.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create(%+v): %v", req, err)
	}
	return res
}

func TestSoloLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.create(t, CreateRequest{Mode: ModeAlone, Duration: time.Minute, Interval: 5 * time.Second})

	if res.Expire != t0.Unix()+60 || res.Interval != 5 || res.PIN != "" {
		t.Errorf("result = %+v", res)
	}
	if res.ViewURL != "https://hauk.example/?"+res.ShareID {
		t.Errorf("ViewURL = %q", res.ViewURL)
	}

	for _, lat := range []float64{1, 2} {
		targets, err := f.svc.PostLocation(ctx, res.SessionID, point(lat))
		if err != nil {
			t.Fatalf("PostLocation: %v", err)
		}
		if !reflect.DeepEqual(targets, []string{res.ShareID}) {
			t.Errorf("targets = %v, want [%s]", targets, res.ShareID)
		}
	}

	view, err := f.svc.Fetch(ctx, res.ShareID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if view.Type != sharedomain.TypeSolo || view.Expire != t0.Unix()+60 || view.Interval != 5 {
		t.Errorf("view = %+v", view)
	}
	if len(view.Points) != 2 || view.Points[0].Lat != 1 || view.Points[1].Lat != 2 {
		t.Errorf("points = %+v", view.Points)
	}

	if err := f.svc.EndSession(ctx, res.SessionID); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if sh, _ := f.shares.Get(ctx, res.ShareID); sh != nil {
		t.Error("ending the host session should end its solo share")
	}
	if _, err := f.svc.Fetch(ctx, res.ShareID); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Fetch after end err = %v, want ErrShareNotFound", err)
	}
	if f.store.Len() != 0 {
		t.Errorf("store Len = %d, want 0", f.store.Len())
	}
	f.events.waitFor(t, telemetrydomain.EventShareCreated)
	f.events.waitFor(t, telemetrydomain.EventLocationPosted)
	f.events.waitFor(t, telemetrydomain.EventShareEnded)
	f.events.waitFor(t, telemetrydomain.EventSessionEnded)
}

func TestGroupLifecycle(t *testing.T) {
	f := newFixture(t, fixedPIN(123456))
	ctx := context.Background()

	alice := f.create(t, CreateRequest{Mode: ModeCreateGroup, Duration: 30 * time.Second, Interval: 5 * time.Second, Nickname: "alice"})
	if alice.PIN != "123456" {
		t.Fatalf("PIN = %q, want 123456", alice.PIN)
	}
	bob := f.create(t, CreateRequest{Mode: ModeJoinGroup, Duration: 90 * time.Second, Interval: 2 * time.Second, Nickname: "bob", PIN: "123456"})
	if bob.ShareID != alice.ShareID || bob.PIN != "123456" {
		t.Fatalf("join result = %+v, want share %s", bob, alice.ShareID)
	}

	sh, err := f.shares.GetByPIN(ctx, "123456")
	if err != nil || sh == nil {
		t.Fatalf("GetByPIN = (%v, %v)", sh, err)
	}
	if sh.Expire != t0.Unix()+90 {
		t.Errorf("stored expire = %d, want T+90", sh.Expire)
	}
	if exp, _ := f.svc.AutoExpiration(ctx, sh); exp != t0.Unix()+90 {
		t.Errorf("AutoExpiration = %d, want T+90", exp)
	}
	if iv, _ := f.svc.AutoInterval(ctx, sh); iv != 2 {
		t.Errorf("AutoInterval = %d, want 2", iv)
	}

	f.advance(30 * time.Second)
	deleted, err := f.svc.Clean(ctx, sh)
	if err != nil || deleted {
		t.Fatalf("Clean = (%v, %v), want (false, nil)", deleted, err)
	}
	if got := sh.Nicknames(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Errorf("members after clean = %v, want [bob]", got)
	}
	stored, _ := f.shares.Get(ctx, sh.ID)
	if stored == nil || stored.Expire != t0.Unix()+90 || len(stored.Group.Hosts) != 1 {
		t.Errorf("stored after clean = %+v", stored)
	}
	if iv, _ := f.svc.AutoInterval(ctx, stored); iv != 2 {
		t.Errorf("AutoInterval after clean = %d, want 2", iv)
	}

	f.advance(60 * time.Second)
	if iv, _ := f.svc.AutoInterval(ctx, stored); iv != IntervalInfinite {
		t.Errorf("AutoInterval with no live members = %d, want IntervalInfinite", iv)
	}
	if exp, _ := f.svc.AutoExpiration(ctx, stored); exp != 0 {
		t.Errorf("AutoExpiration with no live members = %d, want 0", exp)
	}
}

func TestClean_DeletesEmptyGroupAndPIN(t *testing.T) {
	f := newFixture(t, fixedPIN(123456))
	ctx := context.Background()
	res := f.create(t, CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: time.Second, Nickname: "alice"})
	sh, _ := f.shares.Get(ctx, res.ShareID)

	// the share record outlives its only member when the member is deleted directly
	_ = f.sessions.Delete(ctx, res.SessionID)
	deleted, err := f.svc.Clean(ctx, sh)
	if err != nil || !deleted {
		t.Fatalf("Clean = (%v, %v), want (true, nil)", deleted, err)
	}
	if got, _ := f.shares.Get(ctx, res.ShareID); got != nil {
		t.Error("share should be deleted")
	}
	if got, _ := f.shares.GetByPIN(ctx, "123456"); got != nil {
		t.Error("pin should be deleted")
	}
	f.events.waitFor(t, telemetrydomain.EventGroupCleaned)
}

func TestFetch_Group(t *testing.T) {
	f := newFixture(t, fixedPIN(654321))
	ctx := context.Background()
	alice := f.create(t, CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: 3 * time.Second, Nickname: "alice"})
	bob := f.create(t, CreateRequest{Mode: ModeJoinGroup, Duration: 2 * time.Minute, Interval: 4 * time.Second, Nickname: "bob", PIN: "654321"})
	_, _ = f.svc.PostLocation(ctx, alice.SessionID, point(1))
	_, _ = f.svc.PostLocation(ctx, bob.SessionID, point(2))

	view, err := f.svc.Fetch(ctx, alice.ShareID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if view.Type != sharedomain.TypeGroup || view.Expire != t0.Unix()+120 || view.Interval != 3 {
		t.Errorf("view = %+v", view)
	}
	if len(view.Members) != 2 || view.Members["alice"][0].Lat != 1 || view.Members["bob"][0].Lat != 2 {
		t.Errorf("members = %+v", view.Members)
	}

	// a group whose members are all gone reads as absent and is pruned
	f.advance(3 * time.Minute)
	if _, err := f.svc.Fetch(ctx, alice.ShareID); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Fetch stale group err = %v, want ErrShareNotFound", err)
	}
}

func TestFetch_StaleGroupPrunedOnRead(t *testing.T) {
	f := newFixture(t, fixedPIN(111111))
	ctx := context.Background()
	alice := f.create(t, CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: time.Second, Nickname: "alice"})
	_ = f.create(t, CreateRequest{Mode: ModeJoinGroup, Duration: time.Minute, Interval: time.Second, Nickname: "bob", PIN: "111111"})
	_ = f.sessions.Delete(ctx, alice.SessionID)

	view, err := f.svc.Fetch(ctx, alice.ShareID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if _, ok := view.Members["alice"]; ok || len(view.Members) != 1 {
		t.Errorf("members = %v, want only bob", view.Members)
	}
	stored, _ := f.shares.Get(ctx, alice.ShareID)
	if got := stored.Nicknames(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Errorf("stored members = %v, want [bob]", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"zero duration", CreateRequest{Mode: ModeAlone, Interval: time.Second}},
		{"too long", CreateRequest{Mode: ModeAlone, Duration: 25 * time.Hour, Interval: time.Second}},
		{"interval too short", CreateRequest{Mode: ModeAlone, Duration: time.Minute, Interval: 500 * time.Millisecond}},
		{"group without nickname", CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: time.Second, Nickname: "  "}},
		{"join without pin", CreateRequest{Mode: ModeJoinGroup, Duration: time.Minute, Interval: time.Second, Nickname: "bob"}},
		{"unknown mode", CreateRequest{Mode: Mode(9), Duration: time.Minute, Interval: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(context.Background(), tt.req); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Create err = %v, want ErrInvalidArgument", err)
			}
		})
	}
	if f.store.Len() != 0 {
		t.Errorf("store Len = %d, rejected requests must not write", f.store.Len())
	}
}

// failingSessions fails every Save on the wrapped repository.
type failingSessions struct {
	SessionRepo
}

func (failingSessions) Save(context.Context, *sessiondomain.Session) error {
	return kv.ErrUnavailable
}

func TestCreate_SoloSessionSaveFailureLeavesNoShare(t *testing.T) {
	f := newFixture(t)
	svc := NewSharingService(failingSessions{f.sessions}, f.shares, idgen.New(f.store, 16), f.svc.Limits(), WithClock(f.now))

	_, err := svc.Create(context.Background(), CreateRequest{Mode: ModeAlone, Duration: time.Minute, Interval: time.Second})
	if !errors.Is(err, kv.ErrUnavailable) {
		t.Fatalf("Create err = %v, want ErrUnavailable", err)
	}
	if f.store.Len() != 0 {
		t.Errorf("store Len = %d, a failed create must not leave a share behind", f.store.Len())
	}
}

func TestFetch_GroupWithoutHostsIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	empty := sharedomain.NewGroup("EMPT-YGRP", "333333")
	empty.Expire = t0.Add(time.Minute).Unix()
	if err := f.shares.Save(ctx, empty); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := f.svc.Fetch(ctx, empty.ID); !errors.Is(err, ErrShareNotFound) {
		t.Errorf("Fetch err = %v, want ErrShareNotFound", err)
	}
	if sh, _ := f.shares.Get(ctx, empty.ID); sh != nil {
		t.Error("group without hosts should be deleted on read")
	}
	if sh, _ := f.shares.GetByPIN(ctx, "333333"); sh != nil {
		t.Error("PIN of a deleted group should not resolve")
	}
}

func TestCreate_JoinUnknownPIN(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), CreateRequest{Mode: ModeJoinGroup, Duration: time.Minute, Interval: time.Second, Nickname: "bob", PIN: "999999"})
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("Create err = %v, want ErrGroupNotFound", err)
	}
	if f.store.Len() != 0 {
		t.Errorf("store Len = %d, a failed join must not write", f.store.Len())
	}
}

func TestCreate_PINExhaustion(t *testing.T) {
	f := newFixture(t, fixedPIN(123456))
	req := CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: time.Second, Nickname: "alice"}
	f.create(t, req)
	if _, err := f.svc.Create(context.Background(), req); !errors.Is(err, idgen.ErrCollisionExhausted) {
		t.Errorf("Create err = %v, want ErrCollisionExhausted", err)
	}
}

func TestPostLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.create(t, CreateRequest{Mode: ModeAlone, Duration: time.Minute, Interval: time.Second})

	for _, lat := range []float64{1, 2, 3, 4} {
		if _, err := f.svc.PostLocation(ctx, res.SessionID, point(lat)); err != nil {
			t.Fatalf("PostLocation: %v", err)
		}
	}
	sess, _ := f.sessions.Get(ctx, res.SessionID)
	var lats []float64
	for _, p := range sess.Points {
		lats = append(lats, p.Lat)
	}
	if !reflect.DeepEqual(lats, []float64{2, 3, 4}) {
		t.Errorf("points = %v, want the newest three", lats)
	}

	inf := math.Inf(1)
	bad := []sessiondomain.Point{
		{Lat: 91},
		{Lon: -181},
		{Lat: math.NaN()},
		{Lon: math.Inf(-1)},
		{Time: math.NaN()},
		{Speed: &inf},
	}
	for _, p := range bad {
		if _, err := f.svc.PostLocation(ctx, res.SessionID, p); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("PostLocation(%+v) err = %v, want ErrInvalidArgument", p, err)
		}
	}
	if _, err := f.svc.PostLocation(ctx, "nope", point(1)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("PostLocation unknown err = %v, want ErrSessionNotFound", err)
	}
	f.advance(time.Minute)
	if _, err := f.svc.PostLocation(ctx, res.SessionID, point(1)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("PostLocation expired err = %v, want ErrSessionNotFound", err)
	}
}

func TestEndSession_GroupMember(t *testing.T) {
	f := newFixture(t, fixedPIN(222222))
	ctx := context.Background()
	alice := f.create(t, CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: time.Second, Nickname: "alice"})
	bob := f.create(t, CreateRequest{Mode: ModeJoinGroup, Duration: 2 * time.Minute, Interval: time.Second, Nickname: "bob", PIN: "222222"})

	if err := f.svc.EndSession(ctx, bob.SessionID); err != nil {
		t.Fatalf("EndSession(bob): %v", err)
	}
	sh, _ := f.shares.Get(ctx, alice.ShareID)
	if sh == nil {
		t.Fatal("group should survive while alice is live")
	}
	if got := sh.Nicknames(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("members = %v, want [alice]", got)
	}
	if sh.Expire != t0.Unix()+60 {
		t.Errorf("expire = %d, want recomputed to alice's T+60", sh.Expire)
	}

	if err := f.svc.EndSession(ctx, alice.SessionID); err != nil {
		t.Fatalf("EndSession(alice): %v", err)
	}
	if got, _ := f.shares.GetByPIN(ctx, "222222"); got != nil {
		t.Error("group should be deleted with its last member")
	}
	if err := f.svc.EndSession(ctx, alice.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second EndSession err = %v, want ErrSessionNotFound", err)
	}
}

func TestAdopt(t *testing.T) {
	f := newFixture(t, fixedPIN(333333))
	ctx := context.Background()
	owner := f.create(t, CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: time.Second, Nickname: "alice"})
	solo := f.create(t, CreateRequest{Mode: ModeAlone, Duration: 2 * time.Minute, Interval: time.Second, Adoptable: true})
	closed := f.create(t, CreateRequest{Mode: ModeAlone, Duration: time.Minute, Interval: time.Second})

	tests := []struct {
		name string
		req  AdoptRequest
		want error
	}{
		{"no nickname", AdoptRequest{SessionID: owner.SessionID, ShareID: solo.ShareID, PIN: "333333"}, ErrInvalidArgument},
		{"unknown requester", AdoptRequest{SessionID: "nope", ShareID: solo.ShareID, Nickname: "carl", PIN: "333333"}, ErrSessionNotFound},
		{"unknown share", AdoptRequest{SessionID: owner.SessionID, ShareID: "NOPE-NOPE", Nickname: "carl", PIN: "333333"}, ErrShareNotFound},
		{"not adoptable", AdoptRequest{SessionID: owner.SessionID, ShareID: closed.ShareID, Nickname: "carl", PIN: "333333"}, ErrNotAdoptable},
		{"unknown group", AdoptRequest{SessionID: owner.SessionID, ShareID: solo.ShareID, Nickname: "carl", PIN: "000000"}, ErrGroupNotFound},
		{"requester outside group", AdoptRequest{SessionID: closed.SessionID, ShareID: solo.ShareID, Nickname: "carl", PIN: "333333"}, ErrNotGroupMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.Adopt(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Adopt err = %v, want %v", err, tt.want)
			}
		})
	}

	err := f.svc.Adopt(ctx, AdoptRequest{SessionID: owner.SessionID, ShareID: solo.ShareID, Nickname: "carl", PIN: "333333"})
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	group, _ := f.shares.Get(ctx, owner.ShareID)
	if got := group.Nicknames(); !reflect.DeepEqual(got, []string{"alice", "carl"}) {
		t.Errorf("members = %v, want [alice carl]", got)
	}
	if group.Expire != t0.Unix()+120 {
		t.Errorf("expire = %d, want T+120 from the adopted session", group.Expire)
	}
	adoptee, _ := f.sessions.Get(ctx, solo.SessionID)
	if !reflect.DeepEqual(adoptee.Targets, []string{solo.ShareID, owner.ShareID}) {
		t.Errorf("adoptee targets = %v", adoptee.Targets)
	}
	if sh, _ := f.shares.Get(ctx, solo.ShareID); sh == nil {
		t.Error("the solo share stays live after adoption")
	}
	f.events.waitFor(t, telemetrydomain.EventShareAdopted)
}

func TestEvents_CarrySessionRefOnly(t *testing.T) {
	f := newFixture(t, fixedPIN(123456))
	ctx := context.Background()

	solo, err := f.svc.Create(ctx, CreateRequest{Mode: ModeAlone, Duration: time.Minute, Interval: 5 * time.Second})
	if err != nil {
		t.Fatalf("Create solo: %v", err)
	}
	group, err := f.svc.Create(ctx, CreateRequest{Mode: ModeCreateGroup, Duration: time.Minute, Interval: 5 * time.Second, Nickname: "alice"})
	if err != nil {
		t.Fatalf("Create group: %v", err)
	}
	if _, err := f.svc.PostLocation(ctx, solo.SessionID, point(1)); err != nil {
		t.Fatalf("PostLocation: %v", err)
	}
	if err := f.svc.EndSession(ctx, solo.SessionID); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	for _, typ := range []string{
		telemetrydomain.EventSessionCreated,
		telemetrydomain.EventShareCreated,
		telemetrydomain.EventLocationPosted,
		telemetrydomain.EventShareEnded,
		telemetrydomain.EventSessionEnded,
	} {
		f.events.waitFor(t, typ)
	}

	secrets := []string{solo.SessionID, group.SessionID}
	refs := map[string]bool{sessiondomain.Ref(solo.SessionID): true, sessiondomain.Ref(group.SessionID): true}
	for _, e := range f.events.snapshot() {
		b, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("Marshal %s: %v", e.EventType, err)
		}
		for _, id := range secrets {
			if strings.Contains(string(b), id) {
				t.Errorf("event %s exposes a session ID: %s", e.EventType, b)
			}
		}
		if e.SessionRef != "" && !refs[e.SessionRef] {
			t.Errorf("event %s SessionRef = %q, want a ref of a known session", e.EventType, e.SessionRef)
		}
	}
}
