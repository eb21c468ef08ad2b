package checkin

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lobbypass/backend/internal/badges"
	"github.com/lobbypass/backend/internal/models"
	"github.com/lobbypass/backend/internal/visitors"
)

type fakeVisitorStore struct {
	mu             sync.Mutex
	byID           map[uuid.UUID]*models.Visitor
	failCheckedIn  bool
	failCheckedOut bool
}

func newFakeVisitorStore() *fakeVisitorStore {
	return &fakeVisitorStore{byID: make(map[uuid.UUID]*models.Visitor)}
}

func (s *fakeVisitorStore) add(status models.VisitorStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.byID[id] = &models.Visitor{ID: id, FullName: "Jane Doe", Status: status}
	return id
}

func (s *fakeVisitorStore) GetByID(_ context.Context, id uuid.UUID) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return nil, visitors.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *fakeVisitorStore) SetCheckedIn(_ context.Context, id uuid.UUID, badge *models.Badge, at time.Time) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCheckedIn {
		return nil, errors.New("write failed")
	}
	v, ok := s.byID[id]
	if !ok {
		return nil, visitors.ErrNotFound
	}
	if v.Status != models.StatusPending && v.Status != models.StatusPreRegistered {
		return nil, visitors.ErrStatusConflict
	}
	v.Status = models.StatusCheckedIn
	v.CheckInTime = &at
	v.BadgeID = nil
	v.BadgeNumber = nil
	if badge != nil {
		badgeID := badge.ID
		number := badge.BadgeNumber
		v.BadgeID = &badgeID
		v.BadgeNumber = &number
	}
	copied := *v
	return &copied, nil
}

func (s *fakeVisitorStore) SetCheckedOut(_ context.Context, id uuid.UUID, at time.Time) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCheckedOut {
		return nil, errors.New("write failed")
	}
	v, ok := s.byID[id]
	if !ok {
		return nil, visitors.ErrNotFound
	}
	if v.Status != models.StatusCheckedIn {
		return nil, visitors.ErrStatusConflict
	}
	v.Status = models.StatusCheckedOut
	v.CheckOutTime = &at
	v.BadgeID = nil
	v.BadgeNumber = nil
	copied := *v
	return &copied, nil
}

func (s *fakeVisitorStore) SetCancelled(_ context.Context, id uuid.UUID) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return nil, visitors.ErrNotFound
	}
	if v.Status != models.StatusPending && v.Status != models.StatusPreRegistered {
		return nil, visitors.ErrStatusConflict
	}
	v.Status = models.StatusCancelled
	copied := *v
	return &copied, nil
}

type fakeBadgeInventory struct {
	mu      sync.Mutex
	pool    []*models.Badge
	failAll bool
}

func newFakeBadgeInventory(numbers ...string) *fakeBadgeInventory {
	inv := &fakeBadgeInventory{}
	for _, n := range numbers {
		inv.pool = append(inv.pool, &models.Badge{
			ID:          uuid.New(),
			BadgeNumber: n,
			BadgeType:   models.BadgeTypeVisitor,
			Status:      models.BadgeAvailable,
		})
	}
	return inv
}

func (inv *fakeBadgeInventory) ClaimAvailable(_ context.Context, badgeType models.BadgeType, visitorID uuid.UUID) (*models.Badge, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.failAll {
		return nil, errors.New("inventory unreachable")
	}
	sort.Slice(inv.pool, func(i, j int) bool { return inv.pool[i].BadgeNumber < inv.pool[j].BadgeNumber })
	for _, b := range inv.pool {
		if b.Status == models.BadgeAvailable && b.BadgeType == badgeType {
			b.Status = models.BadgeIssued
			vid := visitorID
			b.CurrentVisitorID = &vid
			copied := *b
			return &copied, nil
		}
	}
	return nil, badges.ErrNoBadgeAvailable
}

func (inv *fakeBadgeInventory) Release(_ context.Context, badgeID uuid.UUID) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, b := range inv.pool {
		if b.ID == badgeID {
			b.Status = models.BadgeAvailable
			b.CurrentVisitorID = nil
			return nil
		}
	}
	return badges.ErrNotFound
}

func (inv *fakeBadgeInventory) available() int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	n := 0
	for _, b := range inv.pool {
		if b.Status == models.BadgeAvailable {
			n++
		}
	}
	return n
}

func newTestCoordinator(store *fakeVisitorStore, inv *fakeBadgeInventory) *Coordinator {
	co := NewCoordinator(store, inv, nil)
	co.Now = func() time.Time { return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC) }
	return co
}

func TestCheckInAssignsLowestBadge(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-003", "V-001", "V-002")
	co := newTestCoordinator(store, inv)
	id := store.add(models.StatusPending)

	result, err := co.CheckIn(context.Background(), id)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if !result.BadgeAssigned || result.Warning != "" {
		t.Fatalf("expected badge assigned without warning, got assigned=%v warning=%q", result.BadgeAssigned, result.Warning)
	}
	if result.Visitor.Status != models.StatusCheckedIn || result.Visitor.CheckInTime == nil {
		t.Fatalf("expected checked_in with timestamp, got %+v", result.Visitor)
	}
	if result.Visitor.BadgeNumber == nil || *result.Visitor.BadgeNumber != "V-001" {
		t.Fatalf("expected lowest badge V-001, got %v", result.Visitor.BadgeNumber)
	}
}

func TestCheckInWithoutBadgeStillSucceeds(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory() // empty pool
	co := newTestCoordinator(store, inv)
	id := store.add(models.StatusPreRegistered)

	result, err := co.CheckIn(context.Background(), id)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if result.BadgeAssigned {
		t.Fatal("expected no badge assigned")
	}
	if result.Warning != WarningNoBadge {
		t.Fatalf("expected no-badge warning, got %q", result.Warning)
	}
	if result.Visitor.Status != models.StatusCheckedIn || result.Visitor.CheckInTime == nil {
		t.Fatalf("expected checked_in with timestamp, got %+v", result.Visitor)
	}
	if result.Visitor.BadgeID != nil {
		t.Fatal("expected nil badge linkage")
	}
}

func TestCheckInInventoryFailureStillSucceeds(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-001")
	inv.failAll = true
	co := newTestCoordinator(store, inv)
	id := store.add(models.StatusPending)

	result, err := co.CheckIn(context.Background(), id)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if result.BadgeAssigned || result.Warning != WarningBadgeClaimFailed {
		t.Fatalf("expected claim-failed warning, got assigned=%v warning=%q", result.BadgeAssigned, result.Warning)
	}
	if result.Visitor.Status != models.StatusCheckedIn {
		t.Fatalf("expected checked_in, got %s", result.Visitor.Status)
	}
}

func TestCheckInGuardsStatus(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-001")
	co := newTestCoordinator(store, inv)

	for _, status := range []models.VisitorStatus{models.StatusCheckedIn, models.StatusCheckedOut, models.StatusCancelled} {
		id := store.add(status)
		_, err := co.CheckIn(context.Background(), id)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("status %s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
	if inv.available() != 1 {
		t.Fatalf("rejected check-ins must not consume badges, %d available", inv.available())
	}
}

func TestCheckInCompensatesFailedWrite(t *testing.T) {
	store := newFakeVisitorStore()
	store.failCheckedIn = true
	inv := newFakeBadgeInventory("V-001")
	co := newTestCoordinator(store, inv)
	id := store.add(models.StatusPending)

	if _, err := co.CheckIn(context.Background(), id); err == nil {
		t.Fatal("expected error")
	}
	if inv.available() != 1 {
		t.Fatalf("claimed badge must be released after failed visitor write, %d available", inv.available())
	}
}

func TestCheckOutClearsBadgeLinkage(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-001")
	co := newTestCoordinator(store, inv)
	id := store.add(models.StatusPending)

	if _, err := co.CheckIn(context.Background(), id); err != nil {
		t.Fatalf("check in: %v", err)
	}
	result, err := co.CheckOut(context.Background(), id)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if result.Visitor.Status != models.StatusCheckedOut || result.Visitor.CheckOutTime == nil {
		t.Fatalf("expected checked_out with timestamp, got %+v", result.Visitor)
	}
	if result.Visitor.BadgeID != nil || result.Visitor.BadgeNumber != nil {
		t.Fatal("expected badge linkage cleared")
	}
	if inv.available() != 1 {
		t.Fatalf("expected badge back in pool, %d available", inv.available())
	}
}

func TestCheckOutGuardsStatus(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory()
	co := newTestCoordinator(store, inv)

	for _, status := range []models.VisitorStatus{models.StatusPending, models.StatusPreRegistered, models.StatusCheckedOut, models.StatusCancelled} {
		id := store.add(status)
		_, err := co.CheckOut(context.Background(), id)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("status %s: expected ErrInvalidTransition, got %v", status, err)
		}
	}
}

func TestCancelTransitions(t *testing.T) {
	store := newFakeVisitorStore()
	co := newTestCoordinator(store, newFakeBadgeInventory())

	id := store.add(models.StatusPreRegistered)
	v, err := co.Cancel(context.Background(), id)
	if err != nil || v.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled, got %v err=%v", v, err)
	}

	checkedIn := store.add(models.StatusCheckedIn)
	if _, err := co.Cancel(context.Background(), checkedIn); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCheckInUnknownVisitor(t *testing.T) {
	co := newTestCoordinator(newFakeVisitorStore(), newFakeBadgeInventory())
	if _, err := co.CheckIn(context.Background(), uuid.New()); !errors.Is(err, visitors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Checking in more visitors than there are badges, concurrently, must never
// hand the same badge to two visitors.
func TestConcurrentCheckInBadgeMutualExclusion(t *testing.T) {
	const visitorCount = 12
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-001", "V-002", "V-003")
	co := newTestCoordinator(store, inv)

	ids := make([]uuid.UUID, visitorCount)
	for i := range ids {
		ids[i] = store.add(models.StatusPending)
	}

	results := make([]*Result, visitorCount)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			result, err := co.CheckIn(context.Background(), id)
			if err != nil {
				t.Errorf("check in %d: %v", i, err)
				return
			}
			results[i] = result
		}(i, id)
	}
	wg.Wait()

	seen := make(map[uuid.UUID]int)
	assigned := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Visitor.Status != models.StatusCheckedIn {
			t.Fatalf("every visitor must end checked_in, got %s", result.Visitor.Status)
		}
		if result.Visitor.BadgeID != nil {
			assigned++
			seen[*result.Visitor.BadgeID]++
		}
	}
	for badgeID, n := range seen {
		if n > 1 {
			t.Fatalf("badge %s assigned to %d visitors", badgeID, n)
		}
	}
	if assigned != 3 {
		t.Fatalf("expected exactly 3 badges assigned, got %d", assigned)
	}
}

// Two simultaneous check-ins for the same visitor: exactly one wins, the loser
// gets ErrInvalidTransition, and any badge the loser claimed goes back to the
// pool instead of staying issued to a visitor that only holds the winner's badge.
func TestConcurrentDuplicateCheckIn(t *testing.T) {
	const attempts = 2
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-001", "V-002")
	co := newTestCoordinator(store, inv)
	id := store.add(models.StatusPending)

	start := make(chan struct{})
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = co.CheckIn(context.Background(), id)
		}(i)
	}
	close(start)
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one check-in to win, got %d", won)
	}
	if inv.available() != 1 {
		t.Fatalf("loser's badge must be released, %d of 2 available", inv.available())
	}

	v, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if v.Status != models.StatusCheckedIn || v.BadgeID == nil {
		t.Fatalf("winner's state must survive, got %+v", v)
	}
}

// One badge, two visitors. First check-in takes the badge, the second succeeds
// without one, and the badge comes back on check-out.
func TestSingleBadgeLifecycle(t *testing.T) {
	store := newFakeVisitorStore()
	inv := newFakeBadgeInventory("V-001")
	co := newTestCoordinator(store, inv)
	ctx := context.Background()

	first := store.add(models.StatusPending)
	second := store.add(models.StatusPending)

	r1, err := co.CheckIn(ctx, first)
	if err != nil || !r1.BadgeAssigned {
		t.Fatalf("first check-in should take the badge: %+v err=%v", r1, err)
	}

	r2, err := co.CheckIn(ctx, second)
	if err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	if r2.BadgeAssigned || r2.Visitor.BadgeID != nil || r2.Warning != WarningNoBadge {
		t.Fatalf("second check-in should succeed without a badge: %+v", r2)
	}

	if _, err := co.CheckOut(ctx, first); err != nil {
		t.Fatalf("check out: %v", err)
	}
	if inv.available() != 1 {
		t.Fatalf("badge should be available again, %d available", inv.available())
	}
}
