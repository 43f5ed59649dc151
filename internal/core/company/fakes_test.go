package company

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeRepo struct {
	companies map[int64]Snapshot
	order     []int64
	seq       int64

	saves   int
	saveErr error
	findErr error
	// staleLookups は一意性確認の検索で常に未検出を返し、同時作成の競合を再現します。
	staleLookups bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{companies: make(map[int64]Snapshot)}
}

func (r *fakeRepo) FindByID(_ context.Context, id int64) (*Company, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	snap, ok := r.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	return Restore(snap), nil
}

func (r *fakeRepo) FindByEmail(_ context.Context, email string) (*Company, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.staleLookups {
		return nil, ErrCompanyNotFound
	}
	for _, id := range r.order {
		if snap := r.companies[id]; snap.Email == email {
			return Restore(snap), nil
		}
	}
	return nil, ErrCompanyNotFound
}

func (r *fakeRepo) FindByShortName(_ context.Context, shortName string) (*Company, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.staleLookups {
		return nil, ErrCompanyNotFound
	}
	for _, id := range r.order {
		if snap := r.companies[id]; snap.ShortName == shortName {
			return Restore(snap), nil
		}
	}
	return nil, ErrCompanyNotFound
}

// Save はストレージの一意制約とバージョン照合を模倣します。
func (r *fakeRepo) Save(_ context.Context, c *Company) (*Company, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}

	snap := c.Snapshot()
	for _, id := range r.order {
		other := r.companies[id]
		if other.ID == snap.ID {
			continue
		}
		if other.Email == snap.Email {
			return nil, ErrDuplicateEmail
		}
		if other.ShortName == snap.ShortName {
			return nil, ErrDuplicateShortName
		}
	}

	if snap.ID == 0 {
		r.seq++
		snap.ID = r.seq
		snap.Version = 1
		r.order = append(r.order, snap.ID)
	} else {
		stored, ok := r.companies[snap.ID]
		if !ok || stored.Version != snap.Version {
			return nil, ErrConcurrentModification
		}
		snap.Version++
	}

	r.companies[snap.ID] = snap
	r.saves++
	return Restore(snap), nil
}

func (r *fakeRepo) ListActive(_ context.Context, page Page) ([]*Company, string, error) {
	return r.list(page, func(s Snapshot) bool { return s.IsActive && !s.IsDeleted })
}

func (r *fakeRepo) ListDeleted(_ context.Context, page Page) ([]*Company, string, error) {
	return r.list(page, func(s Snapshot) bool { return s.IsDeleted })
}

func (r *fakeRepo) list(page Page, keep func(Snapshot) bool) ([]*Company, string, error) {
	var filtered []*Company
	for _, id := range r.order {
		if snap := r.companies[id]; keep(snap) {
			filtered = append(filtered, Restore(snap))
		}
	}

	if page.Offset > len(filtered) {
		return []*Company{}, "", nil
	}

	end := page.Offset + page.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	var nextToken string
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}

	return filtered[page.Offset:end], nextToken, nil
}

type sentMessage struct {
	event Event
	msg   Message
}

type fakeMailer struct {
	sent       []sentMessage
	composeErr error
	enqueueErr error
	pending    Event
}

func (m *fakeMailer) Compose(_ context.Context, event Event, c *Company) (Message, error) {
	if m.composeErr != nil {
		return Message{}, m.composeErr
	}
	m.pending = event
	return Message{
		To:      c.Email(),
		Subject: string(event),
		Body:    fmt.Sprintf("%s active=%t", c.LongName(), c.IsActive()),
	}, nil
}

func (m *fakeMailer) Enqueue(_ context.Context, msg Message) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.sent = append(m.sent, sentMessage{event: m.pending, msg: msg})
	return nil
}
