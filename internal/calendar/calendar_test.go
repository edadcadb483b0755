package calendar

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

type mapRoleStore map[uuid.UUID]string

func (m mapRoleStore) GetRole(_ context.Context, id uuid.UUID) (string, error) {
	return m[id], nil
}

type failingRoleStore struct{ err error }

func (f failingRoleStore) GetRole(context.Context, uuid.UUID) (string, error) {
	return "", f.err
}

func TestAuthorize(t *testing.T) {
	admin, master, owner, otherPro, client, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	store := mapRoleStore{
		admin:    string(RoleSaaSAdmin),
		master:   string(RoleMaster),
		owner:    string(RoleProfessional),
		otherPro: string(RoleProfessional),
		client:   string(RoleClient),
	}
	subject := Subject{OwnerUserID: owner, ClientID: &client}

	cases := []struct {
		name  string
		actor uuid.UUID
		cap   Capability
		want  error
	}{
		{"admin manages any schedule", admin, CapManageSchedule, nil},
		{"master manages any schedule", master, CapManageSchedule, nil},
		{"professional manages own schedule", owner, CapManageSchedule, nil},
		{"professional cannot touch foreign schedule", otherPro, CapManageSchedule, ErrForbidden},
		{"client cannot manage schedule", client, CapManageSchedule, ErrForbidden},
		{"client cancels own appointment", client, CapCancelAppointment, nil},
		{"client cannot list appointments", client, CapViewAppointments, ErrForbidden},
		{"user without role", stranger, CapViewAppointments, ErrForbidden},
		{"anonymous", uuid.Nil, CapManageSchedule, ErrUnauthenticated},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(context.Background(), store, tc.actor, tc.cap, subject)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthorize_StoreError(t *testing.T) {
	boom := errors.New("db down")
	err := Authorize(context.Background(), failingRoleStore{boom}, uuid.New(), CapManageSchedule, Subject{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	if len(p.Items) != 2 || p.Items[0] != 3 || !p.HasNext || !p.HasPrev || p.Total != 5 {
		t.Fatalf("unexpected page %+v", p)
	}

	p = Paginate(items, 10, 2)
	if len(p.Items) != 0 || p.HasNext {
		t.Fatalf("expected empty last page, got %+v", p)
	}

	p = Paginate(items, 0, 0)
	if p.Page != 1 || p.PageSize != DefaultPageSize || len(p.Items) != 5 {
		t.Fatalf("expected defaults, got %+v", p)
	}

	p = Paginate(items, 1, 10000)
	if p.PageSize != MaxPageSize {
		t.Fatalf("expected page size capped to %d, got %d", MaxPageSize, p.PageSize)
	}
}

func TestPaginate_HugePage(t *testing.T) {
	items := []int{1, 2, 3}

	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt/MaxPageSize + 2} {
		p := Paginate(items, page, MaxPageSize)
		if len(p.Items) != 0 || p.HasNext || !p.HasPrev || p.Page != page {
			t.Fatalf("page %d: expected empty page, got %+v", page, p)
		}
	}

	p := Paginate([]int{}, math.MaxInt, 1)
	if len(p.Items) != 0 || p.Total != 0 {
		t.Fatalf("expected empty page, got %+v", p)
	}
}
