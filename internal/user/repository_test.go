package user

import (
	"context"
	"fmt"
	"testing"

	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/db/dbtest"
)

func seedUsers(t *testing.T, r Repository, n int) []User {
	t.Helper()
	out := make([]User, 0, n)
	for i := 1; i <= n; i++ {
		u := User{Name: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("user%d@example.com", i), Image: fmt.Sprintf("img/%d.png", i)}
		if err := r.Create(context.Background(), &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		out = append(out, u)
	}
	return out
}

func TestGetUser(t *testing.T) {
	r := NewRepository(dbtest.Open(t, &User{}))
	users := seedUsers(t, r, 2)
	ctx := context.Background()

	got, err := r.GetUser(ctx, users[1].ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "user2" {
		t.Errorf("name = %q, want user2", got.Name)
	}

	if _, err := r.GetUser(ctx, 999); !apperr.IsNotFound(err) {
		t.Errorf("GetUser(999) err = %v, want not found", err)
	}

	ok, err := r.Exists(ctx, users[0].ID)
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v; want true", ok, err)
	}
	ok, err = r.Exists(ctx, 999)
	if err != nil || ok {
		t.Errorf("Exists(999) = %v, %v; want false", ok, err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	r := NewRepository(dbtest.Open(t, &User{}))
	seedUsers(t, r, 1)
	err := r.Create(context.Background(), &User{Name: "again", Email: "user1@example.com"})
	if !apperr.IsConflict(err) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestListUsersAndBriefs(t *testing.T) {
	r := NewRepository(dbtest.Open(t, &User{}))
	users := seedUsers(t, r, 4)
	ctx := context.Background()

	all, err := r.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("users not in id order: %d before %d", all[i-1].ID, all[i].ID)
		}
	}

	briefs, err := r.ListBriefs(ctx, []uint64{users[3].ID, users[1].ID})
	if err != nil {
		t.Fatalf("ListBriefs: %v", err)
	}
	if len(briefs) != 2 || briefs[0].ID != users[1].ID || briefs[1].ID != users[3].ID {
		t.Fatalf("briefs = %+v", briefs)
	}
	if briefs[0].Image != "img/2.png" {
		t.Errorf("image = %q, want img/2.png", briefs[0].Image)
	}

	empty, err := r.ListBriefs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ListBriefs(nil) = %v, %v", empty, err)
	}
}

func TestExistsReadsPrimary(t *testing.T) {
	r := NewRepository(dbtest.OpenWithReplica(t, &User{}))
	ctx := context.Background()
	u := seedUsers(t, r, 1)[0]

	ok, err := r.Exists(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("Exists right after Create = %v, %v; want true", ok, err)
	}
	// Listing goes to the replica, which has not seen the insert.
	list, err := r.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("replica users = %d, want 0", len(list))
	}
}
