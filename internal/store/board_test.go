// ABOUTME: Integration tests for users, boards, categories, goals and comments CRUD.
// ABOUTME: Uses testutil.NewTestDB; each test runs in its own container (t.Parallel).
package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/store"
	"github.com/scarson/taskboard/internal/testutil"
)

func mustUser(t *testing.T, s *testutil.TestDB, name string) *store.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

func TestCreateUser_Duplicate(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	if _, err := s.CreateUser(ctx, "alice"); !errors.Is(err, store.ErrUsernameTaken) {
		t.Errorf("duplicate CreateUser: got %v, want ErrUsernameTaken", err)
	}

	got, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got == nil || got.ID != alice.ID {
		t.Errorf("GetUserByUsername = %v, want %v", got, alice.ID)
	}
	missing, err := s.GetUserByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetUserByID(missing): %v", err)
	}
	if missing != nil {
		t.Error("GetUserByID(missing) should return nil")
	}

	exist, err := s.UsersExist(ctx, []uuid.UUID{alice.ID, uuid.New()})
	if err != nil {
		t.Fatalf("UsersExist: %v", err)
	}
	if len(exist) != 1 || !exist[alice.ID] {
		t.Errorf("UsersExist = %v, want only alice", exist)
	}
}

func TestCreateBoardWithOwner(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")

	b, err := s.CreateBoardWithOwner(ctx, "Roadmap", alice.ID)
	if err != nil {
		t.Fatalf("CreateBoardWithOwner: %v", err)
	}
	if b.Title != "Roadmap" || b.IsDeleted {
		t.Errorf("board = %+v", b)
	}

	ps, err := s.ListParticipants(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListParticipants: %v", err)
	}
	if len(ps) != 1 || ps[0].UserID != alice.ID || ps[0].Role != "owner" || ps[0].Username != "alice" {
		t.Errorf("participants = %+v, want alice as owner", ps)
	}

	// A board for an unknown owner must not be half-created.
	if _, err := s.CreateBoardWithOwner(ctx, "Orphan", uuid.New()); err == nil {
		t.Fatal("CreateBoardWithOwner with unknown owner succeeded")
	}
	boards, err := s.ListBoards(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 1 {
		t.Errorf("ListBoards = %d boards, want 1", len(boards))
	}
}

func TestListBoards_ParticipantOnlyAndSorted(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	for _, title := range []string{"zeta", "alpha", "mu"} {
		if _, err := s.CreateBoardWithOwner(ctx, title, alice.ID); err != nil {
			t.Fatalf("CreateBoardWithOwner: %v", err)
		}
	}
	if _, err := s.CreateBoardWithOwner(ctx, "bobs", bob.ID); err != nil {
		t.Fatalf("CreateBoardWithOwner: %v", err)
	}

	boards, err := s.ListBoards(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	var titles []string
	for _, b := range boards {
		titles = append(titles, b.Title)
	}
	want := []string{"alpha", "mu", "zeta"}
	if len(titles) != len(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("titles[%d] = %q, want %q", i, titles[i], want[i])
		}
	}
}

func TestGoalLifecycle(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	b, _ := s.CreateBoardWithOwner(ctx, "B", alice.ID)
	c, err := s.CreateCategory(ctx, b.ID, alice.ID, "Backlog")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g, err := s.CreateGoal(ctx, alice.ID, store.NewGoal{CategoryID: c.ID, Title: "Ship", DueDate: &due})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if g.Status != store.GoalToDo {
		t.Errorf("default status = %q, want to_do", g.Status)
	}
	if g.DueDate == nil || !g.DueDate.Equal(due) {
		t.Errorf("due date = %v, want %v", g.DueDate, due)
	}

	done := store.GoalDone
	title := "Shipped"
	g, err = s.UpdateGoal(ctx, g.ID, store.GoalPatch{Title: &title, Status: &done, ClearDueDate: true})
	if err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	if g.Title != "Shipped" || g.Status != store.GoalDone || g.DueDate != nil {
		t.Errorf("after patch: %+v", g)
	}

	archived := store.GoalArchived
	if _, err := s.UpdateGoal(ctx, g.ID, store.GoalPatch{Status: &archived}); !errors.Is(err, store.ErrArchivedStatus) {
		t.Errorf("patch to archived: got %v, want ErrArchivedStatus", err)
	}
	if _, err := store.ParseGoalStatus("archived"); !errors.Is(err, store.ErrArchivedStatus) {
		t.Errorf("ParseGoalStatus(archived): got %v", err)
	}
	if _, err := store.ParseGoalStatus("someday"); err == nil {
		t.Error("ParseGoalStatus(someday) should fail")
	}
}

func TestCommentLifecycle(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	b, _ := s.CreateBoardWithOwner(ctx, "B", alice.ID)
	c, _ := s.CreateCategory(ctx, b.ID, alice.ID, "C")
	g, _ := s.CreateGoal(ctx, alice.ID, store.NewGoal{CategoryID: c.ID, Title: "G"})

	m, err := s.CreateComment(ctx, g.ID, alice.ID, "first")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	m, err = s.UpdateCommentText(ctx, m.ID, "edited")
	if err != nil || m == nil || m.Text != "edited" {
		t.Fatalf("UpdateCommentText = %v, %v", m, err)
	}

	// bob is not a participant and sees nothing.
	list, err := s.ListComments(ctx, bob.ID, g.ID)
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("non-participant sees %d comments", len(list))
	}

	ok, err := s.DeleteComment(ctx, m.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteComment = %v, %v", ok, err)
	}
	ok, err = s.DeleteComment(ctx, m.ID)
	if err != nil || ok {
		t.Errorf("second DeleteComment = %v, %v, want false, nil", ok, err)
	}
	got, err := s.GetComment(ctx, m.ID)
	if err != nil || got != nil {
		t.Errorf("GetComment after delete = %v, %v", got, err)
	}
}
