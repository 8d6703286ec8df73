// ABOUTME: In-memory board.Store for engine tests: snapshot-per-transaction, commit on success.
// ABOUTME: failApplyAfter injects a write failure midway through a batch to prove rollback;
// ABOUTME: onLock simulates a commit by another request landing while a board lock is awaited.
package board_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/board"
)

var errInjected = errors.New("injected write failure")

type memBoard struct {
	title   string
	deleted bool
}

type memCategory struct {
	boardID uuid.UUID
	creator uuid.UUID
	deleted bool
}

type memGoal struct {
	categoryID uuid.UUID
	creator    uuid.UUID
	archived   bool
}

type memComment struct {
	goalID uuid.UUID
	author uuid.UUID
}

type memState struct {
	boards     map[uuid.UUID]memBoard
	members    map[uuid.UUID][]board.Participant
	categories map[uuid.UUID]memCategory
	goals      map[uuid.UUID]memGoal
	comments   map[uuid.UUID]memComment
}

func (st memState) clone() memState {
	out := memState{
		boards:     make(map[uuid.UUID]memBoard, len(st.boards)),
		members:    make(map[uuid.UUID][]board.Participant, len(st.members)),
		categories: make(map[uuid.UUID]memCategory, len(st.categories)),
		goals:      make(map[uuid.UUID]memGoal, len(st.goals)),
		comments:   make(map[uuid.UUID]memComment, len(st.comments)),
	}
	for k, v := range st.boards {
		out.boards[k] = v
	}
	for k, v := range st.members {
		out.members[k] = append([]board.Participant(nil), v...)
	}
	for k, v := range st.categories {
		out.categories[k] = v
	}
	for k, v := range st.goals {
		out.goals[k] = v
	}
	for k, v := range st.comments {
		out.comments[k] = v
	}
	return out
}

type memStore struct {
	mu    sync.Mutex
	state memState
	// failApplyAfter, when > 0, makes the next batch write fail after that
	// many rows have been written inside the transaction.
	failApplyAfter int
	// onLock, when set, runs against the transaction's state each time a
	// board lock is granted, before the holder reads anything else.
	onLock func(st *memState, boardID uuid.UUID)
	// locks counts LockBoard calls across transactions.
	locks int
}

func newMemStore() *memStore {
	return &memStore{state: memState{}.clone()}
}

// ── fixtures ──────────────────────────────────────────────────────────────────

func (s *memStore) addBoard(owner uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.boards[id] = memBoard{title: "board"}
	if owner != uuid.Nil {
		s.state.members[id] = []board.Participant{{UserID: owner, Role: board.RoleOwner}}
	}
	return id
}

func (s *memStore) addMember(boardID, userID uuid.UUID, role board.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.members[boardID] = append(s.state.members[boardID], board.Participant{UserID: userID, Role: role})
}

func (s *memStore) addCategory(boardID, creator uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.categories[id] = memCategory{boardID: boardID, creator: creator}
	return id
}

func (s *memStore) addGoal(categoryID, creator uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.goals[id] = memGoal{categoryID: categoryID, creator: creator}
	return id
}

func (s *memStore) addComment(goalID, author uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.comments[id] = memComment{goalID: goalID, author: author}
	return id
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *memStore) members(boardID uuid.UUID) []board.Participant {
	return s.snapshot().members[boardID]
}

// ── board.Reader ──────────────────────────────────────────────────────────────

func (s *memStore) ResolveTarget(_ context.Context, t board.Target) (*board.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.resolve(t), nil
}

func (s *memStore) MembershipOf(_ context.Context, boardID, userID uuid.UUID) (*board.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.membershipOf(boardID, userID), nil
}

func (s *memStore) InTx(ctx context.Context, fn func(board.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{st: s.state.clone(), failAfter: s.failApplyAfter, onLock: s.onLock}
	err := fn(tx)
	s.locks += tx.locks
	if err != nil {
		return err
	}
	s.state = tx.st
	return nil
}

func (s *memStore) lockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks
}

// setMember replaces or inserts userID's membership; a nil role removes it.
func (st *memState) setMember(boardID, userID uuid.UUID, role *board.Role) {
	kept := st.members[boardID][:0:0]
	for _, p := range st.members[boardID] {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	if role != nil {
		kept = append(kept, board.Participant{UserID: userID, Role: *role})
	}
	st.members[boardID] = kept
}

func (st memState) resolve(t board.Target) *board.Subject {
	switch t.Kind {
	case board.KindBoard:
		b, ok := st.boards[t.ID]
		if !ok {
			return nil
		}
		return &board.Subject{Target: t, BoardID: t.ID, Deleted: b.deleted, Hidden: b.deleted}
	case board.KindCategory:
		c, ok := st.categories[t.ID]
		if !ok {
			return nil
		}
		b := st.boards[c.boardID]
		return &board.Subject{Target: t, BoardID: c.boardID, CreatorID: c.creator,
			Deleted: c.deleted, Hidden: c.deleted || b.deleted}
	case board.KindGoal:
		g, ok := st.goals[t.ID]
		if !ok {
			return nil
		}
		parent := st.resolve(board.Target{Kind: board.KindCategory, ID: g.categoryID})
		return &board.Subject{Target: t, BoardID: parent.BoardID, CreatorID: g.creator,
			Deleted: g.archived, Hidden: g.archived || parent.Hidden}
	case board.KindComment:
		c, ok := st.comments[t.ID]
		if !ok {
			return nil
		}
		parent := st.resolve(board.Target{Kind: board.KindGoal, ID: c.goalID})
		return &board.Subject{Target: t, BoardID: parent.BoardID, CreatorID: c.author,
			Hidden: parent.Hidden}
	}
	return nil
}

func (st memState) membershipOf(boardID, userID uuid.UUID) *board.Role {
	for _, p := range st.members[boardID] {
		if p.UserID == userID {
			role := p.Role
			return &role
		}
	}
	return nil
}

// ── board.Tx ──────────────────────────────────────────────────────────────────

type memTx struct {
	st        memState
	failAfter int
	written   int
	onLock    func(st *memState, boardID uuid.UUID)
	locks     int
}

func (tx *memTx) write() error {
	tx.written++
	if tx.failAfter > 0 && tx.written > tx.failAfter {
		return errInjected
	}
	return nil
}

func (tx *memTx) ResolveTarget(_ context.Context, t board.Target) (*board.Subject, error) {
	return tx.st.resolve(t), nil
}

func (tx *memTx) MembershipOf(_ context.Context, boardID, userID uuid.UUID) (*board.Role, error) {
	return tx.st.membershipOf(boardID, userID), nil
}

func (tx *memTx) LockBoard(_ context.Context, boardID uuid.UUID) error {
	tx.locks++
	if tx.onLock != nil {
		tx.onLock(&tx.st, boardID)
	}
	return nil
}

func (tx *memTx) MembersOf(_ context.Context, boardID uuid.UUID) ([]board.Participant, error) {
	return append([]board.Participant(nil), tx.st.members[boardID]...), nil
}

func (tx *memTx) CategoriesOfBoard(_ context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, c := range tx.st.categories {
		if c.boardID == boardID && !c.deleted {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (tx *memTx) GoalsOfBoard(_ context.Context, boardID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, g := range tx.st.goals {
		if tx.st.categories[g.categoryID].boardID == boardID && !g.archived {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (tx *memTx) GoalsOfCategory(_ context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, g := range tx.st.goals {
		if g.categoryID == categoryID && !g.archived {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (tx *memTx) UpdateBoardTitle(_ context.Context, boardID uuid.UUID, title string) error {
	if err := tx.write(); err != nil {
		return err
	}
	b := tx.st.boards[boardID]
	b.title = title
	tx.st.boards[boardID] = b
	return nil
}

func (tx *memTx) ApplyMembershipDiff(_ context.Context, boardID uuid.UUID, ops []board.MembershipOp) error {
	for _, op := range ops {
		if err := tx.write(); err != nil {
			return err
		}
		tx.st.members[boardID] = board.Apply(tx.st.members[boardID], []board.MembershipOp{op})
	}
	return nil
}

func (tx *memTx) ApplyCascade(_ context.Context, plan board.Plan) error {
	for _, t := range plan.Transitions {
		if err := tx.write(); err != nil {
			return err
		}
		switch t.Kind {
		case board.SoftDeleteBoard:
			b := tx.st.boards[t.ID]
			b.deleted = true
			tx.st.boards[t.ID] = b
		case board.SoftDeleteCategory:
			c := tx.st.categories[t.ID]
			c.deleted = true
			tx.st.categories[t.ID] = c
		case board.ArchiveGoal:
			g := tx.st.goals[t.ID]
			g.archived = true
			tx.st.goals[t.ID] = g
		}
	}
	return nil
}
