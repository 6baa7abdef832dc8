package backend

import (
	"context"
	"errors"

	"lifeplanner/internal/model"
	"lifeplanner/internal/repository"
)

// Table is the query surface of one owned table.
type Table[T any] interface {
	Select(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// StepTable is the goal_steps surface. Select is restricted to goalIDs in
// addition to the caller's own goals.
type StepTable interface {
	Select(ctx context.Context, goalIDs []string) ([]model.GoalStep, error)
	Insert(ctx context.Context, row model.GoalStep) (model.GoalStep, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// ProfileTable is the profiles surface; a user sees only their own row.
type ProfileTable interface {
	Get(ctx context.Context) (model.Profile, error)
	Upsert(ctx context.Context, profile model.Profile) (model.Profile, error)
}

// Columns no caller may write.
var protectedColumns = []string{"id", "user_id", "goal_id", "created_at"}

func checkFields(fields map[string]any) error {
	for _, col := range protectedColumns {
		if _, ok := fields[col]; ok {
			return model.ValidationError{Field: col, Reason: "is read-only"}
		}
	}
	return nil
}

// ownedTable binds a repository to the client's session.
type ownedTable[T any] struct {
	c       *Client
	list    func(ctx context.Context, userID string) ([]T, error)
	create  func(ctx context.Context, row *T) error
	update  func(ctx context.Context, userID, id string, fields map[string]any) error
	remove  func(ctx context.Context, userID, id string) error
	prepare func(row *T, userID string) error
	// reload, when set, re-reads an inserted row so Insert returns it as
	// stored.
	reload func(ctx context.Context, userID string, row *T) (*T, error)
}

func (t ownedTable[T]) Select(ctx context.Context) ([]T, error) {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return nil, err
	}
	return t.list(ctx, uid)
}

func (t ownedTable[T]) Insert(ctx context.Context, row T) (T, error) {
	var zero T
	uid, err := t.c.userID(ctx)
	if err != nil {
		return zero, err
	}
	if err := t.prepare(&row, uid); err != nil {
		return zero, err
	}
	if err := t.create(ctx, &row); err != nil {
		return zero, err
	}
	if t.reload == nil {
		return row, nil
	}
	stored, err := t.reload(ctx, uid, &row)
	if err != nil {
		return zero, err
	}
	return *stored, nil
}

func (t ownedTable[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return err
	}
	if err := checkFields(fields); err != nil {
		return err
	}
	return t.update(ctx, uid, id, fields)
}

func (t ownedTable[T]) Delete(ctx context.Context, id string) error {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return err
	}
	return t.remove(ctx, uid, id)
}

// Tasks returns the tasks table. The owner and id of inserted rows are
// stamped from the session.
func (c *Client) Tasks() Table[model.Task] {
	r := c.srv.tasks
	return ownedTable[model.Task]{
		c:      c,
		list:   r.ListByUser,
		create: r.Create,
		update: r.Update,
		remove: r.Delete,
		prepare: func(t *model.Task, uid string) error {
			t.ID, t.UserID = "", uid
			return t.Validate()
		},
		reload: func(ctx context.Context, uid string, t *model.Task) (*model.Task, error) {
			return r.FindByID(ctx, uid, t.ID)
		},
	}
}

func (c *Client) Habits() Table[model.Habit] {
	r := c.srv.habits
	return ownedTable[model.Habit]{
		c:      c,
		list:   r.ListByUser,
		create: r.Create,
		update: r.Update,
		remove: r.Delete,
		prepare: func(h *model.Habit, uid string) error {
			h.ID, h.UserID = "", uid
			return h.Validate()
		},
		reload: func(ctx context.Context, uid string, h *model.Habit) (*model.Habit, error) {
			return r.FindByID(ctx, uid, h.ID)
		},
	}
}

func (c *Client) Goals() Table[model.Goal] {
	r := c.srv.goals
	return ownedTable[model.Goal]{
		c:      c,
		list:   r.ListByUser,
		create: r.Create,
		update: r.Update,
		remove: r.Delete,
		prepare: func(g *model.Goal, uid string) error {
			g.ID, g.UserID = "", uid
			return g.Validate()
		},
		reload: func(ctx context.Context, uid string, g *model.Goal) (*model.Goal, error) {
			return r.FindByID(ctx, uid, g.ID)
		},
	}
}

func (c *Client) VisionBoard() Table[model.VisionItem] {
	r := c.srv.vision
	return ownedTable[model.VisionItem]{
		c:      c,
		list:   r.ListByUser,
		create: r.Create,
		update: r.Update,
		remove: r.Delete,
		prepare: func(v *model.VisionItem, uid string) error {
			v.ID, v.UserID = "", uid
			return v.Validate()
		},
	}
}

type stepTable struct {
	c *Client
}

func (c *Client) GoalSteps() StepTable {
	return stepTable{c: c}
}

func (t stepTable) Select(ctx context.Context, goalIDs []string) ([]model.GoalStep, error) {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return nil, err
	}
	return t.c.srv.goals.ListSteps(ctx, uid, goalIDs)
}

func (t stepTable) Insert(ctx context.Context, row model.GoalStep) (model.GoalStep, error) {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return model.GoalStep{}, err
	}
	row.ID = ""
	row.Goal = nil
	if err := row.Validate(); err != nil {
		return model.GoalStep{}, err
	}
	if err := t.c.srv.goals.CreateStep(ctx, uid, &row); err != nil {
		return model.GoalStep{}, err
	}
	return row, nil
}

func (t stepTable) Update(ctx context.Context, id string, fields map[string]any) error {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return err
	}
	if err := checkFields(fields); err != nil {
		return err
	}
	return t.c.srv.goals.UpdateStep(ctx, uid, id, fields)
}

func (t stepTable) Delete(ctx context.Context, id string) error {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return err
	}
	return t.c.srv.goals.DeleteStep(ctx, uid, id)
}

type profileTable struct {
	c *Client
}

func (c *Client) Profiles() ProfileTable {
	return profileTable{c: c}
}

// Get returns the caller's profile, or an empty one when none was saved.
func (t profileTable) Get(ctx context.Context) (model.Profile, error) {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	profile, err := t.c.srv.users.GetProfile(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Profile{ID: uid}, nil
	}
	if err != nil {
		return model.Profile{}, err
	}
	return *profile, nil
}

func (t profileTable) Upsert(ctx context.Context, profile model.Profile) (model.Profile, error) {
	uid, err := t.c.userID(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	profile.ID = uid
	if err := t.c.srv.users.UpsertProfile(ctx, &profile); err != nil {
		return model.Profile{}, err
	}
	return t.Get(ctx)
}
