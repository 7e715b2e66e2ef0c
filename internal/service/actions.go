// Copyright (c) 2026 crmkit authors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crmkit/crmkit/internal/model"
	"github.com/crmkit/crmkit/internal/store"
	"github.com/crmkit/crmkit/internal/tree"
)

// ActionNode is one materialized node of a project's workflow tree.
type ActionNode struct {
	store.Action
	Children []*ActionNode
}

// ActionService owns the workflow action tree of a project: CRUD plus the
// structural mutations (copy, move-before, subtree remove). All mutations run
// inside a transaction so sibling renumbering is atomic.
type ActionService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewActionService creates a new ActionService.
func NewActionService(db *sql.DB) *ActionService {
	return &ActionService{
		db:      db,
		queries: store.New(db),
	}
}

// AddActionParams holds the fields for a new workflow action.
type AddActionParams struct {
	Type    string
	Enabled bool
	Name    string
	Options string
}

// Add creates a new action under parentID (nil for a root action). The new
// node is appended after its siblings: sort order max+1, or 0 if first.
func (s *ActionService) Add(ctx context.Context, projectID int64, parentID *int64, arg AddActionParams) (store.Action, error) {
	if projectID == 0 {
		return store.Action{}, fmt.Errorf("%w: project id required", ErrInvalidArgument)
	}
	if !model.IsValidActionType(arg.Type) {
		return store.Action{}, fmt.Errorf("%w: unknown action type %q", ErrInvalidArgument, arg.Type)
	}
	options := arg.Options
	if options == "" {
		options = "{}"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Action{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	q := s.queries.WithTx(tx)

	var parent sql.NullInt64
	var siblings []store.Action
	if parentID != nil {
		p, err := q.GetActionByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.Action{}, fmt.Errorf("%w: parent action %d", ErrNotFound, *parentID)
			}
			return store.Action{}, err
		}
		if p.ProjectID != projectID {
			return store.Action{}, fmt.Errorf("%w: parent action %d", ErrNotFound, *parentID)
		}
		parent = sql.NullInt64{Int64: p.ID, Valid: true}
		siblings, err = q.ListActionChildren(ctx, p.ID)
		if err != nil {
			return store.Action{}, err
		}
	} else {
		siblings, err = q.ListRootActions(ctx, projectID)
		if err != nil {
			return store.Action{}, err
		}
	}

	created, err := q.CreateAction(ctx, store.CreateActionParams{
		ProjectID:  projectID,
		ParentID:   parent,
		Type:       arg.Type,
		SortOrder:  tree.NextSortOrder(sortOrders(siblings)),
		Enabled:    boolToInt(arg.Enabled),
		Name:       arg.Name,
		Options:    options,
		ModifiedAt: time.Now().UTC(),
	})
	if err != nil {
		return store.Action{}, err
	}
	if err := tx.Commit(); err != nil {
		return store.Action{}, err
	}
	return created, nil
}

// Replace overwrites type, enabled, name and options of an action. The tree
// shape is untouched and the modification time is refreshed.
func (s *ActionService) Replace(ctx context.Context, projectID, id int64, arg AddActionParams) (store.Action, error) {
	if !model.IsValidActionType(arg.Type) {
		return store.Action{}, fmt.Errorf("%w: unknown action type %q", ErrInvalidArgument, arg.Type)
	}
	options := arg.Options
	if options == "" {
		options = "{}"
	}

	if _, err := s.getProjectAction(ctx, s.queries, projectID, id); err != nil {
		return store.Action{}, err
	}
	return s.queries.UpdateActionFields(ctx, store.UpdateActionFieldsParams{
		ID:         id,
		Type:       arg.Type,
		Enabled:    boolToInt(arg.Enabled),
		Name:       arg.Name,
		Options:    options,
		ModifiedAt: time.Now().UTC(),
	})
}

// Copy clones an action and all its descendants as brand-new rows, preserving
// the relative shape and every field value. The clone root stays under the
// source's parent, appended after the existing siblings. Returns the new root.
func (s *ActionService) Copy(ctx context.Context, projectID, id int64) (store.Action, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Action{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	q := s.queries.WithTx(tx)

	rows, err := q.ListActionSubtree(ctx, id)
	if err != nil {
		return store.Action{}, err
	}
	if len(rows) == 0 {
		return store.Action{}, fmt.Errorf("%w: action %d", ErrNotFound, id)
	}

	byParent := make(map[int64][]store.Action)
	var src store.Action
	for _, row := range rows {
		if row.ID == id {
			src = row
			continue
		}
		byParent[row.ParentID.Int64] = append(byParent[row.ParentID.Int64], row)
	}
	if src.ProjectID != projectID {
		return store.Action{}, fmt.Errorf("%w: action %d", ErrNotFound, id)
	}

	// The clone root joins the source's sibling list at the end; descendants
	// keep their sort order verbatim so the copied shape is identical.
	var siblings []store.Action
	if src.ParentID.Valid {
		siblings, err = q.ListActionChildren(ctx, src.ParentID.Int64)
	} else {
		siblings, err = q.ListRootActions(ctx, projectID)
	}
	if err != nil {
		return store.Action{}, err
	}

	now := time.Now().UTC()
	rootCopy, err := q.CreateAction(ctx, store.CreateActionParams{
		ProjectID:  src.ProjectID,
		ParentID:   src.ParentID,
		Type:       src.Type,
		SortOrder:  tree.NextSortOrder(sortOrders(siblings)),
		Enabled:    src.Enabled,
		Name:       src.Name,
		Options:    src.Options,
		ModifiedAt: now,
	})
	if err != nil {
		return store.Action{}, err
	}

	// Walk the subtree top-down so every clone's parent already exists.
	var clone func(oldParent, newParent int64) error
	clone = func(oldParent, newParent int64) error {
		for _, child := range byParent[oldParent] {
			created, err := q.CreateAction(ctx, store.CreateActionParams{
				ProjectID:  child.ProjectID,
				ParentID:   sql.NullInt64{Int64: newParent, Valid: true},
				Type:       child.Type,
				SortOrder:  child.SortOrder,
				Enabled:    child.Enabled,
				Name:       child.Name,
				Options:    child.Options,
				ModifiedAt: now,
			})
			if err != nil {
				return err
			}
			if err := clone(child.ID, created.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := clone(src.ID, rootCopy.ID); err != nil {
		return store.Action{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.Action{}, err
	}
	return rootCopy, nil
}

// MoveBefore places an action immediately before the reference action among
// the reference's siblings, renumbering that sibling list densely from 0.
// With a nil reference the action is appended to the end of its current
// sibling list (sort order max+1, no renumber).
func (s *ActionService) MoveBefore(ctx context.Context, projectID, id int64, refID *int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	q := s.queries.WithTx(tx)

	node, err := s.getProjectAction(ctx, q, projectID, id)
	if err != nil {
		return err
	}

	if refID == nil {
		var siblings []store.Action
		if node.ParentID.Valid {
			siblings, err = q.ListActionChildren(ctx, node.ParentID.Int64)
		} else {
			siblings, err = q.ListRootActions(ctx, projectID)
		}
		if err != nil {
			return err
		}
		if err := q.UpdateActionSortOrder(ctx, id, tree.NextSortOrder(sortOrders(siblings))); err != nil {
			return err
		}
		return tx.Commit()
	}

	ref, err := q.GetActionByID(ctx, *refID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: reference action %d", ErrNotFound, *refID)
		}
		return err
	}
	if ref.ProjectID != projectID {
		return fmt.Errorf("%w: reference action %d", ErrNotFound, *refID)
	}
	if !ref.ParentID.Valid {
		return ErrReferenceActionRoot
	}

	// Re-parenting under a descendant of the moved node would create a cycle.
	subtree, err := q.ListActionSubtree(ctx, id)
	if err != nil {
		return err
	}
	for _, row := range subtree {
		if row.ID == ref.ParentID.Int64 {
			return fmt.Errorf("%w: cannot move an action into its own subtree", ErrInvalidOperation)
		}
	}

	siblings, err := q.ListActionChildren(ctx, ref.ParentID.Int64)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(siblings)+1)
	for _, sib := range siblings {
		ids = append(ids, sib.ID)
	}
	ids = tree.InsertBefore(ids, id, refID)
	orders := tree.Renumber(ids)

	if err := q.UpdateActionPlacement(ctx, store.UpdateActionPlacementParams{
		ID:         id,
		ParentID:   ref.ParentID,
		SortOrder:  orders[id],
		ModifiedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	for _, sib := range siblings {
		if sib.ID == id {
			continue
		}
		if order := orders[sib.ID]; order != sib.SortOrder {
			if err := q.UpdateActionSortOrder(ctx, sib.ID, order); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Remove deletes an action and every descendant. Returns the number of rows
// removed.
func (s *ActionService) Remove(ctx context.Context, projectID, id int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	q := s.queries.WithTx(tx)

	if _, err := s.getProjectAction(ctx, q, projectID, id); err != nil {
		return 0, err
	}
	n, err := q.DeleteActionSubtree(ctx, id)
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// Tree returns the action with the given id as a materialized tree including
// all descendants.
func (s *ActionService) Tree(ctx context.Context, projectID, id int64) (*ActionNode, error) {
	rows, err := s.queries.ListActionSubtree(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: action %d", ErrNotFound, id)
	}
	roots := MaterializeTree(rows)
	for _, root := range roots {
		if root.ID == id {
			if root.ProjectID != projectID {
				return nil, fmt.Errorf("%w: action %d", ErrNotFound, id)
			}
			return root, nil
		}
	}
	return nil, fmt.Errorf("%w: action %d", ErrNotFound, id)
}

// Roots returns the full action forest of a project, materialized.
func (s *ActionService) Roots(ctx context.Context, projectID int64) ([]*ActionNode, error) {
	rows, err := s.queries.ListProjectActions(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return MaterializeTree(rows), nil
}

// CreateLink mints a new shareable link for an action, optionally bound to a
// contact and custom URI.
func (s *ActionService) CreateLink(ctx context.Context, projectID, actionID int64, contactID *int64, customURI string) (store.ActionLink, error) {
	if _, err := s.getProjectAction(ctx, s.queries, projectID, actionID); err != nil {
		return store.ActionLink{}, err
	}
	var contact sql.NullInt64
	if contactID != nil {
		contact = sql.NullInt64{Int64: *contactID, Valid: true}
	}
	return s.queries.CreateActionLink(ctx, store.CreateActionLinkParams{
		ID:        uuid.NewString(),
		ActionID:  actionID,
		ContactID: contact,
		CustomUri: customURI,
		CreatedAt: time.Now().UTC(),
	})
}

// GetByLink resolves a shareable link id to its link row and the materialized
// tree of the linked action.
func (s *ActionService) GetByLink(ctx context.Context, linkID string) (store.ActionLink, *ActionNode, error) {
	link, err := s.queries.GetActionLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ActionLink{}, nil, fmt.Errorf("%w: link %q", ErrNotFound, linkID)
		}
		return store.ActionLink{}, nil, err
	}
	rows, err := s.queries.ListActionSubtree(ctx, link.ActionID)
	if err != nil {
		return store.ActionLink{}, nil, err
	}
	if len(rows) == 0 {
		return store.ActionLink{}, nil, fmt.Errorf("%w: action %d", ErrNotFound, link.ActionID)
	}
	for _, root := range MaterializeTree(rows) {
		if root.ID == link.ActionID {
			return link, root, nil
		}
	}
	return store.ActionLink{}, nil, fmt.Errorf("%w: action %d", ErrNotFound, link.ActionID)
}

// MaterializeTree builds parent/child links from a flat row set by matching
// parent ids. Rows whose parent is outside the set become roots, so a subtree
// query materializes into a single root. Children stay in query order.
func MaterializeTree(rows []store.Action) []*ActionNode {
	nodes := make(map[int64]*ActionNode, len(rows))
	for _, row := range rows {
		nodes[row.ID] = &ActionNode{Action: row}
	}
	var roots []*ActionNode
	for _, row := range rows {
		node := nodes[row.ID]
		if row.ParentID.Valid {
			if parent, ok := nodes[row.ParentID.Int64]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func (s *ActionService) getProjectAction(ctx context.Context, q *store.Queries, projectID, id int64) (store.Action, error) {
	node, err := q.GetActionByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Action{}, fmt.Errorf("%w: action %d", ErrNotFound, id)
		}
		return store.Action{}, err
	}
	if node.ProjectID != projectID {
		return store.Action{}, fmt.Errorf("%w: action %d", ErrNotFound, id)
	}
	return node, nil
}

func sortOrders(actions []store.Action) []int64 {
	orders := make([]int64, len(actions))
	for i, a := range actions {
		orders[i] = a.SortOrder
	}
	return orders
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
