package access

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CascadeSetDeleted moves a folder and its entire subtree in or out of
// the trash. Write access is checked on the target folder only; the
// subtree shares its owner, so one check covers it.
//
// Per node the order is media first, then children, the node itself
// last: a crash mid-cascade never leaves a live folder whose content
// has already vanished into the trash. The whole operation is
// idempotent because the stores skip documents already in the target
// state.
func (e *Engine) CascadeSetDeleted(ctx context.Context, folderID, userID primitive.ObjectID, deleted bool) error {
	grant, err := e.Resolve(ctx, &folderID, userID)
	if err != nil {
		return err
	}
	if !grant.Role.CanWrite() {
		return ErrAccessDenied
	}

	type frame struct {
		id       primitive.ObjectID
		expanded bool
	}

	stack := []frame{{id: folderID}}
	visited := map[primitive.ObjectID]bool{folderID: true}
	var touched int

	for len(stack) > 0 {
		top := len(stack) - 1
		current := stack[top]

		if current.expanded {
			stack = stack[:top]
			if err := e.folders.SetDeleted(ctx, current.id, deleted); err != nil {
				return fmt.Errorf("updating folder %s: %w", current.id.Hex(), err)
			}
			touched++
			continue
		}
		stack[top].expanded = true

		if _, err := e.media.SetDeletedByFolder(ctx, current.id, deleted); err != nil {
			return fmt.Errorf("updating media in folder %s: %w", current.id.Hex(), err)
		}

		children, err := e.folders.ChildIDs(ctx, current.id)
		if err != nil {
			return fmt.Errorf("listing children of %s: %w", current.id.Hex(), err)
		}
		for _, child := range children {
			// visited guards against a corrupt parent chain looping.
			if !visited[child] {
				visited[child] = true
				stack = append(stack, frame{id: child})
			}
		}
	}

	e.logger.Info("cascade applied",
		zap.String("folder_id", folderID.Hex()),
		zap.Bool("deleted", deleted),
		zap.Int("folders", touched))
	return nil
}
