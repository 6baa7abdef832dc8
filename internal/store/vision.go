package store

import (
	"context"

	"lifeplanner/internal/model"
)

func visionRowID(v *model.VisionItem) string { return v.ID }

// CreateVisionItem pins a quote or an image to the board.
func (s *Store) CreateVisionItem(ctx context.Context, item model.VisionItem) (model.VisionItem, error) {
	return insertRow(ctx, s, "create vision item", s.backend.VisionBoard(), item, &s.vision, visionRowID)
}

func (s *Store) UpdateVisionItem(ctx context.Context, id string, p model.VisionItemPatch) error {
	return updateRow[model.VisionItem](ctx, s, "update vision item", s.backend.VisionBoard(), id, p, &s.vision, visionRowID)
}

func (s *Store) DeleteVisionItem(ctx context.Context, id string) error {
	return deleteRow(ctx, s, "delete vision item", s.backend.VisionBoard(), id, &s.vision, visionRowID)
}
