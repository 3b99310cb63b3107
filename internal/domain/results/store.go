package results

import (
	"context"
	"errors"

	"schoolops/internal/platform/docstore"
)

const (
	KindReportCards docstore.Kind = "report_cards"
	KindSettings    docstore.Kind = "settings"

	gradingScaleID = "grading_scale"
)

// loadScale returns the configured scale and whether one exists.
func loadScale(ctx context.Context, r docstore.Reader) (GradingScale, bool, error) {
	scale, err := docstore.Load[GradingScale](ctx, r, KindSettings, gradingScaleID)
	if errors.Is(err, docstore.ErrNotFound) {
		return GradingScale{}, false, nil
	}
	if err != nil {
		return GradingScale{}, false, err
	}
	return scale, len(scale.Bands) > 0, nil
}
