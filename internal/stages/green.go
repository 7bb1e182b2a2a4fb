package stages

import (
	"fmt"

	"github.com/rewired-gh/sigsplit/internal/models"
)

// GreenSubStages designates, for every stage, the sub-stages whose indicator
// equals symbol, in table order. Every stage must receive at least one
// sub-stage.
func GreenSubStages(table *models.StageTable, symbol models.Indicator) (models.GreenSet, error) {
	if !symbol.IsGreenSymbol() {
		return nil, models.NewConfigError("green_symbol", "%q is not a green symbol (want g or G)", symbol.String())
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stage table: %w", err)
	}

	greens := make(models.GreenSet, len(table.Stages))
	for col, stage := range table.Stages {
		for _, row := range table.Rows {
			if row.Indicators[col] == symbol {
				greens[stage] = append(greens[stage], row.SubStageID)
			}
		}
	}

	if err := greens.Validate(table.Stages); err != nil {
		return nil, fmt.Errorf("green symbol %s: %w", symbol, err)
	}
	return greens, nil
}
