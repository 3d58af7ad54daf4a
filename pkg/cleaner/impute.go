// pkg/cleaner/impute.go
package cleaner

import (
	"go.uber.org/zap"

	"github.com/David-Botos/census-ingress/pkg/model"
)

// ImputeGender fills a missing gender count from TotalPop minus the other
// count. Female is filled first; the male mask is evaluated afterwards, so a
// row with both counts missing stays missing. The table is updated in place.
func (c *DataCleaner) ImputeGender(t *model.Table) (*model.Table, model.ImputationResult) {
	var result model.ImputationResult

	if !t.HasColumn(model.ColumnMale) || !t.HasColumn(model.ColumnFemale) {
		c.logger.Warn("Gender columns absent, skipping imputation",
			zap.String("male", model.ColumnMale),
			zap.String("female", model.ColumnFemale))
		result.Skipped = true
		return t, result
	}

	femaleMask := c.missingMask(t, model.ColumnFemale, model.ColumnMale)
	result.FemaleImputed = c.fillFromTotal(t, femaleMask, model.ColumnFemale, model.ColumnMale)

	result.MissingAfterFill = t.CountMissing(model.ColumnMale) + t.CountMissing(model.ColumnFemale)
	c.logger.Info("Gender values still missing after female imputation",
		zap.Int("missing", result.MissingAfterFill),
		zap.Int("femaleImputed", result.FemaleImputed))

	maleMask := c.missingMask(t, model.ColumnMale, model.ColumnFemale)
	result.MaleImputed = c.fillFromTotal(t, maleMask, model.ColumnMale, model.ColumnFemale)

	result.RemainingMissing = t.CountMissing(model.ColumnMale) + t.CountMissing(model.ColumnFemale)
	c.logger.Info("Imputed gender counts",
		zap.Int("femaleImputed", result.FemaleImputed),
		zap.Int("maleImputed", result.MaleImputed),
		zap.Int("remainingMissing", result.RemainingMissing))

	return t, result
}

// missingMask marks rows where target is missing and known is present
func (c *DataCleaner) missingMask(t *model.Table, target, known string) []bool {
	mask := make([]bool, t.Len())
	for i := range mask {
		mask[i] = model.IsMissing(t.Value(i, target)) && !model.IsMissing(t.Value(i, known))
	}
	return mask
}

// fillFromTotal sets target := total - known on masked rows only and
// returns how many received a value. A missing total yields NaN.
func (c *DataCleaner) fillFromTotal(t *model.Table, mask []bool, target, known string) int {
	filled := 0
	for i, apply := range mask {
		if !apply {
			continue
		}
		value := toFloat(t.Value(i, c.config.TotalColumn)) - toFloat(t.Value(i, known))
		t.SetValue(i, target, value)

		reason := target + "_from_total_population"
		if isMissingFloat(value) {
			reason = "total_population_missing"
		} else {
			filled++
		}
		c.record(t, i, target, nil, toString(value), model.OperationGenderImputation, reason)
	}
	return filled
}
