package classify

import (
	"github.com/JeffersonLab/rfClassifier/pkg/event"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// Assemble builds the public record for a classified event.
func Assemble(id event.Identity, d Decision, model string) *models.AnalysisResult {
	return &models.AnalysisResult{
		Location:         id.Zone,
		Timestamp:        id.Timestamp(),
		CavityLabel:      d.CavityLabel,
		CavityConfidence: d.CavityConfidence,
		FaultLabel:       d.FaultLabel,
		FaultConfidence:  d.FaultConfidence,
		Model:            model,
	}
}
