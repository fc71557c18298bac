package inference

import "github.com/JeffersonLab/rfClassifier/pkg/models"

var (
	ErrEngineUnavailable = models.ErrEngineUnavailable
	ErrInferenceTimeout  = models.ErrInferenceTimeout
	ErrShapeMismatch     = models.ErrShapeMismatch
	ErrInvalidResponse   = models.ErrInvalidResponse
)
