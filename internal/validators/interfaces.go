package validators

import "civicserve-backend/internal/models"

// CaseValidator checks create-case input before it is submitted upstream.
type CaseValidator interface {
	ValidateCreate(args *models.CreateCaseArgs) error
}
