package validators

import (
	"strings"

	"civicserve-backend/internal/errors"
	"civicserve-backend/internal/models"
)

type caseValidator struct{}

func NewCaseValidator() CaseValidator {
	return &caseValidator{}
}

func (v *caseValidator) ValidateCreate(args *models.CreateCaseArgs) error {
	if strings.TrimSpace(args.ServiceCode) == "" {
		return errors.NewValidationError("service code is required")
	}
	if args.Email != "" && !strings.Contains(args.Email, "@") {
		return errors.NewValidationError("email address %q is not valid", args.Email)
	}
	return nil
}
