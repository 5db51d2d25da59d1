package usecase

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/optira-energie/comparateur-api/internal/entity"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors carries every missing-field message for a step so the
// funnel can show them all, not just "invalid".
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// ValidateStep checks the per-step predicate against the merged record.
// An empty result means the forward transition is permitted.
func ValidateStep(p *entity.Prospect, step int) ValidationErrors {
	var errs ValidationErrors

	switch step {
	case 1:
		if strings.TrimSpace(p.Company.SirenNumber) == "" {
			errs = append(errs, ValidationError{"company.sirenNumber", "Le numéro SIREN est obligatoire"})
		}
		if strings.TrimSpace(p.Company.Name) == "" {
			errs = append(errs, ValidationError{"company.name", "Le nom de l'entreprise est obligatoire"})
		}

	case 2:
		if p.Company.ActivityType == "" {
			errs = append(errs, ValidationError{"company.activityType", "Veuillez sélectionner un type d'énergie"})
		}

	case 3:
		if p.Energy.ConcurrenceReason == "" {
			errs = append(errs, ValidationError{"energy.concurrenceReason", "Veuillez sélectionner la raison de la mise en concurrence"})
		}

	case 4:
		for _, m := range p.ElectricityMeters {
			if !m.Filled() {
				errs = append(errs, ValidationError{"electricityMeters", "Veuillez renseigner les numéros PDL ou cocher 'Je ne dispose pas de mon Point de Livraison'"})
				break
			}
		}
		for _, m := range p.GasMeters {
			if !m.Filled() {
				errs = append(errs, ValidationError{"gasMeters", "Veuillez renseigner les numéros PCE ou cocher 'Je ne dispose pas de mon Point d'Estimation et de Comptage'"})
				break
			}
		}
		if p.Energy.HasInvoices != nil && *p.Energy.HasInvoices && p.Documents.Count() == 0 {
			errs = append(errs, ValidationError{"documents", "Veuillez téléverser vos factures ou cocher 'Je ne dispose pas de mes factures'"})
		}

	case 5:
		// Only checked for a brand-new meter; otherwise the step is skipped.
		if p.Energy.ConcurrenceReason != entity.ReasonMoveInNewMeter {
			return nil
		}
		if p.UsesElectricity() {
			if p.Energy.ElectricityPower == "" {
				errs = append(errs, ValidationError{"energy.electricityPower", "Veuillez sélectionner la puissance électrique"})
			}
			if p.Energy.ElectricityServiceDate == "" {
				errs = append(errs, ValidationError{"energy.electricityServiceDate", "Veuillez indiquer la date de mise en service électrique"})
			}
		}
		if p.UsesGas() {
			if p.Energy.GasConsumptionRange == "" {
				errs = append(errs, ValidationError{"energy.gasConsumptionRange", "Veuillez sélectionner la consommation annuelle de gaz"})
			}
			if p.Energy.GasServiceDate == "" {
				errs = append(errs, ValidationError{"energy.gasServiceDate", "Veuillez indiquer la date de mise en service gaz"})
			}
		}

	case 6:
		if p.Contact.Civility == "" {
			errs = append(errs, ValidationError{"contact.civility", "Veuillez sélectionner votre civilité"})
		}
		if strings.TrimSpace(p.Contact.FirstName) == "" {
			errs = append(errs, ValidationError{"contact.firstName", "Le prénom est obligatoire"})
		}
		if strings.TrimSpace(p.Contact.LastName) == "" {
			errs = append(errs, ValidationError{"contact.lastName", "Le nom est obligatoire"})
		}
		if strings.TrimSpace(p.Contact.Email) == "" {
			errs = append(errs, ValidationError{"contact.email", "L'email est obligatoire"})
		} else if _, err := mail.ParseAddress(p.Contact.Email); err != nil {
			errs = append(errs, ValidationError{"contact.email", "L'email est invalide"})
		}
		if strings.TrimSpace(p.Contact.Phone) == "" {
			errs = append(errs, ValidationError{"contact.phone", "Le téléphone est obligatoire"})
		}
		if !p.Consents.DataProcessing {
			errs = append(errs, ValidationError{"consents.dataProcessing", "Veuillez accepter les conditions pour continuer"})
		}
	}

	return errs
}

// NextStep computes the forward transition. 1 through 4 are sequential;
// from 4 the service-activation step only exists for a brand-new meter,
// every other reason jumps straight to the contact step. 6 is terminal.
func NextStep(p *entity.Prospect, current int) int {
	switch {
	case current == 4:
		if p.Energy.ConcurrenceReason == entity.ReasonMoveInNewMeter {
			return 5
		}
		return 6
	case current >= entity.TotalSteps:
		return entity.TotalSteps
	default:
		return current + 1
	}
}

// PrevStep inverts the same branching.
func PrevStep(p *entity.Prospect, current int) int {
	switch {
	case current == 6:
		if p.Energy.ConcurrenceReason == entity.ReasonMoveInNewMeter {
			return 5
		}
		return 4
	case current == 5:
		return 4
	case current <= 1:
		return 1
	default:
		return current - 1
	}
}
