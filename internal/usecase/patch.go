package usecase

import (
	"github.com/optira-energie/comparateur-api/internal/entity"
)

// ProspectPatch is the typed partial update sent by the funnel after each
// step. Nil fields leave the stored value alone; meter lists replace as a
// whole (the client always sends the full list for the step). Applying the
// same patch twice yields the same state.
type ProspectPatch struct {
	Contact *ContactPatch `json:"contact,omitempty"`
	Company *CompanyPatch `json:"company,omitempty"`
	Energy  *EnergyPatch  `json:"energy,omitempty"`

	ElectricityMeters *[]entity.ElectricityMeter `json:"electricityMeters,omitempty"`
	GasMeters         *[]entity.GasMeter         `json:"gasMeters,omitempty"`

	Consents *ConsentsPatch `json:"consents,omitempty"`
}

type ContactPatch struct {
	Civility    *string `json:"civility,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	ContactName *string `json:"contactName,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

type CompanyPatch struct {
	SirenNumber   *string `json:"sirenNumber,omitempty"`
	Name          *string `json:"name,omitempty"`
	Address       *string `json:"address,omitempty"`
	EmployeeCount *string `json:"employeeCount,omitempty"`
	ActivityType  *string `json:"activityType,omitempty"`
}

type EnergyPatch struct {
	ConcurrenceReason      *string `json:"concurrenceReason,omitempty"`
	ElectricityConsumption *string `json:"electricityConsumption,omitempty"`
	GasConsumption         *string `json:"gasConsumption,omitempty"`
	CurrentProvider        *string `json:"currentProvider,omitempty"`
	ContractType           *string `json:"contractType,omitempty"`
	BudgetRange            *string `json:"budgetRange,omitempty"`
	GreenEnergy            *bool   `json:"greenEnergy,omitempty"`
	HasInvoices            *bool   `json:"hasInvoices,omitempty"`
	ElectricityPower       *string `json:"electricityPower,omitempty"`
	ElectricityServiceDate *string `json:"electricityServiceDate,omitempty"`
	GasConsumptionRange    *string `json:"gasConsumptionRange,omitempty"`
	GasServiceDate         *string `json:"gasServiceDate,omitempty"`
}

type ConsentsPatch struct {
	DataProcessing    *bool `json:"dataProcessing,omitempty"`
	CommercialContact *bool `json:"commercialContact,omitempty"`
	PartnerSharing    *bool `json:"partnerSharing,omitempty"`
}

// Apply deep-merges the patch into the prospect, in place. Merge, don't
// overwrite: untouched sections and fields keep their stored values.
func (patch ProspectPatch) Apply(p *entity.Prospect) {
	if c := patch.Contact; c != nil {
		setString(&p.Contact.Civility, c.Civility)
		setString(&p.Contact.FirstName, c.FirstName)
		setString(&p.Contact.LastName, c.LastName)
		setString(&p.Contact.ContactName, c.ContactName)
		setString(&p.Contact.Email, c.Email)
		setString(&p.Contact.Phone, c.Phone)
	}

	if c := patch.Company; c != nil {
		setString(&p.Company.SirenNumber, c.SirenNumber)
		setString(&p.Company.Name, c.Name)
		setString(&p.Company.Address, c.Address)
		setString(&p.Company.EmployeeCount, c.EmployeeCount)
		setString(&p.Company.ActivityType, c.ActivityType)
	}

	if e := patch.Energy; e != nil {
		setString(&p.Energy.ConcurrenceReason, e.ConcurrenceReason)
		setString(&p.Energy.ElectricityConsumption, e.ElectricityConsumption)
		setString(&p.Energy.GasConsumption, e.GasConsumption)
		setString(&p.Energy.CurrentProvider, e.CurrentProvider)
		setString(&p.Energy.ContractType, e.ContractType)
		setString(&p.Energy.BudgetRange, e.BudgetRange)
		setBool(&p.Energy.GreenEnergy, e.GreenEnergy)
		if e.HasInvoices != nil {
			v := *e.HasInvoices
			p.Energy.HasInvoices = &v
		}
		setString(&p.Energy.ElectricityPower, e.ElectricityPower)
		setString(&p.Energy.ElectricityServiceDate, e.ElectricityServiceDate)
		setString(&p.Energy.GasConsumptionRange, e.GasConsumptionRange)
		setString(&p.Energy.GasServiceDate, e.GasServiceDate)
	}

	if patch.ElectricityMeters != nil {
		p.ElectricityMeters = append([]entity.ElectricityMeter{}, (*patch.ElectricityMeters)...)
	}
	if patch.GasMeters != nil {
		p.GasMeters = append([]entity.GasMeter{}, (*patch.GasMeters)...)
	}

	if c := patch.Consents; c != nil {
		setBool(&p.Consents.DataProcessing, c.DataProcessing)
		setBool(&p.Consents.CommercialContact, c.CommercialContact)
		setBool(&p.Consents.PartnerSharing, c.PartnerSharing)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
