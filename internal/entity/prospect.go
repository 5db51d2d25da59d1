package entity

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ProspectStatus string

const (
	StatusDraft     ProspectStatus = "draft"
	StatusNew       ProspectStatus = "new"
	StatusContacted ProspectStatus = "contacted"
	StatusConverted ProspectStatus = "converted"
	StatusLost      ProspectStatus = "lost"
)

// Back-office transitions. The funnel itself only ever produces draft -> new.
func (s ProspectStatus) IsBackOffice() bool {
	return s == StatusContacted || s == StatusConverted || s == StatusLost
}

const (
	ActivityElectricity = "electricite"
	ActivityGas         = "gaz"
	ActivityDual        = "dual"
)

const (
	ReasonSwitchProvider = "changement-fournisseur"
	ReasonMoveInExisting = "emmenagement-existant"
	ReasonMoveInNewMeter = "emmenagement-neuf"
)

const TotalSteps = 6

// Value Object: Contact
type Contact struct {
	Civility    string `json:"civility,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	ContactName string `json:"contactName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Value Object: Company (identity from the SIREN registry)
type Company struct {
	SirenNumber   string `json:"sirenNumber,omitempty"`
	Name          string `json:"name,omitempty"`
	Address       string `json:"address,omitempty"`
	EmployeeCount string `json:"employeeCount,omitempty"`
	ActivityType  string `json:"activityType,omitempty"`
}

// Value Object: Energy needs collected across steps 3 and 5
type Energy struct {
	ConcurrenceReason      string `json:"concurrenceReason,omitempty"`
	ElectricityConsumption string `json:"electricityConsumption,omitempty"`
	GasConsumption         string `json:"gasConsumption,omitempty"`
	CurrentProvider        string `json:"currentProvider,omitempty"`
	ContractType           string `json:"contractType,omitempty"`
	BudgetRange            string `json:"budgetRange,omitempty"`
	GreenEnergy            bool   `json:"greenEnergy,omitempty"`
	HasInvoices            *bool  `json:"hasInvoices,omitempty"`

	// Mise en service, only relevant for ReasonMoveInNewMeter
	ElectricityPower       string `json:"electricityPower,omitempty"`
	ElectricityServiceDate string `json:"electricityServiceDate,omitempty"`
	GasConsumptionRange    string `json:"gasConsumptionRange,omitempty"`
	GasServiceDate         string `json:"gasServiceDate,omitempty"`
}

type ElectricityMeter struct {
	ID     string `json:"id"`
	PDL    string `json:"pdl,omitempty"`
	NoData bool   `json:"noData"`
}

type GasMeter struct {
	ID     string `json:"id"`
	PCE    string `json:"pce,omitempty"`
	NoData bool   `json:"noData"`
}

// Filled: a meter counts once its delivery-point number is usable (>= 3
// chars after trim) or the prospect declared they have no number.
func (m ElectricityMeter) Filled() bool { return meterFilled(m.PDL, m.NoData) }
func (m GasMeter) Filled() bool         { return meterFilled(m.PCE, m.NoData) }

func meterFilled(number string, noData bool) bool {
	return noData || len(strings.TrimSpace(number)) >= 3
}

type FileDescriptor struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
	FileSize   int64     `json:"fileSize"`
	MimeType   string    `json:"mimeType"`
	Category   string    `json:"category,omitempty"`
}

type Documents struct {
	ElectricityBills []FileDescriptor `json:"electricityBills"`
	GasBills         []FileDescriptor `json:"gasBills"`
	OtherDocuments   []FileDescriptor `json:"otherDocuments"`
}

func (d Documents) Count() int {
	return len(d.ElectricityBills) + len(d.GasBills) + len(d.OtherDocuments)
}

// DocumentCategory is the blob-store path segment for each list.
type DocumentCategory string

const (
	CategoryElectricityBills DocumentCategory = "electricity-bills"
	CategoryGasBills         DocumentCategory = "gas-bills"
	CategoryOtherDocuments   DocumentCategory = "documents"
)

func (c DocumentCategory) Valid() bool {
	return c == CategoryElectricityBills || c == CategoryGasBills || c == CategoryOtherDocuments
}

// ListKey is the JSON key of the matching list inside Documents.
func (c DocumentCategory) ListKey() string {
	switch c {
	case CategoryElectricityBills:
		return "electricityBills"
	case CategoryGasBills:
		return "gasBills"
	default:
		return "otherDocuments"
	}
}

func (d Documents) List(c DocumentCategory) []FileDescriptor {
	switch c {
	case CategoryElectricityBills:
		return d.ElectricityBills
	case CategoryGasBills:
		return d.GasBills
	default:
		return d.OtherDocuments
	}
}

type Consents struct {
	DataProcessing    bool       `json:"dataProcessing"`
	CommercialContact bool       `json:"commercialContact"`
	PartnerSharing    bool       `json:"partnerSharing"`
	ConsentDate       *time.Time `json:"consentDate,omitempty"`
	IPAddress         string     `json:"ipAddress,omitempty"`
}

// Analytics is write-only telemetry, no invariants.
type Analytics struct {
	SessionID   string           `json:"sessionId,omitempty"`
	UserAgent   string           `json:"userAgent,omitempty"`
	Referrer    string           `json:"referrer,omitempty"`
	TimeSpent   int64            `json:"timeSpent,omitempty"`
	StepTimings map[string]int64 `json:"stepTimings"`
}

// Prospect, one document per funnel attempt
type Prospect struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Status         ProspectStatus `json:"status"`
	Source         string         `json:"source"`
	CurrentStep    int            `json:"currentStep"`
	CompletionRate int            `json:"completionRate"`

	Contact Contact `json:"contact"`
	Company Company `json:"company"`
	Energy  Energy  `json:"energy"`

	ElectricityMeters []ElectricityMeter `json:"electricityMeters"`
	GasMeters         []GasMeter         `json:"gasMeters"`

	Documents Documents `json:"documents"`
	Consents  Consents  `json:"consents"`
	Analytics Analytics `json:"analytics"`
}

// Factory
func NewProspect(userAgent, referrer string) *Prospect {
	now := time.Now()
	return &Prospect{
		ID:             uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
		Status:         StatusDraft,
		Source:         "comparateur_web",
		CurrentStep:    1,
		CompletionRate: 0,
		ElectricityMeters: []ElectricityMeter{},
		GasMeters:         []GasMeter{},
		Documents: Documents{
			ElectricityBills: []FileDescriptor{},
			GasBills:         []FileDescriptor{},
			OtherDocuments:   []FileDescriptor{},
		},
		Analytics: Analytics{
			UserAgent:   userAgent,
			Referrer:    referrer,
			StepTimings: map[string]int64{},
		},
	}
}

// CompletionRateFor derives the rate from a step number. There is no other
// mutation path for CompletionRate.
func CompletionRateFor(step int) int {
	return int(math.Round(float64(step) / float64(TotalSteps) * 100))
}

func (p *Prospect) Finalized() bool {
	return p.Status != StatusDraft
}

// UsesElectricity / UsesGas: which meter sections apply for the chosen
// activity type.
func (p *Prospect) UsesElectricity() bool {
	return p.Company.ActivityType == ActivityElectricity || p.Company.ActivityType == ActivityDual
}

func (p *Prospect) UsesGas() bool {
	return p.Company.ActivityType == ActivityGas || p.Company.ActivityType == ActivityDual
}

type ProspectRepositoryInterface interface {
	Create(ctx context.Context, p *Prospect) error
	FindByID(ctx context.Context, id string) (*Prospect, error)
	// Save persists the merged sections plus step/rate/status columns. It
	// never touches the document lists; those go through AppendDocument /
	// RemoveDocument so a concurrent upload cannot be clobbered.
	Save(ctx context.Context, p *Prospect) error
	Delete(ctx context.Context, id string) error
	AppendDocument(ctx context.Context, id string, category DocumentCategory, fd FileDescriptor) error
	RemoveDocument(ctx context.Context, id string, category DocumentCategory, fileID string) error
	List(ctx context.Context, limit int) ([]*Prospect, error)
	UpdateStatus(ctx context.Context, id string, status ProspectStatus) error
}
