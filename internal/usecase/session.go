package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/optira-energie/comparateur-api/internal/entity"
	"github.com/optira-energie/comparateur-api/internal/infra/queue"
)

// ProspectSessionUseCase is the single source of truth for one Prospect
// across the funnel's lifetime in a browser session.
type ProspectSessionUseCase struct {
	Repo     entity.ProspectRepositoryInterface
	Sessions SessionStoreInterface
	Queue    QueueProducerInterface

	guard *creationGuard
}

func NewProspectSessionUseCase(
	repo entity.ProspectRepositoryInterface,
	sessions SessionStoreInterface,
	producer QueueProducerInterface,
) *ProspectSessionUseCase {
	return &ProspectSessionUseCase{
		Repo:     repo,
		Sessions: sessions,
		Queue:    producer,
		guard:    newCreationGuard(),
	}
}

type CreateProspectInput struct {
	SessionID string
	UserAgent string
	Referrer  string
}

type CreateProspectOutput struct {
	ProspectID string `json:"id"`
	Created    bool   `json:"-"`
}

// Create inserts a fresh draft prospect, at most once per funnel session.
// Concurrent calls for the same session collapse onto one insert; callers
// arriving after a success observe the existing id.
func (uc *ProspectSessionUseCase) Create(ctx context.Context, input CreateProspectInput) (*CreateProspectOutput, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, &DomainError{Code: "MISSING_SESSION", Message: "session id is required"}
	}

	id, created, err := uc.guard.Do(input.SessionID, func() (string, bool, error) {
		return uc.createForSession(ctx, input)
	})
	if err != nil {
		return nil, err
	}

	return &CreateProspectOutput{ProspectID: id, Created: created}, nil
}

func (uc *ProspectSessionUseCase) createForSession(ctx context.Context, input CreateProspectInput) (string, bool, error) {
	// Another instance may already own this session.
	if existing, err := uc.Sessions.Find(ctx, input.SessionID); err != nil {
		return "", false, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to look up session: " + err.Error()}
	} else if existing != "" {
		return existing, false, nil
	}

	p := entity.NewProspect(input.UserAgent, input.Referrer)
	p.Analytics.SessionID = input.SessionID
	if err := uc.Repo.Create(ctx, p); err != nil {
		return "", false, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to create prospect: " + err.Error()}
	}

	winner, err := uc.Sessions.Claim(ctx, input.SessionID, p.ID)
	if err != nil {
		return "", false, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to claim session: " + err.Error()}
	}
	if winner != p.ID {
		// Lost a cross-instance race; drop our draft so the session keeps
		// exactly one prospect document.
		if derr := uc.Repo.Delete(ctx, p.ID); derr != nil {
			log.Printf("could not remove losing draft %s: %v", p.ID, derr)
		}
		return winner, false, nil
	}

	log.Printf("prospect created: %s (session %s)", p.ID, input.SessionID)
	return p.ID, true, nil
}

// ResetSession clears the guard and the session mapping so the next Create
// starts a brand-new funnel attempt.
func (uc *ProspectSessionUseCase) ResetSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return &DomainError{Code: "MISSING_SESSION", Message: "session id is required"}
	}
	if err := uc.Sessions.Release(ctx, sessionID); err != nil {
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to release session: " + err.Error()}
	}
	uc.guard.Reset(sessionID)
	return nil
}

// Get is a point read. Not-found is a normal outcome (stale or tampered id
// in a shared link) and surfaces as entity.ErrProspectNotFound.
func (uc *ProspectSessionUseCase) Get(ctx context.Context, id string) (*entity.Prospect, error) {
	return uc.Repo.FindByID(ctx, id)
}

type UpdateStepOutput struct {
	Prospect *entity.Prospect `json:"prospect"`
	NextStep int              `json:"nextStep"`
}

// UpdateStep merges the typed patch into the stored record, re-validates
// the submitted step server-side, advances currentStep and the derived
// completion rate, and stamps the per-step timing marker. Applying the
// same patch twice yields the same final state.
func (uc *ProspectSessionUseCase) UpdateStep(ctx context.Context, id string, patch ProspectPatch, step int) (*UpdateStepOutput, error) {
	if step < 1 || step > entity.TotalSteps {
		return nil, &DomainError{Code: "INVALID_STEP", Message: fmt.Sprintf("step %d is out of range", step)}
	}

	p, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrProspectNotFound) {
			// An update without a prior create is a programming error in the
			// caller; fail loudly rather than losing the step silently.
			log.Printf("update for unknown prospect %s", id)
		}
		return nil, err
	}
	if p.Finalized() {
		return nil, &DomainError{Code: "ALREADY_FINALIZED", Message: "prospect is already submitted"}
	}

	patch.Apply(p)

	if errs := ValidateStep(p, step); len(errs) > 0 {
		return nil, errs
	}

	now := time.Now()
	p.CurrentStep = step
	if rate := entity.CompletionRateFor(step); rate > p.CompletionRate {
		p.CompletionRate = rate
	}
	p.UpdatedAt = now
	if p.Analytics.StepTimings == nil {
		p.Analytics.StepTimings = map[string]int64{}
	}
	p.Analytics.StepTimings[fmt.Sprintf("step%d", step)] = now.UnixMilli()

	if err := uc.Repo.Save(ctx, p); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to save step: " + err.Error()}
	}

	return &UpdateStepOutput{Prospect: p, NextStep: NextStep(p, step)}, nil
}

// Finalize applies the last patch, re-checks the contact and consent
// predicate, promotes the prospect to "new" and hands it to the queue.
func (uc *ProspectSessionUseCase) Finalize(ctx context.Context, id string, patch ProspectPatch, clientIP string) (*entity.Prospect, error) {
	p, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Finalized() {
		return nil, &DomainError{Code: "ALREADY_FINALIZED", Message: "prospect is already submitted"}
	}

	patch.Apply(p)

	if errs := ValidateStep(p, entity.TotalSteps); len(errs) > 0 {
		return nil, errs
	}

	now := time.Now()
	p.Status = entity.StatusNew
	p.CurrentStep = entity.TotalSteps
	p.CompletionRate = 100
	p.UpdatedAt = now
	p.Consents.ConsentDate = &now
	p.Consents.IPAddress = clientIP
	p.Analytics.TimeSpent = now.Sub(p.CreatedAt).Milliseconds()
	if p.Analytics.StepTimings == nil {
		p.Analytics.StepTimings = map[string]int64{}
	}
	p.Analytics.StepTimings[fmt.Sprintf("step%d", entity.TotalSteps)] = now.UnixMilli()

	if err := uc.Repo.Save(ctx, p); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to finalize prospect: " + err.Error()}
	}

	if uc.Queue != nil {
		payload := queue.LeadSubmittedPayload{
			ProspectID:     p.ID,
			CompanyName:    p.Company.Name,
			SirenNumber:    p.Company.SirenNumber,
			ActivityType:   p.Company.ActivityType,
			ContactName:    strings.TrimSpace(p.Contact.FirstName + " " + p.Contact.LastName),
			Email:          p.Contact.Email,
			Phone:          p.Contact.Phone,
			CompletionRate: p.CompletionRate,
			SubmittedAt:    now,
		}
		if err := uc.Queue.PublishLeadSubmitted(ctx, payload); err != nil {
			// The lead is saved; the notification is best effort.
			log.Printf("could not publish lead %s: %v", p.ID, err)
		}
	}

	log.Printf("prospect finalized: %s", p.ID)
	return p, nil
}
