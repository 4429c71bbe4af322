package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cookbook/internal/common"
	"github.com/dmitrijs2005/cookbook/internal/dbx"
	"github.com/dmitrijs2005/cookbook/internal/server/models"
	"github.com/dmitrijs2005/cookbook/internal/server/repositories/repomanager"
)

// StepSource supplies the ordered instructions of an external recipe.
type StepSource interface {
	AnalyzedSteps(ctx context.Context, recipeID int64) ([]models.ExternalStep, error)
}

// StepService is the only code allowed to change step numbering. Every
// operation runs in one transaction holding the recipe's advisory lock, and
// same-recipe operations are serialized in-process as well, so step numbers
// stay 1..N and each acting user's progress covers exactly those numbers.
type StepService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	owners      *Owners
	source      StepSource
	locks       *refLocks
}

func NewStepService(db *sql.DB, m repomanager.RepositoryManager, source StepSource) *StepService {
	return &StepService{
		db:          db,
		repomanager: m,
		owners:      NewOwners(m),
		source:      source,
		locks:       newRefLocks(),
	}
}

// withRecipe runs fn in a transaction that holds ref's locks.
func (s *StepService) withRecipe(ctx context.Context, ref models.RecipeRef, fn dbx.TxFunc) error {
	unlock := s.locks.Lock(ref)
	defer unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Locks(tx).LockRecipe(ctx, ref); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func localOnly(ref models.RecipeRef) error {
	if ref.Kind == models.KindExternal {
		return fmt.Errorf("steps of external recipe %s are read-only: %w", ref, common.ErrorInvalidArgument)
	}
	return nil
}

func cleanDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("empty step description: %w", common.ErrorInvalidArgument)
	}
	return description, nil
}

// AddStep inserts a step at number, clamped to one past the last step, and
// moves the step that held number and everything after it one place down.
func (s *StepService) AddStep(ctx context.Context, ref models.RecipeRef, number int, description string, userID int64) (step *models.Step, err error) {
	ctx, span := startSpan(ctx, "steps.AddStep", ref)
	defer func() { endSpan(span, err) }()

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	if number <= 0 {
		return nil, fmt.Errorf("step number %d: %w", number, common.ErrorInvalidArgument)
	}
	if description, err = cleanDescription(description); err != nil {
		return nil, err
	}
	if err := localOnly(ref); err != nil {
		return nil, err
	}

	err = s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}

		stepRepo := s.repomanager.Steps(tx)
		progressRepo := s.repomanager.Progress(tx)

		last, err := stepRepo.MaxNumber(ctx, ref)
		if err != nil {
			return err
		}
		number = min(number, last+1)

		// Steps move before progress so progress never points at a vacated number.
		if number <= last {
			if err := stepRepo.ShiftForward(ctx, ref, number); err != nil {
				return err
			}
			if err := progressRepo.ShiftForward(ctx, ref, number); err != nil {
				return err
			}
		}

		if step, err = stepRepo.Append(ctx, ref, number, description); err != nil {
			return err
		}
		if err := progressRepo.Initialize(ctx, userID, ref, number); err != nil {
			return err
		}

		_, err = s.ensureProgress(ctx, tx, userID, ref, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// DeleteStep removes a step and closes the gap. The last remaining step of a
// recipe cannot be deleted.
func (s *StepService) DeleteStep(ctx context.Context, stepID, userID int64) (err error) {
	found, err := s.repomanager.Steps(s.db).Get(ctx, stepID)
	if err != nil {
		return fmt.Errorf("step %d: %w", stepID, err)
	}
	ref := found.Recipe

	ctx, span := startSpan(ctx, "steps.DeleteStep", ref)
	defer func() { endSpan(span, err) }()

	return s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		stepRepo := s.repomanager.Steps(tx)
		progressRepo := s.repomanager.Progress(tx)

		// Re-read under the lock: a concurrent add or delete may have moved it.
		step, err := stepRepo.Get(ctx, stepID)
		if err != nil {
			return fmt.Errorf("step %d: %w", stepID, err)
		}
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}

		last, err := stepRepo.MaxNumber(ctx, ref)
		if err != nil {
			return err
		}
		if last <= 1 {
			return fmt.Errorf("recipe %s must keep at least one step: %w", ref, common.ErrorInvalidState)
		}

		if err := stepRepo.Delete(ctx, step.ID); err != nil {
			return err
		}
		if err := progressRepo.DeleteAt(ctx, ref, step.Number); err != nil {
			return err
		}
		if err := stepRepo.ShiftBackward(ctx, ref, step.Number); err != nil {
			return err
		}
		if err := progressRepo.ShiftBackward(ctx, ref, step.Number); err != nil {
			return err
		}

		_, err = s.ensureProgress(ctx, tx, userID, ref, nil)
		return err
	})
}

// EditDescription changes the text of a step. The number cannot be changed
// this way.
func (s *StepService) EditDescription(ctx context.Context, stepID int64, description string, userID int64) (step *models.Step, err error) {
	if description, err = cleanDescription(description); err != nil {
		return nil, err
	}
	found, err := s.repomanager.Steps(s.db).Get(ctx, stepID)
	if err != nil {
		return nil, fmt.Errorf("step %d: %w", stepID, err)
	}
	ref := found.Recipe

	ctx, span := startSpan(ctx, "steps.EditDescription", ref)
	defer func() { endSpan(span, err) }()

	err = s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}
		stepRepo := s.repomanager.Steps(tx)
		if err := stepRepo.UpdateDescription(ctx, stepID, description); err != nil {
			return fmt.Errorf("step %d: %w", stepID, err)
		}
		var err error
		step, err = stepRepo.Get(ctx, stepID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

// StepsWithProgress lists the steps of ref ordered by number, each decorated
// with userID's completion flag. Missing progress entries are created first.
func (s *StepService) StepsWithProgress(ctx context.Context, ref models.RecipeRef, userID int64) (result []*models.StepWithProgress, err error) {
	ctx, span := startSpan(ctx, "steps.StepsWithProgress", ref)
	defer func() { endSpan(span, err) }()

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	external, err := s.fetchExternal(ctx, ref)
	if err != nil {
		return nil, err
	}

	err = s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}
		steps, err := s.listSteps(ctx, tx, ref, external)
		if err != nil {
			return err
		}
		progress, err := s.ensureProgress(ctx, tx, userID, ref, steps)
		if err != nil {
			return err
		}

		result = make([]*models.StepWithProgress, 0, len(steps))
		for _, st := range steps {
			item := &models.StepWithProgress{ID: st.ID, Number: st.Number, Description: st.Description}
			if p, ok := progress[st.Number]; ok {
				item.Completed = p.Completed
				item.CompletedAt = p.CompletedAt
			}
			result = append(result, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetStepStatus marks step number of ref complete or incomplete for userID.
// Repeating the same transition is a no-op.
func (s *StepService) SetStepStatus(ctx context.Context, ref models.RecipeRef, userID int64, number int, completed bool) (err error) {
	ctx, span := startSpan(ctx, "steps.SetStepStatus", ref)
	defer func() { endSpan(span, err) }()

	if err := ref.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	if number <= 0 {
		return fmt.Errorf("step number %d: %w", number, common.ErrorInvalidArgument)
	}
	external, err := s.fetchExternal(ctx, ref)
	if err != nil {
		return err
	}

	return s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}
		steps, err := s.listSteps(ctx, tx, ref, external)
		if err != nil {
			return err
		}
		if number > len(steps) {
			return fmt.Errorf("step %d of %s: %w", number, ref, common.ErrorNotFound)
		}
		if _, err := s.ensureProgress(ctx, tx, userID, ref, steps); err != nil {
			return err
		}

		progressRepo := s.repomanager.Progress(tx)
		if completed {
			return progressRepo.Complete(ctx, userID, ref, number)
		}
		return progressRepo.Uncomplete(ctx, userID, ref, number)
	})
}

// ResetProgress deletes all of userID's progress on ref. The next query
// starts the recipe over with every step incomplete.
func (s *StepService) ResetProgress(ctx context.Context, ref models.RecipeRef, userID int64) (err error) {
	ctx, span := startSpan(ctx, "steps.ResetProgress", ref)
	defer func() { endSpan(span, err) }()

	if err := ref.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	return s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}
		return s.repomanager.Progress(tx).Reset(ctx, userID, ref)
	})
}

// ReplaceSteps discards every step and all progress of ref and stores
// descriptions as steps 1..N with fresh progress for userID.
func (s *StepService) ReplaceSteps(ctx context.Context, ref models.RecipeRef, userID int64, descriptions []string) (err error) {
	ctx, span := startSpan(ctx, "steps.ReplaceSteps", ref)
	defer func() { endSpan(span, err) }()

	if err := ref.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, common.ErrorInvalidArgument)
	}
	if err := localOnly(ref); err != nil {
		return err
	}
	return s.withRecipe(ctx, ref, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.owners.Authorize(ctx, tx, ref, userID); err != nil {
			return err
		}
		return s.replace(ctx, tx, ref, userID, descriptions)
	})
}

// replace is ReplaceSteps without locking or authorization, for callers that
// already hold the recipe inside their own transaction.
func (s *StepService) replace(ctx context.Context, tx dbx.DBTX, ref models.RecipeRef, userID int64, descriptions []string) error {
	if len(descriptions) == 0 {
		return fmt.Errorf("recipe %s needs at least one step: %w", ref, common.ErrorInvalidArgument)
	}
	cleaned := make([]string, len(descriptions))
	for i, d := range descriptions {
		c, err := cleanDescription(d)
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		cleaned[i] = c
	}

	stepRepo := s.repomanager.Steps(tx)
	progressRepo := s.repomanager.Progress(tx)
	if err := progressRepo.DeleteByRecipe(ctx, ref); err != nil {
		return err
	}
	if err := stepRepo.DeleteByRecipe(ctx, ref); err != nil {
		return err
	}
	for i, d := range cleaned {
		if _, err := stepRepo.Append(ctx, ref, i+1, d); err != nil {
			return err
		}
		if err := progressRepo.Initialize(ctx, userID, ref, i+1); err != nil {
			return err
		}
	}
	return nil
}

// fetchExternal loads external steps before any transaction is opened, so a
// slow upstream never holds a recipe lock.
func (s *StepService) fetchExternal(ctx context.Context, ref models.RecipeRef) ([]models.ExternalStep, error) {
	if ref.Kind != models.KindExternal {
		return nil, nil
	}
	if s.source == nil {
		return nil, common.ErrExternalUnavailable
	}
	steps, err := s.source.AnalyzedSteps(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching steps of %s: %w", ref, err)
	}
	return steps, nil
}

func (s *StepService) listSteps(ctx context.Context, tx dbx.DBTX, ref models.RecipeRef, external []models.ExternalStep) ([]*models.Step, error) {
	if ref.Kind != models.KindExternal {
		return s.repomanager.Steps(tx).List(ctx, ref)
	}
	steps := make([]*models.Step, 0, len(external))
	for _, e := range external {
		steps = append(steps, &models.Step{Recipe: ref, Number: e.Number, Description: e.Description})
	}
	return steps, nil
}

// ensureProgress creates the missing incomplete progress entries of userID
// for steps, drops entries past the last step and returns the rest keyed by
// step number. A nil steps is loaded from the Step Store.
func (s *StepService) ensureProgress(ctx context.Context, tx dbx.DBTX, userID int64, ref models.RecipeRef, steps []*models.Step) (map[int]*models.Progress, error) {
	if steps == nil {
		var err error
		if steps, err = s.listSteps(ctx, tx, ref, nil); err != nil {
			return nil, err
		}
	}

	progressRepo := s.repomanager.Progress(tx)
	rows, err := progressRepo.List(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	byNumber := make(map[int]*models.Progress, len(rows))
	stale := false
	for _, p := range rows {
		if p.Number > len(steps) {
			stale = true
			continue
		}
		byNumber[p.Number] = p
	}
	// the upstream instruction list of an external recipe may have shrunk
	if stale {
		if err := progressRepo.DeleteAbove(ctx, userID, ref, len(steps)); err != nil {
			return nil, err
		}
	}

	for _, st := range steps {
		if _, ok := byNumber[st.Number]; ok {
			continue
		}
		if err := progressRepo.Initialize(ctx, userID, ref, st.Number); err != nil {
			return nil, err
		}
		byNumber[st.Number] = &models.Progress{UserID: userID, Recipe: ref, Number: st.Number}
	}
	return byNumber, nil
}
