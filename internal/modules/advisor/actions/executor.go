package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/advisor-backend/internal/data/aggregates"
	"github.com/yungbote/advisor-backend/internal/data/repos"
	types "github.com/yungbote/advisor-backend/internal/domain"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/counsellor"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/eligibility"
	"github.com/yungbote/advisor-backend/internal/modules/advisor/stage"
	"github.com/yungbote/advisor-backend/internal/platform/apierr"
	"github.com/yungbote/advisor-backend/internal/platform/dbctx"
	"github.com/yungbote/advisor-backend/internal/platform/logger"
)

var ErrUserNotFound = errors.New("actions: user not found")

const DefaultChecklistTimeout = 20 * time.Second

// Entry is one action as reported back to the user. Executed entries carry
// Confirmed; blocked entries carry Reason and Code, plus Details when a stage
// guard refused.
type Entry struct {
	Type      string         `json:"type"`
	Params    map[string]any `json:"params"`
	Confirmed bool           `json:"confirmed,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
}

type Result struct {
	Executed   []Entry     `json:"executed"`
	Blocked    []Entry     `json:"blocked"`
	FinalStage types.Stage `json:"final_stage"`
}

// Counter receives one increment per action outcome.
type Counter interface {
	IncAction(actionType, result string)
}

type ExecutorDeps struct {
	Tx           aggregates.TxRunner
	Users        repos.UserRepo
	Profiles     repos.UserProfileRepo
	Universities repos.UniversityRepo
	Shortlist    repos.ShortlistRepo
	Tasks        repos.TaskRepo
	Checklist    ChecklistGenerator
	Metrics      Counter
	Log          *logger.Logger
	Now          func() time.Time

	// ChecklistTimeout bounds each checklist generation call.
	ChecklistTimeout time.Duration
}

type Executor struct {
	deps ExecutorDeps
	log  *logger.Logger
}

func NewExecutor(deps ExecutorDeps) *Executor {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.ChecklistTimeout <= 0 {
		deps.ChecklistTimeout = DefaultChecklistTimeout
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Executor{deps: deps, log: log.With("step", "action_executor")}
}

// batch is the per-call mutable state threaded through the handlers.
type batch struct {
	dbc   dbctx.Context
	user  *types.User
	stage types.Stage
	// checklists holds items generated before the transaction, keyed by
	// university id.
	checklists map[uint][]ChecklistItem
}

// outcome is what a handler decided. A nil *blocked means executed.
type outcome struct {
	result  map[string]any
	blocked *blockedBy
}

type blockedBy struct {
	reason  string
	code    string
	details map[string]any
}

func block(code, reason string) outcome {
	return outcome{blocked: &blockedBy{reason: reason, code: code}}
}

func blockGuard(reason string, v *stage.Violation) outcome {
	return outcome{blocked: &blockedBy{reason: reason, code: v.Code, details: v.Details()}}
}

func done(result map[string]any) outcome {
	return outcome{result: result}
}

// Execute applies actions in order inside one transaction. Guard failures
// and validation problems become Blocked entries and do not stop the batch;
// any storage error rolls back every action and is returned.
func (e *Executor) Execute(ctx context.Context, userID uuid.UUID, acts []counsellor.Action) (Result, error) {
	ctx, span := otel.Tracer("advisor").Start(ctx, "actions.execute")
	defer span.End()

	checklists := e.prepareChecklists(ctx, userID, acts)

	res := Result{Executed: []Entry{}, Blocked: []Entry{}}
	err := e.deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		u, err := e.deps.Users.LockByID(dbc, userID)
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if u == nil {
			return ErrUserNotFound
		}
		b := &batch{dbc: dbc, user: u, stage: u.CurrentStage, checklists: checklists}
		if !b.stage.Valid() {
			b.stage = types.StageOnboarding
		}

		for _, act := range acts {
			params := act.Params
			if params == nil {
				params = map[string]any{}
			}
			out, err := e.apply(b, act.Type, params)
			if err != nil {
				return fmt.Errorf("%s: %w", act.Type, err)
			}
			entry := Entry{Type: act.Type, Params: params}
			if out.blocked != nil {
				entry.Reason = out.blocked.reason
				entry.Code = out.blocked.code
				entry.Details = out.blocked.details
				res.Blocked = append(res.Blocked, entry)
				continue
			}
			entry.Confirmed = true
			entry.Result = out.result
			res.Executed = append(res.Executed, entry)
		}
		res.FinalStage = b.stage
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	for _, en := range res.Executed {
		e.deps.countAction(en.Type, "executed")
	}
	for _, en := range res.Blocked {
		e.deps.countAction(en.Type, "blocked")
	}
	span.SetAttributes(
		attribute.Int("actions.executed", len(res.Executed)),
		attribute.Int("actions.blocked", len(res.Blocked)),
		attribute.String("actions.final_stage", string(res.FinalStage)),
	)
	if len(acts) > 0 {
		e.log.Info("actions applied", "user_id", userID, "executed", len(res.Executed), "blocked", len(res.Blocked), "final_stage", res.FinalStage)
	}
	return res, nil
}

func (d ExecutorDeps) countAction(actionType, result string) {
	if d.Metrics != nil {
		d.Metrics.IncAction(actionType, result)
	}
}

func (e *Executor) apply(b *batch, actionType string, params map[string]any) (outcome, error) {
	switch actionType {
	case counsellor.ActionShortlist:
		return e.shortlist(b, params)
	case counsellor.ActionLock:
		return e.lock(b, params)
	case counsellor.ActionUnlock:
		return e.unlock(b, params)
	case counsellor.ActionCreateTask:
		return e.createTask(b, params)
	case counsellor.ActionUpdateTask:
		return e.updateTask(b, params)
	default:
		return block(apierr.CodeInvalidRequest, "Unknown action: "+actionType), nil
	}
}

func (e *Executor) setStage(b *batch, s types.Stage) error {
	if b.stage == s {
		return nil
	}
	if err := e.deps.Users.UpdateStage(b.dbc, b.user.ID, s); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	b.stage = s
	return nil
}

func (e *Executor) shortlist(b *batch, params map[string]any) (outcome, error) {
	if v := stage.RequireMinimum(b.stage, types.StageDiscovery, "shortlist universities"); v != nil {
		return blockGuard("Complete onboarding first", v), nil
	}
	if v := stage.BlockModification(b.stage, "modify your shortlist"); v != nil {
		return blockGuard("Cannot modify shortlist after locking", v), nil
	}

	uniID, _ := counsellor.ParamUint(params, "university_id")
	uni, err := e.deps.Universities.GetWithPrograms(b.dbc, uniID)
	if err != nil {
		return outcome{}, err
	}
	if uni == nil {
		return block(apierr.CodeNotFound, "University not found"), nil
	}
	existing, err := e.deps.Shortlist.GetByUserAndUniversity(b.dbc, b.user.ID, uni.ID)
	if err != nil {
		return outcome{}, err
	}
	if existing != nil {
		return block(apierr.CodeAlreadyExists, "Already shortlisted"), nil
	}

	category, ok := types.ParseCategory(counsellor.ParamString(params, "category"))
	if !ok {
		prof, err := e.deps.Profiles.GetByUserID(b.dbc, b.user.ID)
		if err != nil {
			return outcome{}, err
		}
		category = eligibility.Categorize(*uni, uni.Programs, eligibility.FromUserProfile(prof)).Category
	}

	entry := &types.ShortlistEntry{UserID: b.user.ID, UniversityID: uni.ID, Category: category}
	if err := e.deps.Shortlist.Create(b.dbc, entry); err != nil {
		return outcome{}, err
	}
	return done(map[string]any{
		"university_id":   uni.ID,
		"university_name": uni.Name,
		"category":        string(category),
		"shortlist_id":    entry.ID.String(),
	}), nil
}

func (e *Executor) lock(b *batch, params map[string]any) (outcome, error) {
	if v := stage.RequireMinimum(b.stage, types.StageDiscovery, "lock universities"); v != nil {
		return blockGuard("Complete onboarding first", v), nil
	}
	n, err := e.deps.Shortlist.CountByUser(b.dbc, b.user.ID)
	if err != nil {
		return outcome{}, err
	}
	if v := stage.RequireShortlistNonEmpty(b.stage, n); v != nil {
		return blockGuard(v.Message, v), nil
	}

	uniID, _ := counsellor.ParamUint(params, "university_id")
	entry, err := e.deps.Shortlist.GetByUserAndUniversity(b.dbc, b.user.ID, uniID)
	if err != nil {
		return outcome{}, err
	}
	if entry == nil {
		return block(apierr.CodeNotFound, "University not in shortlist. Add to shortlist first."), nil
	}
	if entry.IsLocked {
		return block(apierr.CodeAlreadyExists, "Already locked"), nil
	}

	if err := e.deps.Shortlist.SetLocked(b.dbc, entry.ID, e.deps.Now()); err != nil {
		return outcome{}, err
	}
	previous := b.stage
	if err := e.setStage(b, types.StageApplication); err != nil {
		return outcome{}, err
	}

	uni, err := e.deps.Universities.GetWithPrograms(b.dbc, entry.UniversityID)
	if err != nil {
		return outcome{}, err
	}
	name := fmt.Sprintf("University %d", entry.UniversityID)
	if uni != nil {
		name = uni.Name
	}
	created, err := e.createChecklist(b, entry.ID, b.checklists[entry.UniversityID], name)
	if err != nil {
		return outcome{}, err
	}

	return done(map[string]any{
		"university_id":  entry.UniversityID,
		"stage_changed":  previous != b.stage,
		"previous_stage": string(previous),
		"new_stage":      string(b.stage),
		"tasks_created":  created,
	}), nil
}

// prepareChecklists generates checklists for the lock actions in acts whose
// university is, or is about to be, shortlisted and unlocked. It runs before
// the batch transaction takes the user row lock. Failures
// are logged and leave the university out, so the default checklist is used.
func (e *Executor) prepareChecklists(ctx context.Context, userID uuid.UUID, acts []counsellor.Action) map[uint][]ChecklistItem {
	if e.deps.Checklist == nil {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	out := map[uint][]ChecklistItem{}
	added := map[uint]bool{}
	for _, act := range acts {
		uniID, ok := counsellor.ParamUint(act.Params, "university_id")
		if !ok {
			continue
		}
		if act.Type == counsellor.ActionShortlist {
			added[uniID] = true
			continue
		}
		if act.Type != counsellor.ActionLock {
			continue
		}
		if _, seen := out[uniID]; seen {
			continue
		}
		entry, err := e.deps.Shortlist.GetByUserAndUniversity(dbc, userID, uniID)
		if err != nil || (entry == nil && !added[uniID]) || (entry != nil && entry.IsLocked) {
			continue
		}
		uni, err := e.deps.Universities.GetWithPrograms(dbc, uniID)
		if err != nil || uni == nil {
			continue
		}

		gctx, cancel := context.WithTimeout(ctx, e.deps.ChecklistTimeout)
		items, err := e.deps.Checklist.Generate(gctx, uni.Name, uni.Country)
		cancel()
		if err != nil {
			e.log.Warn("checklist generation failed, using default", "university", uni.Name, "error", err)
			continue
		}
		out[uniID] = items
	}
	return out
}

// createChecklist stores items as tasks for entryID, or the default
// checklist when items is empty.
func (e *Executor) createChecklist(b *batch, entryID uuid.UUID, items []ChecklistItem, name string) (int, error) {
	if len(items) == 0 {
		items = DefaultChecklist(name)
	}

	rows := make([]*types.Task, 0, len(items))
	for _, it := range items {
		id := entryID
		rows = append(rows, &types.Task{
			UserID:           b.user.ID,
			ShortlistEntryID: &id,
			Title:            it.Title,
			Description:      it.Description,
			Priority:         types.ClampPriority(it.Priority),
			Status:           types.TaskPending,
		})
	}
	created, err := e.deps.Tasks.Create(b.dbc, rows)
	if err != nil {
		return 0, err
	}
	return len(created), nil
}

func (e *Executor) unlock(b *batch, params map[string]any) (outcome, error) {
	uniID, _ := counsellor.ParamUint(params, "university_id")
	entry, err := e.deps.Shortlist.GetByUserAndUniversity(b.dbc, b.user.ID, uniID)
	if err != nil {
		return outcome{}, err
	}
	if entry == nil {
		return block(apierr.CodeNotFound, "University not in shortlist"), nil
	}
	if !entry.IsLocked {
		return block(apierr.CodeInvalidRequest, "University is not locked"), nil
	}
	if v := stage.WarnRegression(b.stage, "Unlocking", counsellor.ParamBool(params, "confirm")); v != nil {
		return blockGuard(v.Message, v), nil
	}

	deleted, err := e.deps.Tasks.DeleteByShortlistEntry(b.dbc, entry.ID)
	if err != nil {
		return outcome{}, err
	}
	if err := e.deps.Shortlist.ClearLocked(b.dbc, entry.ID); err != nil {
		return outcome{}, err
	}
	others, err := e.deps.Shortlist.CountLockedByUser(b.dbc, b.user.ID, entry.ID)
	if err != nil {
		return outcome{}, err
	}
	regressed := false
	if others == 0 && b.stage.AtLeast(types.StageLocked) {
		if err := e.setStage(b, types.StageDiscovery); err != nil {
			return outcome{}, err
		}
		regressed = true
	}
	return done(map[string]any{
		"university_id":   entry.UniversityID,
		"tasks_deleted":   deleted,
		"stage_regressed": regressed,
		"new_stage":       string(b.stage),
	}), nil
}

func (e *Executor) createTask(b *batch, params map[string]any) (outcome, error) {
	if b.stage != types.StageApplication {
		v := stage.RequireMinimum(b.stage, types.StageApplication, "create tasks")
		return blockGuard("Tasks can only be created in APPLICATION stage", v), nil
	}
	title := counsellor.ParamString(params, "title")
	if title == "" {
		return block(apierr.CodeInvalidRequest, "Task title is required"), nil
	}
	priority, _ := counsellor.ParamInt(params, "priority")
	t := &types.Task{
		UserID:      b.user.ID,
		Title:       title,
		Description: counsellor.ParamString(params, "description"),
		Priority:    types.ClampPriority(priority),
		Status:      types.TaskPending,
	}
	if _, err := e.deps.Tasks.Create(b.dbc, []*types.Task{t}); err != nil {
		return outcome{}, err
	}
	return done(map[string]any{"task_id": t.ID.String(), "title": t.Title}), nil
}

func (e *Executor) updateTask(b *batch, params map[string]any) (outcome, error) {
	id, err := uuid.Parse(counsellor.ParamString(params, "task_id"))
	if err != nil {
		return block(apierr.CodeNotFound, "Task not found"), nil
	}
	t, err := e.deps.Tasks.GetForUser(b.dbc, b.user.ID, id)
	if err != nil {
		return outcome{}, err
	}
	if t == nil {
		return block(apierr.CodeNotFound, "Task not found"), nil
	}
	raw := counsellor.ParamString(params, "status")
	status, ok := types.ParseTaskStatus(raw)
	if !ok {
		return block(apierr.CodeInvalidStatus, "Invalid status: "+raw), nil
	}
	if err := e.deps.Tasks.UpdateFields(b.dbc, t.ID, map[string]interface{}{"status": status}); err != nil {
		return outcome{}, err
	}
	return done(map[string]any{"task_id": t.ID.String(), "new_status": string(status)}), nil
}
