package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/casegen-backend/internal/data/repos"
	types "github.com/yungbote/casegen-backend/internal/domain"
	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/dbctx"
	"github.com/yungbote/casegen-backend/internal/platform/gcp"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
	"github.com/yungbote/casegen-backend/internal/testgen"
)

const standardExtractLimit = 4

type CreateInput struct {
	RequirementIDs []string
	StandardNames  []string
	PromptOverride string
}

// ItemResult is the per-requirement outcome of a bulk generation.
type ItemResult struct {
	ReqID   string `json:"req_id"`
	Success bool   `json:"success"`
	GenID   string `json:"genId,omitempty"`
	Count   int    `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RegenerateResult struct {
	GenID            string `json:"genId"`
	Count            int    `json:"count"`
	RequirementID    string `json:"requirementId"`
	RequirementTitle string `json:"requirementTitle"`
}

type SetSummary struct {
	ID               string    `json:"id"`
	RequirementID    string    `json:"requirementId"`
	JiraID           string    `json:"jiraId"`
	RequirementTitle string    `json:"requirementTitle"`
	CreatedAt        time.Time `json:"createdAt"`
	Count            int       `json:"count"`
}

type GenerationService interface {
	Create(ctx context.Context, userID string, in CreateInput) ([]ItemResult, error)
	// RegenerateRequirement overwrites the newest set for the requirement in
	// place, or creates one when none exists.
	RegenerateRequirement(ctx context.Context, userID, reqID string, standards []string, override string) (*RegenerateResult, error)
	RegenerateTestcase(ctx context.Context, userID, genID, tcID, override string) (types.Testcase, error)
	Patch(ctx context.Context, userID, genID, tcID string, patch map[string]any) (types.Testcase, error)
	List(ctx context.Context, userID string) ([]SetSummary, error)
	Get(ctx context.Context, userID, genID string) (*types.GeneratedSet, error)
	// Testcases resolves id as a set id first, then as a requirement id.
	Testcases(ctx context.Context, userID, id string) ([]types.Testcase, error)
}

type generationService struct {
	log       *logger.Logger
	reqs      repos.RequirementRepo
	standards repos.StandardRepo
	sets      repos.GeneratedSetRepo
	extract   TextExtractService
	composer  *testgen.Composer
	engine    *testgen.Engine
}

func NewGenerationService(
	log *logger.Logger,
	reqs repos.RequirementRepo,
	standards repos.StandardRepo,
	sets repos.GeneratedSetRepo,
	extract TextExtractService,
	composer *testgen.Composer,
	engine *testgen.Engine,
) GenerationService {
	return &generationService{
		log:       log.With("service", "GenerationService"),
		reqs:      reqs,
		standards: standards,
		sets:      sets,
		extract:   extract,
		composer:  composer,
		engine:    engine,
	}
}

func (s *generationService) Create(ctx context.Context, userID string, in CreateInput) ([]ItemResult, error) {
	reqIDs := cleanIDs(in.RequirementIDs)
	names := cleanIDs(in.StandardNames)
	if len(reqIDs) == 0 {
		return nil, apierr.BadRequest("missing_requirements", "selectedRequirements must name at least one requirement")
	}
	if len(names) == 0 {
		return nil, apierr.BadRequest("missing_standards", "selectedStandards must name at least one standard")
	}
	dbc := dbctx.Context{Ctx: ctx}

	stds, err := s.loadStandards(dbc, userID, names)
	if err != nil {
		return nil, err
	}
	found, err := s.reqs.GetByReqIDs(dbc, userID, reqIDs)
	if err != nil {
		return nil, fmt.Errorf("load requirements: %w", err)
	}
	byID := make(map[string]*types.Requirement, len(found))
	for _, r := range found {
		byID[r.ReqID] = r
	}

	stdInputs := s.extractStandards(ctx, stds)
	override := strings.TrimSpace(in.PromptOverride)

	results := make([]ItemResult, 0, len(reqIDs))
	for _, reqID := range reqIDs {
		req := byID[reqID]
		if req == nil {
			results = append(results, ItemResult{ReqID: reqID, Error: "requirement not found"})
			continue
		}
		tcs, err := s.generateSet(ctx, req, stdInputs, override)
		if err != nil {
			s.log.Warn("generation failed", "user_id", userID, "req_id", reqID, "error", err)
			results = append(results, ItemResult{ReqID: reqID, Error: err.Error()})
			continue
		}
		set := &types.GeneratedSet{
			UserID:            userID,
			RequirementRef:    req.ID,
			RequirementID:     req.ReqID,
			RequirementTitle:  req.Title,
			SelectedStandards: names,
			PromptOverride:    override,
			Testcases:         tcs,
		}
		if err := s.sets.Create(dbc, set); err != nil {
			s.log.Error("failed to store generated set", "req_id", reqID, "error", err)
			results = append(results, ItemResult{ReqID: reqID, Error: "failed to store generated set"})
			continue
		}
		results = append(results, ItemResult{ReqID: reqID, Success: true, GenID: set.ID.String(), Count: len(tcs)})
	}
	return results, nil
}

func (s *generationService) RegenerateRequirement(ctx context.Context, userID, reqID string, standards []string, override string) (*RegenerateResult, error) {
	reqID = strings.TrimSpace(reqID)
	names := cleanIDs(standards)
	if reqID == "" {
		return nil, apierr.BadRequest("missing_requirement", "requirement id is required")
	}
	if len(names) == 0 {
		return nil, apierr.BadRequest("missing_standards", "selectedStandards must name at least one standard")
	}
	dbc := dbctx.Context{Ctx: ctx}

	req, err := s.reqs.GetByReqID(dbc, userID, reqID)
	if err != nil {
		return nil, fmt.Errorf("load requirement %s: %w", reqID, err)
	}
	if req == nil {
		return nil, apierr.NotFound("requirement_not_found", "requirement %s not found", reqID)
	}
	stds, err := s.loadStandards(dbc, userID, names)
	if err != nil {
		return nil, err
	}
	override = strings.TrimSpace(override)

	tcs, err := s.generateSet(ctx, req, s.extractStandards(ctx, stds), override)
	if err != nil {
		return nil, generationError(err)
	}

	existing, err := s.sets.LatestForRequirement(dbc, userID, req.ReqID)
	if err != nil {
		return nil, fmt.Errorf("load generated set: %w", err)
	}
	var genID uuid.UUID
	if existing != nil {
		if err := s.sets.OverwriteGeneration(dbc, userID, existing.ID, tcs, names, override); err != nil {
			return nil, fmt.Errorf("overwrite generated set: %w", err)
		}
		genID = existing.ID
	} else {
		set := &types.GeneratedSet{
			UserID:            userID,
			RequirementRef:    req.ID,
			RequirementID:     req.ReqID,
			RequirementTitle:  req.Title,
			SelectedStandards: names,
			PromptOverride:    override,
			Testcases:         tcs,
		}
		if err := s.sets.Create(dbc, set); err != nil {
			return nil, fmt.Errorf("store generated set: %w", err)
		}
		genID = set.ID
	}
	s.log.Info("requirement regenerated", "user_id", userID, "req_id", req.ReqID, "gen_id", genID, "count", len(tcs))
	return &RegenerateResult{
		GenID:            genID.String(),
		Count:            len(tcs),
		RequirementID:    req.ReqID,
		RequirementTitle: req.Title,
	}, nil
}

func (s *generationService) RegenerateTestcase(ctx context.Context, userID, genID, tcID, override string) (types.Testcase, error) {
	dbc := dbctx.Context{Ctx: ctx}
	set, err := s.loadSet(dbc, userID, genID)
	if err != nil {
		return types.Testcase{}, err
	}
	idx := set.IndexOf(tcID)
	if idx < 0 {
		return types.Testcase{}, apierr.NotFound("testcase_not_found", "testcase %s not found", tcID)
	}
	prev := set.Testcases[idx]

	req, err := s.reqs.GetByReqID(dbc, userID, set.RequirementID)
	if err != nil {
		return types.Testcase{}, fmt.Errorf("load requirement %s: %w", set.RequirementID, err)
	}
	stds, err := s.standards.GetByNames(dbc, userID, set.SelectedStandards)
	if err != nil {
		return types.Testcase{}, fmt.Errorf("load standards: %w", err)
	}
	override = strings.TrimSpace(override)
	if override == "" {
		override = set.PromptOverride
	}

	reqInput := testgen.RequirementInput{ID: set.RequirementID, Title: set.RequirementTitle}
	if req != nil {
		reqInput = s.requirementInput(ctx, req)
	}
	parts := s.composer.ComposeSingle(testgen.SingleInput{
		BulkInput: testgen.BulkInput{
			Requirement: reqInput,
			Standards:   s.extractStandards(ctx, stds),
			Override:    override,
		},
		Set:    set.Testcases,
		Target: prev,
	})
	res, err := s.engine.Recover(ctx, testgen.Request{RequirementID: set.RequirementID, Parts: parts, Shape: testgen.ShapeObject})
	if err != nil {
		return types.Testcase{}, generationError(err)
	}
	merged := testgen.Merge(res.Value, prev)

	if _, err := s.replaceTestcase(dbc, userID, set.ID, tcID, func(types.Testcase) types.Testcase { return merged }); err != nil {
		return types.Testcase{}, err
	}
	s.log.Info("testcase regenerated", "user_id", userID, "gen_id", set.ID, "tc_id", tcID, "attempts", res.Attempts)
	return merged, nil
}

func (s *generationService) Patch(ctx context.Context, userID, genID, tcID string, patch map[string]any) (types.Testcase, error) {
	if len(patch) == 0 {
		return types.Testcase{}, apierr.BadRequest("empty_patch", "patch body must contain at least one field")
	}
	dbc := dbctx.Context{Ctx: ctx}
	id, err := uuid.Parse(strings.TrimSpace(genID))
	if err != nil {
		return types.Testcase{}, apierr.NotFound("generated_set_not_found", "generated set %s not found", genID)
	}
	return s.replaceTestcase(dbc, userID, id, tcID, func(prev types.Testcase) types.Testcase {
		return testgen.ApplyPatch(prev, patch)
	})
}

func (s *generationService) List(ctx context.Context, userID string) ([]SetSummary, error) {
	sets, err := s.sets.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SetSummary, 0, len(sets))
	for _, set := range sets {
		out = append(out, SetSummary{
			ID:               set.ID.String(),
			RequirementID:    set.RequirementID,
			JiraID:           set.JiraID,
			RequirementTitle: set.RequirementTitle,
			CreatedAt:        set.CreatedAt,
			Count:            len(set.Testcases),
		})
	}
	return out, nil
}

func (s *generationService) Get(ctx context.Context, userID, genID string) (*types.GeneratedSet, error) {
	return s.loadSet(dbctx.Context{Ctx: ctx}, userID, genID)
}

func (s *generationService) Testcases(ctx context.Context, userID, id string) ([]types.Testcase, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if genID, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
		set, err := s.sets.GetByID(dbc, userID, genID)
		if err != nil {
			return nil, err
		}
		if set != nil {
			return set.Testcases, nil
		}
	}
	set, err := s.sets.LatestForRequirement(dbc, userID, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, apierr.NotFound("generated_set_not_found", "no generated set for %s", id)
	}
	return set.Testcases, nil
}

// generateSet runs one bulk generation. An empty result is an error.
func (s *generationService) generateSet(ctx context.Context, req *types.Requirement, stds []testgen.StandardInput, override string) ([]types.Testcase, error) {
	parts := s.composer.ComposeBulk(testgen.BulkInput{
		Requirement: s.requirementInput(ctx, req),
		Standards:   stds,
		Override:    override,
	})
	res, err := s.engine.Recover(ctx, testgen.Request{RequirementID: req.ReqID, Parts: parts, Shape: testgen.ShapeArray})
	if err != nil {
		return nil, err
	}
	tcs := testgen.NormalizeAll(res.Value, req.ReqID)
	if len(tcs) == 0 {
		return nil, fmt.Errorf("%w: model returned no testcases", testgen.ErrRecoveryFailed)
	}
	return tcs, nil
}

func (s *generationService) requirementInput(ctx context.Context, req *types.Requirement) testgen.RequirementInput {
	return testgen.RequirementInput{
		ID:       req.ReqID,
		Title:    req.Title,
		FileName: req.FileName,
		FileURI:  req.FileURI,
		MimeType: req.MimeType,
		Text: s.extract.Extract(ctx, DocumentRef{
			Category:   gcp.BucketCategoryRequirement,
			Name:       req.FileName,
			StorageKey: req.StorageKey,
			FileURI:    req.FileURI,
			MimeType:   req.MimeType,
		}),
	}
}

// extractStandards fetches standard texts concurrently. Results keep the
// order of stds; extraction never fails.
func (s *generationService) extractStandards(ctx context.Context, stds []*types.Standard) []testgen.StandardInput {
	out := make([]testgen.StandardInput, len(stds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(standardExtractLimit)
	for i, std := range stds {
		g.Go(func() error {
			out[i] = testgen.StandardInput{
				Name: std.Name,
				Text: s.extract.Extract(gctx, DocumentRef{
					Category:   gcp.BucketCategoryStandard,
					Name:       std.Name,
					StorageKey: std.StorageKey,
					FileURI:    std.FileURI,
					MimeType:   std.MimeType,
				}),
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *generationService) loadStandards(dbc dbctx.Context, userID string, names []string) ([]*types.Standard, error) {
	stds, err := s.standards.GetByNames(dbc, userID, names)
	if err != nil {
		return nil, fmt.Errorf("load standards: %w", err)
	}
	if len(stds) != len(names) {
		have := make(map[string]struct{}, len(stds))
		for _, st := range stds {
			have[st.Name] = struct{}{}
		}
		var missing []string
		for _, n := range names {
			if _, ok := have[n]; !ok {
				missing = append(missing, n)
			}
		}
		return nil, apierr.NotFound("standard_not_found", "unknown standards: %s", strings.Join(missing, ", "))
	}
	return stds, nil
}

func (s *generationService) loadSet(dbc dbctx.Context, userID, genID string) (*types.GeneratedSet, error) {
	id, err := uuid.Parse(strings.TrimSpace(genID))
	if err != nil {
		return nil, apierr.NotFound("generated_set_not_found", "generated set %s not found", genID)
	}
	set, err := s.sets.GetByID(dbc, userID, id)
	if err != nil {
		return nil, fmt.Errorf("load generated set: %w", err)
	}
	if set == nil {
		return nil, apierr.NotFound("generated_set_not_found", "generated set %s not found", genID)
	}
	return set, nil
}

// replaceTestcase rewrites one element of the stored set. The element is
// located again inside the transaction.
func (s *generationService) replaceTestcase(dbc dbctx.Context, userID string, genID uuid.UUID, tcID string, fn func(types.Testcase) types.Testcase) (types.Testcase, error) {
	var updated types.Testcase
	_, err := s.sets.MutateTestcases(dbc, userID, genID, func(tcs []types.Testcase) ([]types.Testcase, error) {
		for i := range tcs {
			if tcs[i].TCID == tcID {
				updated = fn(tcs[i])
				tcs[i] = updated
				return tcs, nil
			}
		}
		return nil, apierr.NotFound("testcase_not_found", "testcase %s not found", tcID)
	})
	if errors.Is(err, repos.ErrSetNotFound) {
		return types.Testcase{}, apierr.NotFound("generated_set_not_found", "generated set %s not found", genID)
	}
	if err != nil {
		return types.Testcase{}, err
	}
	return updated, nil
}

// generationError classifies failures from the recovery engine.
func generationError(err error) error {
	switch {
	case errors.Is(err, testgen.ErrRecoveryFailed):
		e := apierr.New(http.StatusInternalServerError, "recovery_failed", err)
		e.Details = err.Error()
		return e
	case errors.Is(err, testgen.ErrGeneration):
		return apierr.Upstream("generation_failed", err)
	default:
		return err
	}
}

// cleanIDs trims, drops empties and removes duplicates, keeping order.
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
