package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/templui/goalkeep/internal/ctxkeys"
	"github.com/templui/goalkeep/internal/model"
	"github.com/templui/goalkeep/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

type createGoalRequest struct {
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Deadline         model.Height           `json:"deadline"`
	VerificationType model.VerificationType `json:"verification_type"`
	Privacy          model.Privacy          `json:"privacy"`
	Milestones       []string               `json:"milestones"`
}

type goalIDResponse struct {
	ID model.GoalID `json:"id"`
}

type addValidatorRequest struct {
	Validator model.Identity `json:"validator"`
}

type updateMilestoneRequest struct {
	Completed *bool `json:"completed"`
}

type verifyRequest struct {
	Notes string `json:"notes"`
}

type updatePrivacyRequest struct {
	Privacy model.Privacy `json:"privacy"`
}

type accessResponse struct {
	GoalID    model.GoalID `json:"goal_id"`
	CanAccess bool         `json:"can_access"`
}

type userGoalsResponse struct {
	Identity model.Identity `json:"identity"`
	GoalIDs  []model.GoalID `json:"goal_ids"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.goalService.Create(r.Context(), ctxkeys.Identity(r.Context()), service.CreateGoalInput{
		Title:            req.Title,
		Description:      req.Description,
		Deadline:         req.Deadline,
		VerificationType: req.VerificationType,
		Privacy:          req.Privacy,
		MilestoneTitles:  req.Milestones,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/goals/%d", id))
	writeJSON(w, http.StatusCreated, goalIDResponse{ID: id})
}

func (h *GoalHandler) Goal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleGoalID(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.GetGoal(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleGoalID(w, r)
	if !ok {
		return
	}

	milestones, err := h.goalService.GetGoalMilestones(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, milestones)
}

func (h *GoalHandler) Validators(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleGoalID(w, r)
	if !ok {
		return
	}

	validators, err := h.goalService.GetGoalValidators(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validators)
}

func (h *GoalHandler) Verification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleGoalID(w, r)
	if !ok {
		return
	}

	verification, err := h.goalService.GetGoalVerification(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if verification == nil {
		writeError(w, http.StatusNotFound, "verification_not_found", "goal has not been verified")
		return
	}

	writeJSON(w, http.StatusOK, verification)
}

func (h *GoalHandler) Access(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	canAccess, err := h.goalService.CanAccess(r.Context(), id, ctxkeys.Identity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accessResponse{GoalID: id, CanAccess: canAccess})
}

func (h *GoalHandler) UserGoals(w http.ResponseWriter, r *http.Request) {
	identity := model.Identity(r.PathValue("identity"))

	ids, err := h.goalService.GetUserGoals(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userGoalsResponse{Identity: identity, GoalIDs: ids})
}

func (h *GoalHandler) AddValidator(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	var req addValidatorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.goalService.AddValidator(r.Context(), ctxkeys.Identity(r.Context()), id, req.Validator)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_milestone", "milestone index must be an integer")
		return
	}

	var req updateMilestoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Completed == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "completed is required")
		return
	}

	err = h.goalService.UpdateMilestone(r.Context(), ctxkeys.Identity(r.Context()), id, index, *req.Completed)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	err := h.goalService.Complete(r.Context(), ctxkeys.Identity(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	// notes are optional, so is the body
	var req verifyRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	err := h.goalService.Verify(r.Context(), ctxkeys.Identity(r.Context()), id, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) MintReward(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	err := h.goalService.MintReward(r.Context(), ctxkeys.Identity(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	var req updatePrivacyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.goalService.UpdatePrivacy(r.Context(), ctxkeys.Identity(r.Context()), id, req.Privacy)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Expire(w http.ResponseWriter, r *http.Request) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	err := h.goalService.Expire(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// accessibleGoalID parses the goal id and hides goals the caller may not
// view behind the same 404 a missing goal gets.
func (h *GoalHandler) accessibleGoalID(w http.ResponseWriter, r *http.Request) (model.GoalID, bool) {
	id, ok := parseGoalID(w, r)
	if !ok {
		return 0, false
	}

	canAccess, err := h.goalService.CanAccess(r.Context(), id, ctxkeys.Identity(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return 0, false
	}
	if !canAccess {
		writeServiceError(w, r, service.ErrGoalNotFound)
		return 0, false
	}

	return id, true
}

func parseGoalID(w http.ResponseWriter, r *http.Request) (model.GoalID, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid_parameters", "goal id must be a positive integer")
		return 0, false
	}
	return model.GoalID(id), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := decodeJSON(w, r, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body: "+err.Error())
		return false
	}
	return true
}
