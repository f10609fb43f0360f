// Package challenges provides the challenge workflow endpoints.
//
// Every route requires a bearer token; the caller is always the acting
// fighter and participant checks happen in the workflow.
package challenges

import (
	"net/http"
	"strings"

	"github.com/dalemusser/stratafight/internal/app/store/audit"
	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/auditlog"
	"github.com/dalemusser/stratafight/internal/app/system/auth"
	"github.com/dalemusser/stratafight/internal/app/system/challengeflow"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /api/challenges.
type Handler struct {
	workflow    *challengeflow.Workflow
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new challenges Handler. auditLogger may be nil.
func NewHandler(workflow *challengeflow.Workflow, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{workflow: workflow, auditLogger: auditLogger, logger: logger}
}

// createInput is the POST / body.
type createInput struct {
	ChallengedID string                           `json:"challenged_id"`
	FightDetails *challengeflow.FightDetailsPatch `json:"fight_details"`
	Message      string                           `json:"message"`
}

// Create handles POST /.
//
// Request body:
//
//	{
//	    "challenged_id": "64f1...",
//	    "fight_details": {"proposed_date": "2026-12-01T20:00:00Z", "location": "Las Vegas"},
//	    "message": "Let's fight"
//	}
//
// Response (201 Created): the challenge view.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	var in createInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	if strings.TrimSpace(in.ChallengedID) == "" {
		jsonutil.WriteError(w, r, h.logger, apperr.ValidationField("challenged_id", "challenged_id is required."))
		return
	}
	challengedID, err := inputval.ParseObjectID(in.ChallengedID, "challenged_id")
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	v, err := h.workflow.Create(r.Context(), caller.ID, challengeflow.CreateInput{
		ChallengedID: challengedID,
		FightDetails: in.FightDetails,
		Message:      in.Message,
	})
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	h.auditLogger.Challenge(r, audit.EventChallengeCreated, caller.ID, v.ID, map[string]string{
		"challenged": challengedID.Hex(),
	})
	jsonutil.Created(w, "Challenge created.", v)
}

// Mine handles GET /my?status&role&sort&page&limit.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	res := &inputval.Result{}
	f := challengeflow.ListFilter{
		Status: query.Get(r, "status"),
		Role:   query.Get(r, "role"),
		Sort:   query.Get(r, "sort"),
		Page:   inputval.PositiveInt(res, "page", query.Get(r, "page")),
		Limit:  inputval.PositiveInt(res, "limit", query.Get(r, "limit")),
	}
	if err := res.AppError(); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	list, err := h.workflow.ListForUser(r.Context(), caller.ID, f)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", list)
}

// Pending handles GET /pending: challenges awaiting the caller's response.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	res, err := h.workflow.PendingForUser(r.Context(), caller.ID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", res)
}

// Get handles GET /{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	v, err := h.workflow.FetchByID(r.Context(), id, caller.ID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.OK(w, "", v)
}

type responseInput struct {
	ResponseMessage string `json:"response_message"`
}

// Accept handles PATCH /{id}/accept with an optional {response_message}.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var in responseInput
	h.mutate(w, r, &in, audit.EventChallengeAccepted, "Challenge accepted.",
		func(r *http.Request, id, actor primitive.ObjectID) (*models.ChallengeView, error) {
			return h.workflow.Accept(r.Context(), id, actor, in.ResponseMessage)
		})
}

// Decline handles PATCH /{id}/decline with an optional {response_message}.
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	var in responseInput
	h.mutate(w, r, &in, audit.EventChallengeDeclined, "Challenge declined.",
		func(r *http.Request, id, actor primitive.ObjectID) (*models.ChallengeView, error) {
			return h.workflow.Decline(r.Context(), id, actor, in.ResponseMessage)
		})
}

// Cancel handles DELETE /{id} with an optional {reason}. The challenge is
// kept with status cancelled.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	h.mutate(w, r, &in, audit.EventChallengeCancelled, "Challenge cancelled.",
		func(r *http.Request, id, actor primitive.ObjectID) (*models.ChallengeView, error) {
			return h.workflow.Cancel(r.Context(), id, actor, in.Reason)
		})
}

// Complete handles PATCH /{id}/complete with an optional {fight_id}.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FightID string `json:"fight_id"`
	}
	h.mutate(w, r, &in, audit.EventChallengeCompleted, "Challenge completed.",
		func(r *http.Request, id, actor primitive.ObjectID) (*models.ChallengeView, error) {
			var fightID *primitive.ObjectID
			if strings.TrimSpace(in.FightID) != "" {
				fid, err := inputval.ParseObjectID(in.FightID, "fight_id")
				if err != nil {
					return nil, err
				}
				fightID = &fid
			}
			return h.workflow.Complete(r.Context(), id, actor, fightID)
		})
}

// UpdateDetails handles PATCH /{id}/details with a partial fight details body.
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var in challengeflow.FightDetailsPatch
	h.mutate(w, r, &in, audit.EventChallengeUpdated, "Fight details updated.",
		func(r *http.Request, id, actor primitive.ObjectID) (*models.ChallengeView, error) {
			return h.workflow.UpdateDetails(r.Context(), id, actor, in)
		})
}

// AddMessage handles POST /{id}/messages with {message}. Responds 201.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var in struct {
		Message string `json:"message"`
	}
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	v, err := h.workflow.AddMessage(r.Context(), id, caller.ID, in.Message)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	jsonutil.Created(w, "Message added.", v)
}

/* -------------------------------------------------------------------------- */

type mutation func(r *http.Request, id, actor primitive.ObjectID) (*models.ChallengeView, error)

// mutate decodes the body into in, runs op for the caller on the path
// challenge and writes the result, auditing successful changes.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, in any, event, message string, op mutation) {
	caller, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := jsonutil.Decode(w, r, in); err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	v, err := op(r, id, caller.ID)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	h.auditLogger.Challenge(r, event, caller.ID, v.ID, map[string]string{"status": string(v.Status)})
	jsonutil.OK(w, message, v)
}

// target resolves the caller and the {id} path parameter, writing the error
// itself when either is missing.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*auth.Caller, primitive.ObjectID, bool) {
	caller, err := auth.Require(r)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return nil, primitive.NilObjectID, false
	}
	id, err := inputval.ParseObjectID(chi.URLParam(r, "id"), "id")
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return nil, primitive.NilObjectID, false
	}
	return caller, id, true
}
