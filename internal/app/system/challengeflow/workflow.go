// internal/app/system/challengeflow/workflow.go
package challengeflow

import (
	"context"
	"errors"
	"time"

	accountstore "github.com/dalemusser/stratafight/internal/app/store/accounts"
	challengestore "github.com/dalemusser/stratafight/internal/app/store/challenges"
	"github.com/dalemusser/stratafight/internal/app/store/storeutil"
	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/app/system/inputval"
	"github.com/dalemusser/stratafight/internal/app/system/normalize"
	"github.com/dalemusser/stratafight/internal/app/system/txn"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Workflow runs challenge operations against the account and challenge stores.
type Workflow struct {
	db         *mongo.Database
	accounts   *accountstore.Store
	challenges *challengestore.Store
	logger     *zap.Logger
	now        func() time.Time

	defaultLimit int64
	maxLimit     int64
}

// New creates a Workflow backed by db.
func New(db *mongo.Database, logger *zap.Logger) *Workflow {
	return &Workflow{
		db:           db,
		accounts:     accountstore.New(db),
		challenges:   challengestore.New(db),
		logger:       logger,
		now:          time.Now,
		defaultLimit: storeutil.DefaultLimit,
		maxLimit:     storeutil.MaxLimit,
	}
}

// SetPageLimits overrides the list page size default and ceiling.
func (w *Workflow) SetPageLimits(def, max int64) {
	if def > 0 {
		w.defaultLimit = def
	}
	if max > 0 {
		w.maxLimit = max
	}
}

// CreateInput is the payload for Create.
type CreateInput struct {
	ChallengedID primitive.ObjectID
	FightDetails *FightDetailsPatch
	Message      string
}

// Create opens a pending challenge from challengerID to in.ChallengedID with
// a single human message, and links it from both accounts.
func (w *Workflow) Create(ctx context.Context, challengerID primitive.ObjectID, in CreateInput) (*models.ChallengeView, error) {
	if challengerID == in.ChallengedID {
		return nil, apperr.SelfChallenge()
	}

	now := w.now()
	var details models.FightDetails
	res := &inputval.Result{}
	if in.FightDetails != nil {
		in.FightDetails.validate(res, "fight_details.", now)
		in.FightDetails.apply(&details)
	}
	text := cleanText(in.Message)
	checkText(res, "message", text, models.MaxMessageLength, true)
	if err := res.AppError(); err != nil {
		return nil, err
	}

	challenger, err := w.accounts.GetByID(ctx, challengerID)
	if err != nil {
		return nil, w.accountErr(err, "challenger account")
	}
	if !challenger.IsFighter() {
		return nil, apperr.NotFighter()
	}
	challenged, err := w.accounts.GetByID(ctx, in.ChallengedID)
	if err != nil {
		return nil, w.accountErr(err, "challenged account")
	}
	if !challenged.IsFighter() {
		return nil, apperr.TargetNotFighter()
	}

	exists, err := w.challenges.ExistsActiveBetween(ctx, challengerID, in.ChallengedID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ChallengeExists()
	}

	sender := challengerID
	c := &models.Challenge{
		Challenger:   challengerID,
		Challenged:   in.ChallengedID,
		Status:       models.StatusPending,
		FightDetails: details,
		Messages: []models.Message{{
			Sender:    &sender,
			Text:      text,
			Timestamp: now,
		}},
	}

	err = txn.Run(ctx, w.db, w.logger, func(ctx context.Context) error {
		if err := w.challenges.Insert(ctx, c); err != nil {
			return err
		}
		return w.accounts.AddChallengeRef(ctx, c.ID, challengerID, in.ChallengedID)
	})
	if err != nil {
		if errors.Is(err, challengestore.ErrActivePairExists) {
			return nil, apperr.ChallengeExists()
		}
		return nil, err
	}

	return w.view(ctx, c, challenger, challenged)
}

// Accept moves a pending challenge to accepted. Only the challenged fighter
// may accept.
func (w *Workflow) Accept(ctx context.Context, id, actorID primitive.ObjectID, responseMessage string) (*models.ChallengeView, error) {
	return w.respond(ctx, ActionAccept, id, actorID, responseMessage)
}

// Decline moves a pending challenge to declined. Only the challenged fighter
// may decline.
func (w *Workflow) Decline(ctx context.Context, id, actorID primitive.ObjectID, responseMessage string) (*models.ChallengeView, error) {
	return w.respond(ctx, ActionDecline, id, actorID, responseMessage)
}

func (w *Workflow) respond(ctx context.Context, action Action, id, actorID primitive.ObjectID, responseMessage string) (*models.ChallengeView, error) {
	msg := cleanText(responseMessage)
	res := &inputval.Result{}
	checkText(res, "response_message", msg, models.MaxResponseMessageLength, false)
	if err := res.AppError(); err != nil {
		return nil, err
	}

	label := "Challenge accepted"
	if action == ActionDecline {
		label = "Challenge declined"
	}
	return w.transition(ctx, action, id, actorID, func(c *models.Challenge, now time.Time) {
		c.ResponseDetails = &models.ResponseDetails{RespondedAt: now, ResponseMessage: msg}
		c.Messages = append(c.Messages, systemMessage(withDetail(label, msg), now))
	})
}

const (
	cancelLabel = "Challenge cancelled"
	// The reason is stored inside a system message, after the label.
	maxCancelReasonLength = models.MaxMessageLength - len(cancelLabel+": ")
)

// Cancel withdraws a pending or accepted challenge. Only the challenger may
// cancel; reason may be empty.
func (w *Workflow) Cancel(ctx context.Context, id, actorID primitive.ObjectID, reason string) (*models.ChallengeView, error) {
	reason = cleanText(reason)
	res := &inputval.Result{}
	checkText(res, "reason", reason, maxCancelReasonLength, false)
	if err := res.AppError(); err != nil {
		return nil, err
	}

	return w.transition(ctx, ActionCancel, id, actorID, func(c *models.Challenge, now time.Time) {
		c.Messages = append(c.Messages, systemMessage(withDetail(cancelLabel, reason), now))
	})
}

// Complete closes an accepted challenge. Either participant may complete it;
// fightID optionally references the resulting fight.
func (w *Workflow) Complete(ctx context.Context, id, actorID primitive.ObjectID, fightID *primitive.ObjectID) (*models.ChallengeView, error) {
	return w.transition(ctx, ActionComplete, id, actorID, func(c *models.Challenge, now time.Time) {
		if fightID != nil {
			fid := *fightID
			c.FightID = &fid
		}
		c.Messages = append(c.Messages, systemMessage("Challenge completed", now))
	})
}

// UpdateDetails shallow-merges patch into the fight details of an active
// challenge. Fields absent from patch are kept.
func (w *Workflow) UpdateDetails(ctx context.Context, id, actorID primitive.ObjectID, patch FightDetailsPatch) (*models.ChallengeView, error) {
	now := w.now()
	res := &inputval.Result{}
	if patch.empty() {
		res.Add("fight_details", "At least one fight detail is required.")
	}
	patch.validate(res, "fight_details.", now)
	if err := res.AppError(); err != nil {
		return nil, err
	}

	c, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := Check(ActionUpdateDetails, c, actorID); err != nil {
		return nil, err
	}
	actor, err := w.accounts.GetByID(ctx, actorID)
	if err != nil {
		return nil, w.accountErr(err, "account")
	}

	patch.apply(&c.FightDetails)
	c.Messages = append(c.Messages, systemMessage("Fight details updated by "+actor.Username, now))
	return w.save(ctx, c)
}

// AddMessage appends a human message from actorID to an active challenge.
func (w *Workflow) AddMessage(ctx context.Context, id, actorID primitive.ObjectID, text string) (*models.ChallengeView, error) {
	text = cleanText(text)
	res := &inputval.Result{}
	checkText(res, "message", text, models.MaxMessageLength, true)
	if err := res.AppError(); err != nil {
		return nil, err
	}

	return w.transition(ctx, ActionAddMessage, id, actorID, func(c *models.Challenge, now time.Time) {
		sender := actorID
		c.Messages = append(c.Messages, models.Message{Sender: &sender, Text: text, Timestamp: now})
	})
}

// FetchByID returns a challenge with participants and senders resolved.
// Only participants may read it.
func (w *Workflow) FetchByID(ctx context.Context, id, actorID primitive.ObjectID) (*models.ChallengeView, error) {
	c, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(actorID) {
		return nil, apperr.NotAuthorized("you are not a participant in this challenge")
	}
	return w.view(ctx, c)
}

// ListFilter narrows ListForUser. Empty strings mean no restriction.
type ListFilter struct {
	Status string // one of the challenge statuses
	Role   string // all, challenger or challenged
	Sort   string // newest (default) or oldest
	Page   int64
	Limit  int64
}

// ListResult is one page of a user's challenges.
type ListResult struct {
	Challenges []models.ChallengeView `json:"challenges"`
	Pagination storeutil.Pagination   `json:"pagination"`
}

// ListForUser returns the challenges userID takes part in.
func (w *Workflow) ListForUser(ctx context.Context, userID primitive.ObjectID, f ListFilter) (*ListResult, error) {
	res := &inputval.Result{}
	status := models.ChallengeStatus(normalize.Keyword(f.Status))
	if status != "" && !models.IsValidChallengeStatus(status) {
		res.Add("status", "Status must be one of: pending, accepted, declined, cancelled, completed.")
	}
	role := normalize.Keyword(f.Role)
	switch role {
	case "", challengestore.RoleAll, challengestore.RoleChallenger, challengestore.RoleChallenged:
	default:
		res.Add("role", "Role must be one of: all, challenger, challenged.")
	}
	sort := normalize.Keyword(f.Sort)
	if sort != "" && sort != "newest" && sort != "oldest" {
		res.Add("sort", "Sort must be one of: newest, oldest.")
	}
	if err := res.AppError(); err != nil {
		return nil, err
	}

	page := storeutil.NewPage(f.Page, f.Limit, w.defaultLimit, w.maxLimit)
	cs, total, err := w.challenges.List(ctx, challengestore.ListFilter{
		Participant: userID,
		Role:        role,
		Status:      status,
		Oldest:      sort == "oldest",
	}, page)
	if err != nil {
		return nil, err
	}

	views, err := w.views(ctx, cs)
	if err != nil {
		return nil, err
	}
	return &ListResult{Challenges: views, Pagination: page.Meta(total)}, nil
}

// PendingResult is the inbox of challenges awaiting a response.
type PendingResult struct {
	Challenges []models.ChallengeView `json:"challenges"`
	Count      int                    `json:"count"`
}

// PendingForUser returns the pending challenges where userID is the
// challenged fighter, newest first.
func (w *Workflow) PendingForUser(ctx context.Context, userID primitive.ObjectID) (*PendingResult, error) {
	cs, err := w.challenges.PendingFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	views, err := w.views(ctx, cs)
	if err != nil {
		return nil, err
	}
	return &PendingResult{Challenges: views, Count: len(views)}, nil
}

/* -------------------------------------------------------------------------- */
/* Internals                                                                   */
/* -------------------------------------------------------------------------- */

// transition loads the challenge, checks actor and status, applies mutate,
// moves to the next status and saves conditionally on the loaded version.
func (w *Workflow) transition(ctx context.Context, action Action, id, actorID primitive.ObjectID, mutate func(c *models.Challenge, now time.Time)) (*models.ChallengeView, error) {
	c, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := Check(action, c, actorID)
	if err != nil {
		return nil, err
	}
	mutate(c, w.now())
	c.Status = next
	return w.save(ctx, c)
}

func (w *Workflow) load(ctx context.Context, id primitive.ObjectID) (*models.Challenge, error) {
	c, err := w.challenges.GetByID(ctx, id)
	if errors.Is(err, challengestore.ErrNotFound) {
		return nil, apperr.NotFound("challenge")
	}
	return c, err
}

func (w *Workflow) save(ctx context.Context, c *models.Challenge) (*models.ChallengeView, error) {
	switch err := w.challenges.Save(ctx, c); {
	case errors.Is(err, challengestore.ErrVersionConflict):
		return nil, apperr.Conflict("challenge was changed by another request; reload and try again")
	case errors.Is(err, challengestore.ErrNotFound):
		return nil, apperr.NotFound("challenge")
	case err != nil:
		return nil, err
	}
	return w.view(ctx, c)
}

func (w *Workflow) accountErr(err error, what string) error {
	if errors.Is(err, accountstore.ErrNotFound) {
		return apperr.NotFound(what)
	}
	return err
}

func systemMessage(text string, now time.Time) models.Message {
	return models.Message{Text: text, Timestamp: now, IsSystemMessage: true}
}

func withDetail(label, detail string) string {
	if detail == "" {
		return label
	}
	return label + ": " + detail
}
