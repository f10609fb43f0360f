// Package challengeflow implements the challenge state machine and the
// participant rules around it.
//
//	pending  --accept(challenged)-->  accepted
//	pending  --decline(challenged)--> declined
//	pending  --cancel(challenger)-->  cancelled
//	accepted --cancel(challenger)-->  cancelled
//	accepted --complete(either)-->    completed
//
// Detail updates and messages are allowed for either participant while the
// challenge is pending or accepted and leave the status unchanged.
package challengeflow

import (
	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is an operation on an existing challenge.
type Action string

const (
	ActionAccept        Action = "accept"
	ActionDecline       Action = "decline"
	ActionCancel        Action = "cancel"
	ActionComplete      Action = "complete"
	ActionUpdateDetails Action = "update details"
	ActionAddMessage    Action = "add message"
)

// verb is the phrase used in INVALID_STATUS messages.
func (a Action) verb() string {
	switch a {
	case ActionUpdateDetails:
		return "update the details of"
	case ActionAddMessage:
		return "add a message to"
	}
	return string(a)
}

// actor says which participant may perform an action.
type actor int

const (
	actorChallenged actor = iota
	actorChallenger
	actorEither
)

type rule struct {
	from  []models.ChallengeStatus
	to    models.ChallengeStatus // empty: status unchanged
	actor actor
}

var active = []models.ChallengeStatus{models.StatusPending, models.StatusAccepted}

var rules = map[Action]rule{
	ActionAccept:        {from: []models.ChallengeStatus{models.StatusPending}, to: models.StatusAccepted, actor: actorChallenged},
	ActionDecline:       {from: []models.ChallengeStatus{models.StatusPending}, to: models.StatusDeclined, actor: actorChallenged},
	ActionCancel:        {from: active, to: models.StatusCancelled, actor: actorChallenger},
	ActionComplete:      {from: []models.ChallengeStatus{models.StatusAccepted}, to: models.StatusCompleted, actor: actorEither},
	ActionUpdateDetails: {from: active, actor: actorEither},
	ActionAddMessage:    {from: active, actor: actorEither},
}

// Next returns the status a challenge in from moves to under action.
// Actions that do not change status return from itself.
func Next(action Action, from models.ChallengeStatus) (models.ChallengeStatus, error) {
	r, ok := rules[action]
	if !ok {
		return from, apperr.InvalidStatus(string(action), string(from))
	}
	for _, s := range r.from {
		if s == from {
			if r.to == "" {
				return from, nil
			}
			return r.to, nil
		}
	}
	return from, apperr.InvalidStatus(action.verb(), string(from))
}

// Authorize checks that actorID is the participant allowed to perform action.
func Authorize(action Action, c *models.Challenge, actorID primitive.ObjectID) error {
	r, ok := rules[action]
	if !ok {
		return apperr.NotAuthorized("unknown action")
	}
	switch r.actor {
	case actorChallenged:
		if c.Challenged != actorID {
			return apperr.NotAuthorized("only the challenged fighter can " + string(action) + " this challenge")
		}
	case actorChallenger:
		if c.Challenger != actorID {
			return apperr.NotAuthorized("only the challenger can " + string(action) + " this challenge")
		}
	default:
		if !c.IsParticipant(actorID) {
			return apperr.NotAuthorized("you are not a participant in this challenge")
		}
	}
	return nil
}

// Check applies Authorize then Next: actor first, then status.
func Check(action Action, c *models.Challenge, actorID primitive.ObjectID) (models.ChallengeStatus, error) {
	if err := Authorize(action, c, actorID); err != nil {
		return c.Status, err
	}
	return Next(action, c.Status)
}
