package challengeflow

import (
	"testing"

	"github.com/dalemusser/stratafight/internal/app/system/apperr"
	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNext(t *testing.T) {
	P, A, D, C, X := models.StatusPending, models.StatusAccepted, models.StatusDeclined, models.StatusCancelled, models.StatusCompleted

	// Every (action, from) pair; an empty want means INVALID_STATUS.
	tests := []struct {
		action Action
		from   models.ChallengeStatus
		want   models.ChallengeStatus
	}{
		{ActionAccept, P, A}, {ActionAccept, A, ""}, {ActionAccept, D, ""}, {ActionAccept, C, ""}, {ActionAccept, X, ""},
		{ActionDecline, P, D}, {ActionDecline, A, ""}, {ActionDecline, D, ""}, {ActionDecline, C, ""}, {ActionDecline, X, ""},
		{ActionCancel, P, C}, {ActionCancel, A, C}, {ActionCancel, D, ""}, {ActionCancel, C, ""}, {ActionCancel, X, ""},
		{ActionComplete, P, ""}, {ActionComplete, A, X}, {ActionComplete, D, ""}, {ActionComplete, C, ""}, {ActionComplete, X, ""},
		{ActionUpdateDetails, P, P}, {ActionUpdateDetails, A, A}, {ActionUpdateDetails, D, ""}, {ActionUpdateDetails, C, ""}, {ActionUpdateDetails, X, ""},
		{ActionAddMessage, P, P}, {ActionAddMessage, A, A}, {ActionAddMessage, D, ""}, {ActionAddMessage, C, ""}, {ActionAddMessage, X, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.action)+"/"+string(tt.from), func(t *testing.T) {
			got, err := Next(tt.action, tt.from)
			if tt.want == "" {
				if !apperr.Is(err, apperr.CodeInvalidStatus) {
					t.Fatalf("Next() error = %v, want INVALID_STATUS", err)
				}
				if e, _ := apperr.As(err); e.Status != 400 {
					t.Errorf("status = %d, want 400", e.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Next() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNext_MessageNamesCurrentStatus(t *testing.T) {
	_, err := Next(ActionAccept, models.StatusDeclined)
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("error = %v, want *apperr.Error", err)
	}
	if e.Message != "cannot accept a challenge that is declined" {
		t.Errorf("message = %q", e.Message)
	}

	_, err = Next(ActionUpdateDetails, models.StatusCompleted)
	e, _ = apperr.As(err)
	if e.Message != "cannot update the details of a challenge that is completed" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestAuthorize(t *testing.T) {
	challenger, challenged, outsider := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	c := &models.Challenge{Challenger: challenger, Challenged: challenged, Status: models.StatusPending}

	tests := []struct {
		action Action
		actor  primitive.ObjectID
		ok     bool
	}{
		{ActionAccept, challenged, true},
		{ActionAccept, challenger, false},
		{ActionAccept, outsider, false},
		{ActionDecline, challenged, true},
		{ActionDecline, challenger, false},
		{ActionCancel, challenger, true},
		{ActionCancel, challenged, false},
		{ActionComplete, challenger, true},
		{ActionComplete, challenged, true},
		{ActionComplete, outsider, false},
		{ActionUpdateDetails, challenged, true},
		{ActionUpdateDetails, outsider, false},
		{ActionAddMessage, challenger, true},
		{ActionAddMessage, outsider, false},
	}

	for _, tt := range tests {
		err := Authorize(tt.action, c, tt.actor)
		if tt.ok && err != nil {
			t.Errorf("Authorize(%s) error = %v, want nil", tt.action, err)
		}
		if !tt.ok && !apperr.Is(err, apperr.CodeNotAuthorized) {
			t.Errorf("Authorize(%s) error = %v, want NOT_AUTHORIZED", tt.action, err)
		}
	}
}

func TestCheck_ActorBeforeStatus(t *testing.T) {
	challenger, challenged := primitive.NewObjectID(), primitive.NewObjectID()
	c := &models.Challenge{Challenger: challenger, Challenged: challenged, Status: models.StatusCancelled}

	// Wrong actor on a terminal challenge reports the actor problem.
	if _, err := Check(ActionAccept, c, challenger); !apperr.Is(err, apperr.CodeNotAuthorized) {
		t.Errorf("Check() error = %v, want NOT_AUTHORIZED", err)
	}
	if _, err := Check(ActionAccept, c, challenged); !apperr.Is(err, apperr.CodeInvalidStatus) {
		t.Errorf("Check() error = %v, want INVALID_STATUS", err)
	}
}
