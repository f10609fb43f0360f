// internal/domain/models/challenge.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

// Challenge statuses. Pending is the initial state; declined, cancelled and
// completed are terminal.
const (
	StatusPending   ChallengeStatus = "pending"
	StatusAccepted  ChallengeStatus = "accepted"
	StatusDeclined  ChallengeStatus = "declined"
	StatusCancelled ChallengeStatus = "cancelled"
	StatusCompleted ChallengeStatus = "completed"
)

// AllChallengeStatuses returns every valid challenge status.
func AllChallengeStatuses() []ChallengeStatus {
	return []ChallengeStatus{
		StatusPending,
		StatusAccepted,
		StatusDeclined,
		StatusCancelled,
		StatusCompleted,
	}
}

// IsValidChallengeStatus checks if a status is valid.
func IsValidChallengeStatus(s ChallengeStatus) bool {
	for _, v := range AllChallengeStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// IsActive reports whether the status is pending or accepted.
func (s ChallengeStatus) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// IsTerminal reports whether no further transition is possible.
func (s ChallengeStatus) IsTerminal() bool {
	return s == StatusDeclined || s == StatusCancelled || s == StatusCompleted
}

// Field length ceilings for challenge text.
const (
	MaxLocationLength        = 200
	MaxRulesLength           = 1000
	MaxStakesLength          = 500
	MaxMessageLength         = 1000
	MaxResponseMessageLength = 500
)

// Challenge is a proposed bout between two fighter accounts.
type Challenge struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Challenger primitive.ObjectID `bson:"challenger" json:"challenger"`
	Challenged primitive.ObjectID `bson:"challenged" json:"challenged"`

	Status ChallengeStatus `bson:"status" json:"status"`

	FightDetails    FightDetails        `bson:"fight_details" json:"fight_details"`
	Messages        []Message           `bson:"messages" json:"messages"`
	ResponseDetails *ResponseDetails    `bson:"response_details,omitempty" json:"response_details,omitempty"`
	FightID         *primitive.ObjectID `bson:"fight_id,omitempty" json:"fight_id,omitempty"`

	// ActivePair is set only while the challenge is active; a unique sparse
	// index on it allows a single active challenge per pair.
	ActivePair string `bson:"active_pair,omitempty" json:"-"`
	// Version is the optimistic-concurrency token, bumped on every write.
	Version int64 `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsParticipant reports whether id is the challenger or the challenged.
func (c *Challenge) IsParticipant(id primitive.ObjectID) bool {
	return c.Challenger == id || c.Challenged == id
}

// FightDetails are the negotiable terms of the bout.
type FightDetails struct {
	ProposedDate *time.Time `bson:"proposed_date,omitempty" json:"proposed_date,omitempty"`
	Location     string     `bson:"location,omitempty" json:"location,omitempty"`
	Rules        string     `bson:"rules,omitempty" json:"rules,omitempty"`
	WeightClass  string     `bson:"weight_class,omitempty" json:"weight_class,omitempty"`
	Stakes       string     `bson:"stakes,omitempty" json:"stakes,omitempty"`
}

// Message is one entry of the append-only challenge log. Sender is nil for
// system-authored entries.
type Message struct {
	Sender          *primitive.ObjectID `bson:"sender" json:"sender"`
	Text            string              `bson:"text" json:"text"`
	Timestamp       time.Time           `bson:"timestamp" json:"timestamp"`
	IsSystemMessage bool                `bson:"is_system_message" json:"is_system_message"`
}

// ResponseDetails is stamped when the challenged fighter accepts or declines.
type ResponseDetails struct {
	RespondedAt     time.Time `bson:"responded_at" json:"responded_at"`
	ResponseMessage string    `bson:"response_message,omitempty" json:"response_message,omitempty"`
}

// PairKey returns an order-independent key for two accounts.
func PairKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// Weight classes.
const (
	WeightStrawweight      = "Strawweight"
	WeightFlyweight        = "Flyweight"
	WeightBantamweight     = "Bantamweight"
	WeightFeatherweight    = "Featherweight"
	WeightLightweight      = "Lightweight"
	WeightWelterweight     = "Welterweight"
	WeightMiddleweight     = "Middleweight"
	WeightLightHeavyweight = "Light Heavyweight"
	WeightHeavyweight      = "Heavyweight"
	WeightCatchweight      = "Catchweight"
)

// AllWeightClasses returns the fixed weight class vocabulary.
func AllWeightClasses() []string {
	return []string{
		WeightStrawweight,
		WeightFlyweight,
		WeightBantamweight,
		WeightFeatherweight,
		WeightLightweight,
		WeightWelterweight,
		WeightMiddleweight,
		WeightLightHeavyweight,
		WeightHeavyweight,
		WeightCatchweight,
	}
}

// IsValidWeightClass checks if a weight class is in the vocabulary.
func IsValidWeightClass(wc string) bool {
	for _, w := range AllWeightClasses() {
		if w == wc {
			return true
		}
	}
	return false
}

// ChallengeView is a challenge with participant and message-sender
// summaries resolved.
type ChallengeView struct {
	ID              primitive.ObjectID  `json:"id"`
	Challenger      Summary             `json:"challenger"`
	Challenged      Summary             `json:"challenged"`
	Status          ChallengeStatus     `json:"status"`
	FightDetails    FightDetails        `json:"fight_details"`
	Messages        []MessageView       `json:"messages"`
	ResponseDetails *ResponseDetails    `json:"response_details,omitempty"`
	FightID         *primitive.ObjectID `json:"fight_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// MessageView is a message with its sender resolved.
type MessageView struct {
	Sender          *Summary  `json:"sender"`
	Text            string    `json:"text"`
	Timestamp       time.Time `json:"timestamp"`
	IsSystemMessage bool      `json:"is_system_message"`
}
