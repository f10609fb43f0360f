package challengeflow

import (
	"context"

	"github.com/dalemusser/stratafight/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// view resolves one challenge. Accounts already in hand can be passed in
// known to skip the lookup.
func (w *Workflow) view(ctx context.Context, c *models.Challenge, known ...*models.Account) (*models.ChallengeView, error) {
	summaries := make(map[primitive.ObjectID]models.Summary, len(known))
	for _, a := range known {
		if a != nil {
			summaries[a.ID] = a.Summary()
		}
	}
	if err := w.resolve(ctx, summaries, []models.Challenge{*c}); err != nil {
		return nil, err
	}
	v := buildView(c, summaries)
	return &v, nil
}

// views resolves a list of challenges with one account lookup.
func (w *Workflow) views(ctx context.Context, cs []models.Challenge) ([]models.ChallengeView, error) {
	summaries := map[primitive.ObjectID]models.Summary{}
	if err := w.resolve(ctx, summaries, cs); err != nil {
		return nil, err
	}
	out := make([]models.ChallengeView, 0, len(cs))
	for i := range cs {
		out = append(out, buildView(&cs[i], summaries))
	}
	return out, nil
}

// resolve loads summaries for every participant and sender not already in
// summaries.
func (w *Workflow) resolve(ctx context.Context, summaries map[primitive.ObjectID]models.Summary, cs []models.Challenge) error {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	want := func(id primitive.ObjectID) {
		if _, ok := summaries[id]; ok || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for i := range cs {
		want(cs[i].Challenger)
		want(cs[i].Challenged)
		for _, m := range cs[i].Messages {
			if m.Sender != nil {
				want(*m.Sender)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	accounts, err := w.accounts.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		summaries[a.ID] = a.Summary()
	}
	return nil
}

func summaryOf(summaries map[primitive.ObjectID]models.Summary, id primitive.ObjectID) models.Summary {
	if s, ok := summaries[id]; ok {
		return s
	}
	return models.Summary{ID: id}
}

func buildView(c *models.Challenge, summaries map[primitive.ObjectID]models.Summary) models.ChallengeView {
	msgs := make([]models.MessageView, 0, len(c.Messages))
	for _, m := range c.Messages {
		mv := models.MessageView{
			Text:            m.Text,
			Timestamp:       m.Timestamp,
			IsSystemMessage: m.IsSystemMessage,
		}
		if m.Sender != nil {
			s := summaryOf(summaries, *m.Sender)
			mv.Sender = &s
		}
		msgs = append(msgs, mv)
	}
	return models.ChallengeView{
		ID:              c.ID,
		Challenger:      summaryOf(summaries, c.Challenger),
		Challenged:      summaryOf(summaries, c.Challenged),
		Status:          c.Status,
		FightDetails:    c.FightDetails,
		Messages:        msgs,
		ResponseDetails: c.ResponseDetails,
		FightID:         c.FightID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
