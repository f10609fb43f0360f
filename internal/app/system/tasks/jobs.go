// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"time"

	accountstore "github.com/dalemusser/stratafight/internal/app/store/accounts"
	"github.com/dalemusser/stratafight/internal/app/store/apistats"
	challengestore "github.com/dalemusser/stratafight/internal/app/store/challenges"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Registered job names.
const (
	ChallengeRefReconcileName = "challenge-ref-reconcile"
	APIStatsRetentionName     = "api-stats-retention"
)

// ChallengeRefReconcileJob creates a job that rebuilds every account's
// challenges back-reference list from the challenges collection.
func ChallengeRefReconcileJob(accounts *accountstore.Store, challenges *challengestore.Store, logger *zap.Logger, interval time.Duration) Job {
	if interval <= 0 {
		interval = time.Hour
	}
	return Job{
		Name:     ChallengeRefReconcileName,
		Interval: interval,
		Run: func(ctx context.Context) error {
			fixed, err := ReconcileChallengeRefs(ctx, accounts, challenges)
			if err != nil {
				return err
			}
			if fixed > 0 {
				logger.Info("reconciled challenge back-references",
					zap.Int("accounts_fixed", fixed))
			}
			return nil
		},
	}
}

// ReconcileChallengeRefs makes each account's challenges list equal the set
// of challenges it takes part in. Ids are added and pulled individually, so
// references written concurrently are kept. Returns the number of accounts
// changed.
func ReconcileChallengeRefs(ctx context.Context, accounts *accountstore.Store, challenges *challengestore.Store) (int, error) {
	fixed := 0
	err := accounts.ForEachID(ctx, func(id primitive.ObjectID) error {
		// Snapshot before querying challenges so refs added in between are
		// never treated as stale.
		acct, err := accounts.GetByID(ctx, id)
		if errors.Is(err, accountstore.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		refs, err := challenges.IDsForParticipant(ctx, id)
		if err != nil {
			return err
		}
		changed, err := accounts.SyncChallengeRefs(ctx, id, acct.Challenges, refs)
		if err != nil {
			return err
		}
		if changed {
			fixed++
		}
		return nil
	})
	return fixed, err
}

// APIStatsRetentionJob creates a daily job that deletes request statistics
// buckets older than retain.
func APIStatsRetentionJob(store *apistats.Store, logger *zap.Logger, retain time.Duration) Job {
	if retain <= 0 {
		retain = 30 * 24 * time.Hour
	}
	return Job{
		Name:     APIStatsRetentionName,
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteOlderThan(ctx, time.Now().Add(-retain))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned API stats buckets", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}
