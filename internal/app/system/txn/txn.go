// Package txn runs multi-document writes atomically where the deployment
// supports it.
//
// Creating a challenge writes the challenge document and the back-references
// on both fighter accounts:
//
//	err := txn.Run(ctx, db, log, func(ctx context.Context) error {
//	    if err := challenges.Insert(ctx, c); err != nil {
//	        return err
//	    }
//	    return accounts.AddChallengeRef(ctx, c.ID, c.Challenger, c.Challenged)
//	})
//
// Standalone servers reject transactions. The first rejection is remembered
// per client and later calls run fn directly; the back-reference reconcile
// job repairs anything a failed non-transactional run leaves behind.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// Func is the unit of work. ctx is a mongo.SessionContext inside a
// transaction and the caller's context otherwise.
type Func func(ctx context.Context) error

// unsupported records clients known to reject transactions.
var unsupported sync.Map // *mongo.Client -> struct{}

// Run executes fn in a transaction when possible. The error from fn is
// returned unchanged so callers can match store sentinel errors. log may be
// nil.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn Func) error {
	client := db.Client()
	if _, known := unsupported.Load(client); known {
		return fn(ctx)
	}

	session, err := client.StartSession()
	if err != nil {
		warn(log, "start session failed, running without transaction", err)
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	}, opts)
	if err == nil {
		return nil
	}
	if !IsNotSupported(err) {
		return err
	}

	unsupported.Store(client, struct{}{})
	warn(log, "transactions not supported, running without transaction", err)
	return fn(ctx)
}

func warn(log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Warn(msg, zap.Error(err))
	}
}

// Server error codes returned when the deployment cannot run transactions.
const (
	codeNoReplicaSet     = 20  // IllegalOperation: transaction numbers need a replica set
	codeIllegalOperation = 51  // DocumentDB with transactions disabled
	codeNotInTransaction = 263 // OperationNotSupportedInTransaction
)

// IsNotSupported reports whether err means the deployment rejected the
// transaction itself rather than the work inside it.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var se mongo.ServerError
	if errors.As(err, &se) {
		for _, code := range []int{codeNoReplicaSet, codeIllegalOperation, codeNotInTransaction} {
			if se.HasErrorCode(code) {
				return true
			}
		}
	}

	// Some proxies rewrap the server error as plain text.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "transaction") &&
		(strings.Contains(msg, "replica set") || strings.Contains(msg, "not supported"))
}
