// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend connections created in ConnectDB and passed to
// EnsureSchema, Startup, BuildHandler and Shutdown. Shutdown closes them.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}
