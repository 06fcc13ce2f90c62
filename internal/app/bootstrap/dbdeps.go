// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook, so state built in Startup
// and consumed by BuildHandler and Shutdown lives behind the Runtime
// pointer allocated in ConnectDB.
type DBDeps struct {
	FanZoneMongoClient   *mongo.Client
	FanZoneMongoDatabase *mongo.Database

	Runtime *Runtime
}
