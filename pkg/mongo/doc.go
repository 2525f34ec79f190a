// Package mongo connects to MongoDB for the attachment document store.
//
// Configuration comes from MONGODB_* environment variables (see Config).
// New retries the connect-and-ping sequence RetryAttempts times, waiting
// RetryInterval between attempts, and stops early when the context ends.
//
// # Usage
//
//	import "github.com/dmitrymomot/cleanmedia/pkg/mongo"
//
//	cfg := mongo.Config{
//		ConnectionURL: "mongodb://localhost:27017",
//		Database:      "cleanmedia",
//		RetryAttempts: 3,
//		RetryInterval: 2 * time.Second,
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	check := mongo.Healthcheck(db.Client())
//
// # Errors
//
// Connection failures match ErrFailedToConnectToMongo with errors.Is and carry
// the last driver error. Failed health checks match ErrHealthcheckFailed.
package mongo
