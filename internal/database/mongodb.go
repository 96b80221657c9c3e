package database

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type MongoDB struct {
	Client       *mongo.Client
	Database     *mongo.Database
	transactions bool
}

func NewMongoDB(uri, dbName string, transactions bool) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Nested documents (audit details) decode as maps so they render as JSON objects.
	clientOptions := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"database": dbName, "transactions": transactions}).Info("connected to MongoDB")

	return &MongoDB{
		Client:       client,
		Database:     client.Database(dbName),
		transactions: transactions,
	}, nil
}

func (m *MongoDB) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

// RunInTx runs fn inside a multi-document transaction. The context passed to
// fn carries the session, so repositories called with it join the
// transaction. With transactions disabled (standalone servers) fn runs
// directly.
func (m *MongoDB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}

// Collection helpers
func (m *MongoDB) Boards() *mongo.Collection {
	return m.Database.Collection("boards")
}

func (m *MongoDB) Tasks() *mongo.Collection {
	return m.Database.Collection("tasks")
}

func (m *MongoDB) Invites() *mongo.Collection {
	return m.Database.Collection("board_invites")
}

func (m *MongoDB) Audit() *mongo.Collection {
	return m.Database.Collection("audit_entries")
}

func (m *MongoDB) Users() *mongo.Collection {
	return m.Database.Collection("users")
}
