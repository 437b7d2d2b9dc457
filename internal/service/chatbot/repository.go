package chatbot

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"docvia-widget/internal/database"
	"docvia-widget/internal/model"
)

var (
	ErrNotFound      = errors.New("chatbot repository: not found")
	ErrAlreadyExists = errors.New("chatbot repository: already exists")
)

type Repository interface {
	GetApp(ctx context.Context, appID string) (model.AppItem, error)
	CreateApp(ctx context.Context, app model.AppItem) error
	GetAppKey(ctx context.Context, keyID string) (model.AppKeyItem, error)
	CreateAppKey(ctx context.Context, key model.AppKeyItem) error
	TouchAppKey(ctx context.Context, keyID, usedAt string) error
	GetVisitor(ctx context.Context, appID, visitorID string) (model.VisitorItem, error)
	CreateVisitor(ctx context.Context, visitor model.VisitorItem) error
	TouchVisitor(ctx context.Context, appID, visitorID, seenAt string) error
	CreateQuery(ctx context.Context, query model.QueryItem) error
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetApp(ctx context.Context, appID string) (model.AppItem, error) {
	var app model.AppItem
	err := r.db.Client.GetItem(
		ctx,
		model.AppsTable,
		map[string]types.AttributeValue{
			"appId": database.AttrString(appID),
		},
		&app,
	)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.AppItem{}, ErrNotFound
		}
		return model.AppItem{}, err
	}
	return app, nil
}

func (r *DynamoRepository) CreateApp(ctx context.Context, app model.AppItem) error {
	return r.putIfAbsent(ctx, model.AppsTable, "appId", app)
}

func (r *DynamoRepository) GetAppKey(ctx context.Context, keyID string) (model.AppKeyItem, error) {
	var key model.AppKeyItem
	err := r.db.Client.GetItem(
		ctx,
		model.AppKeysTable,
		map[string]types.AttributeValue{
			"keyId": database.AttrString(keyID),
		},
		&key,
	)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.AppKeyItem{}, ErrNotFound
		}
		return model.AppKeyItem{}, err
	}
	return key, nil
}

func (r *DynamoRepository) CreateAppKey(ctx context.Context, key model.AppKeyItem) error {
	return r.putIfAbsent(ctx, model.AppKeysTable, "keyId", key)
}

func (r *DynamoRepository) TouchAppKey(ctx context.Context, keyID, usedAt string) error {
	return r.db.Client.UpdateItem(
		ctx,
		model.AppKeysTable,
		map[string]types.AttributeValue{
			"keyId": database.AttrString(keyID),
		},
		"SET lastUsedAt = :usedAt",
		map[string]types.AttributeValue{
			":usedAt": database.AttrString(usedAt),
		},
		nil,
		nil,
	)
}

func (r *DynamoRepository) GetVisitor(ctx context.Context, appID, visitorID string) (model.VisitorItem, error) {
	var visitor model.VisitorItem
	err := r.db.Client.GetItem(
		ctx,
		model.VisitorsTable,
		map[string]types.AttributeValue{
			"pk": database.AttrString(model.AppScopedPK(appID, visitorID)),
		},
		&visitor,
	)
	if err != nil {
		if errors.Is(err, database.ErrItemNotFound) {
			return model.VisitorItem{}, ErrNotFound
		}
		return model.VisitorItem{}, err
	}
	return visitor, nil
}

func (r *DynamoRepository) CreateVisitor(ctx context.Context, visitor model.VisitorItem) error {
	visitor.PK = model.AppScopedPK(visitor.AppID, visitor.VisitorID)
	return r.putIfAbsent(ctx, model.VisitorsTable, "pk", visitor)
}

func (r *DynamoRepository) TouchVisitor(ctx context.Context, appID, visitorID, seenAt string) error {
	return r.db.Client.UpdateItem(
		ctx,
		model.VisitorsTable,
		map[string]types.AttributeValue{
			"pk": database.AttrString(model.AppScopedPK(appID, visitorID)),
		},
		"SET lastSeenAt = :seenAt",
		map[string]types.AttributeValue{
			":seenAt": database.AttrString(seenAt),
		},
		nil,
		nil,
	)
}

func (r *DynamoRepository) CreateQuery(ctx context.Context, query model.QueryItem) error {
	query.PK = model.AppScopedPK(query.AppID, query.QueryID)
	return r.db.Client.PutItem(ctx, model.QueriesTable, query)
}

func (r *DynamoRepository) putIfAbsent(ctx context.Context, table, keyAttr string, item interface{}) error {
	err := r.db.Client.PutItemIfAbsent(ctx, table, keyAttr, item)
	if errors.Is(err, database.ErrConditionFailed) {
		return ErrAlreadyExists
	}
	return err
}
