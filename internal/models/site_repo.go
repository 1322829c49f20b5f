package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SitesRepo interface {
	CreateSite(ctx context.Context, site *Site) (*Site, error)
	GetSiteByID(ctx context.Context, id primitive.ObjectID) (*Site, error)
	ListSitesByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*Site, int, error)
}

func (mdb *MongodbRepo) CreateSite(ctx context.Context, site *Site) (*Site, error) {
	if err := site.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare site for creation: %w", err)
	}
	col, err := mdb.GetCollection(ctx, DbName, SitesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	_, err = col.InsertOne(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("error inserting site: %w", err)
	}
	return site, nil
}

func (mdb *MongodbRepo) GetSiteByID(ctx context.Context, id primitive.ObjectID) (*Site, error) {
	col, err := mdb.GetCollection(ctx, DbName, SitesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var site Site
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&site)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding site: %w", err)
	}
	return &site, nil
}

func (mdb *MongodbRepo) ListSitesByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*Site, int, error) {
	col, err := mdb.GetCollection(ctx, DbName, SitesColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"host_id": hostID}
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting sites: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding sites: %w", err)
	}
	defer cursor.Close(ctx)

	var sites []*Site
	for cursor.Next(ctx) {
		var s Site
		if err := cursor.Decode(&s); err != nil {
			return nil, 0, fmt.Errorf("error decoding site: %w", err)
		}
		sites = append(sites, &s)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %w", err)
	}

	return sites, int(total), nil
}
