package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CalendarEntry is the per-site occupancy record, one document per site
// (unique index on site_id). Exclusive sites track the set of claimed
// dates; pooled sites track a per-date hold counter. The reserve path is a
// single conditional UpdateOne whose filter re-asserts availability, so two
// racing booking attempts can never both commit — the losing write simply
// matches no document.
type CalendarEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SiteID    primitive.ObjectID `bson:"site_id" json:"site_id"`
	Booked    []string           `bson:"booked,omitempty" json:"booked,omitempty"`
	Counts    map[string]int     `bson:"counts,omitempty" json:"counts,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// CanHold reports whether every date in dates could accept one more hold
// under the given capacity mode.
func (e *CalendarEntry) CanHold(mode CapacityMode, dates []string) bool {
	return e.Load(dates)+1 <= mode.Limit()
}

// Load returns the highest number of holds any of the given dates carries.
func (e *CalendarEntry) Load(dates []string) int {
	if e == nil {
		return 0
	}
	booked := make(map[string]bool, len(e.Booked))
	for _, d := range e.Booked {
		booked[d] = true
	}
	max := 0
	for _, d := range dates {
		n := e.Counts[d]
		if booked[d] {
			n++
		}
		if n > max {
			max = n
		}
	}
	return max
}

type CalendarRepo interface {
	Reserve(ctx context.Context, site *Site, dates []string) error
	Release(ctx context.Context, siteID primitive.ObjectID, mode CapacityMode, dates []string) error
	GetCalendar(ctx context.Context, siteID primitive.ObjectID) (*CalendarEntry, error)
}

// reserveFilter builds the conditional-write filter that holds only while
// the requested dates are still free for one more occupant.
func reserveFilter(siteID primitive.ObjectID, mode CapacityMode, dates []string) bson.M {
	if !mode.IsPooled() {
		return bson.M{
			"site_id": siteID,
			"booked":  bson.M{"$nin": dates},
		}
	}
	conds := make([]bson.M, 0, len(dates))
	for _, d := range dates {
		field := "counts." + d
		conds = append(conds, bson.M{"$or": []bson.M{
			{field: bson.M{"$lt": mode.MaxConcurrent}},
			{field: bson.M{"$exists": false}},
		}})
	}
	return bson.M{"site_id": siteID, "$and": conds}
}

func reserveUpdate(mode CapacityMode, dates []string, now time.Time) bson.M {
	if !mode.IsPooled() {
		return bson.M{
			"$addToSet": bson.M{"booked": bson.M{"$each": dates}},
			"$set":      bson.M{"updated_at": now},
		}
	}
	incs := bson.M{}
	for _, d := range dates {
		incs["counts."+d] = 1
	}
	return bson.M{"$inc": incs, "$set": bson.M{"updated_at": now}}
}

func releaseUpdate(mode CapacityMode, dates []string, now time.Time) bson.M {
	if !mode.IsPooled() {
		return bson.M{
			"$pull": bson.M{"booked": bson.M{"$in": dates}},
			"$set":  bson.M{"updated_at": now},
		}
	}
	incs := bson.M{}
	for _, d := range dates {
		incs["counts."+d] = -1
	}
	return bson.M{"$inc": incs, "$set": bson.M{"updated_at": now}}
}

// ensureCalendar upserts the site's calendar document so the conditional
// reserve write has a document to match.
func (mdb *MongodbRepo) ensureCalendar(ctx context.Context, col *mongo.Collection, siteID primitive.ObjectID) error {
	now := time.Now()
	_, err := col.UpdateOne(ctx,
		bson.M{"site_id": siteID},
		bson.M{"$setOnInsert": bson.M{"site_id": siteID, "updated_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("error ensuring calendar document: %w", err)
	}
	return nil
}

// Reserve atomically claims the given dates for one occupant. The
// availability check and the claim are the same store-level write; a filter
// miss means another reservation won the dates and surfaces as ErrConflict.
func (mdb *MongodbRepo) Reserve(ctx context.Context, site *Site, dates []string) error {
	if len(dates) == 0 {
		return fmt.Errorf("%w: empty date range", ErrInvalidStay)
	}
	col, err := mdb.GetCollection(ctx, DbName, CalendarColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	if err := mdb.ensureCalendar(ctx, col, site.ID); err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx,
		reserveFilter(site.ID, site.Capacity, dates),
		reserveUpdate(site.Capacity, dates, time.Now()),
	)
	if err != nil {
		return fmt.Errorf("error reserving dates: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// Release gives back previously claimed dates. Used on expiry, cancellation
// and creation rollback; releasing is never conditional.
func (mdb *MongodbRepo) Release(ctx context.Context, siteID primitive.ObjectID, mode CapacityMode, dates []string) error {
	if len(dates) == 0 {
		return nil
	}
	col, err := mdb.GetCollection(ctx, DbName, CalendarColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	_, err = col.UpdateOne(ctx,
		bson.M{"site_id": siteID},
		releaseUpdate(mode, dates, time.Now()),
	)
	if err != nil {
		return fmt.Errorf("error releasing dates: %w", err)
	}
	return nil
}

// GetCalendar fetches the site's occupancy record. A missing document means
// an empty calendar, not an error.
func (mdb *MongodbRepo) GetCalendar(ctx context.Context, siteID primitive.ObjectID) (*CalendarEntry, error) {
	col, err := mdb.GetCollection(ctx, DbName, CalendarColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var entry CalendarEntry
	err = col.FindOne(ctx, bson.M{"site_id": siteID}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &CalendarEntry{SiteID: siteID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding calendar: %w", err)
	}
	return &entry, nil
}
