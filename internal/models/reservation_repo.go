package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReservationsRepo interface {
	InsertReservation(ctx context.Context, r *Reservation) error
	GetReservationByID(ctx context.Context, id primitive.ObjectID) (*Reservation, error)
	GetReservationByOrderRef(ctx context.Context, orderRef string) (*Reservation, error)
	ListReservationsByGuest(ctx context.Context, guestID uuid.UUID, offset, limit int) ([]*Reservation, int, error)
	ListReservationsByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*Reservation, int, error)
	FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*Reservation, error)
	FindElapsedConfirmed(ctx context.Context, now time.Time) ([]*Reservation, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from ReservationStatus, set bson.M) (*Reservation, error)
}

func (mdb *MongodbRepo) InsertReservation(ctx context.Context, r *Reservation) error {
	if err := r.BeforeCreate(); err != nil {
		return fmt.Errorf("failed to prepare reservation: %w", err)
	}
	col, err := mdb.GetCollection(ctx, DbName, ReservationColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	_, err = col.InsertOne(ctx, r)
	if err != nil {
		return fmt.Errorf("error inserting reservation: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetReservationByID(ctx context.Context, id primitive.ObjectID) (*Reservation, error) {
	col, err := mdb.GetCollection(ctx, DbName, ReservationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var r Reservation
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding reservation: %w", err)
	}
	return &r, nil
}

func (mdb *MongodbRepo) GetReservationByOrderRef(ctx context.Context, orderRef string) (*Reservation, error) {
	col, err := mdb.GetCollection(ctx, DbName, ReservationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var r Reservation
	err = col.FindOne(ctx, bson.M{"order_ref": orderRef}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding reservation by order ref: %w", err)
	}
	return &r, nil
}

func (mdb *MongodbRepo) ListReservationsByGuest(ctx context.Context, guestID uuid.UUID, offset, limit int) ([]*Reservation, int, error) {
	return mdb.listReservations(ctx, bson.M{"guest_id": guestID}, offset, limit)
}

func (mdb *MongodbRepo) ListReservationsByHost(ctx context.Context, hostID uuid.UUID, offset, limit int) ([]*Reservation, int, error) {
	return mdb.listReservations(ctx, bson.M{"host_id": hostID}, offset, limit)
}

func (mdb *MongodbRepo) listReservations(ctx context.Context, filter bson.M, offset, limit int) ([]*Reservation, int, error) {
	col, err := mdb.GetCollection(ctx, DbName, ReservationColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting reservations: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*Reservation
	for cursor.Next(ctx) {
		var r Reservation
		if err := cursor.Decode(&r); err != nil {
			return nil, 0, fmt.Errorf("error decoding reservation: %w", err)
		}
		reservations = append(reservations, &r)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %w", err)
	}

	return reservations, int(total), nil
}

// FindExpiredPending selects unpaid pending reservations created before the
// cutoff. The sweeper re-checks state with a conditional write before
// touching any of them.
func (mdb *MongodbRepo) FindExpiredPending(ctx context.Context, cutoff time.Time) ([]*Reservation, error) {
	return mdb.findByStatus(ctx, bson.M{
		"status":         ReservationPending,
		"payment_status": bson.M{"$ne": PaymentPaid},
		"created_at":     bson.M{"$lt": cutoff},
	})
}

// FindElapsedConfirmed selects confirmed reservations whose stay has ended.
func (mdb *MongodbRepo) FindElapsedConfirmed(ctx context.Context, now time.Time) ([]*Reservation, error) {
	return mdb.findByStatus(ctx, bson.M{
		"status":    ReservationConfirmed,
		"check_out": bson.M{"$lte": now},
	})
}

func (mdb *MongodbRepo) findByStatus(ctx context.Context, filter bson.M) ([]*Reservation, error) {
	col, err := mdb.GetCollection(ctx, DbName, ReservationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*Reservation
	for cursor.Next(ctx) {
		var r Reservation
		if err := cursor.Decode(&r); err != nil {
			return nil, fmt.Errorf("error decoding reservation: %w", err)
		}
		reservations = append(reservations, &r)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return reservations, nil
}

// TransitionStatus applies a lifecycle move as a compare-and-swap: the
// update only lands if the reservation is still in the expected state. When
// the CAS misses, the current document decides the error: a vanished id is
// ErrNotFound, anything else means another writer moved the state first and
// surfaces as ErrInvalidTransition carrying the observed status.
func (mdb *MongodbRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from ReservationStatus, set bson.M) (*Reservation, error) {
	col, err := mdb.GetCollection(ctx, DbName, ReservationColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	set["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Reservation
	err = col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
		opts,
	).Decode(&updated)

	if errors.Is(err, mongo.ErrNoDocuments) {
		current, getErr := mdb.GetReservationByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: expected %s, found %s", ErrInvalidTransition, from, current.Status)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating reservation: %w", err)
	}
	return &updated, nil
}
