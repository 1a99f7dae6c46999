package model

import "time"

// Store represents a rateable store.  AverageRating and TotalRatings
// are a denormalized cache of the ratings table for this store; they
// are never written directly by handlers, only refreshed inside the
// same transaction as a rating write.  A store may exist without an
// owner until an admin assigns one.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – unique store name.
//  Address       – postal address shown in listings.
//  OwnerID       – user ID of the owning user (nullable).
//  AverageRating – mean of ratings.rating for this store.
//  TotalRatings  – count of ratings rows for this store.
//  CreatedAt     – timestamp when the store was created.
//  UpdatedAt     – timestamp of last update.
type Store struct {
    ID            uint64    // stores.id
    Name          string    // stores.name
    Address       string    // stores.address
    OwnerID       *uint64   // stores.owner_id (nullable)
    AverageRating float64   // stores.average_rating
    TotalRatings  uint32    // stores.total_ratings
    CreatedAt     time.Time // stores.created_at
    UpdatedAt     time.Time // stores.updated_at
}
