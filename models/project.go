package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project owns its task set; tasks reference it by ID. Members are stored as
// user references and expanded to display projections on the way out.
type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CreatorRef is the createdBy display projection.
type CreatorRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}

// ProjectView is a Project with its user references expanded.
type ProjectView struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CreatedBy   CreatorRef         `json:"createdBy"`
	Members     []UserSummary      `json:"members"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// MergeMembers builds the member set for a new project: the creator plus the
// requested members, duplicates dropped, first occurrence order kept. The
// creator is always a member, even when absent from (or repeated in) the
// request.
func MergeMembers(creator primitive.ObjectID, memberIDs []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(memberIDs)+1)
	merged := make([]primitive.ObjectID, 0, len(memberIDs)+1)

	for _, id := range append([]primitive.ObjectID{creator}, memberIDs...) {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}

	return merged
}
