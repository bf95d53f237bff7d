package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard-service/logging"
	"taskboard-service/models"
	"taskboard-service/utils"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultRole = "member"

// dummyHash keeps login timing flat when the email does not resolve: the
// bcrypt comparison runs either way, so the response does not reveal
// whether the account exists.
var dummyHash, _ = utils.HashPassword("taskboard-dummy-credential")

type UserService struct {
	UserCollection *mongo.Collection
	JWTService     *JWTService
	Breaker        *gobreaker.CircuitBreaker
}

func NewUserService(userCollection *mongo.Collection, jwtService *JWTService, breaker *gobreaker.CircuitBreaker) *UserService {
	return &UserService{
		UserCollection: userCollection,
		JWTService:     jwtService,
		Breaker:        breaker,
	}
}

// EnsureIndexes creates the unique email index that backs the duplicate
// registration check against concurrent inserts.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Register stores a new user with a one-way password hash. A taken email
// yields ErrEmailTaken and leaves the existing record untouched.
func (s *UserService) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if role == "" {
		role = defaultRole
	}

	_, err := guard(s.Breaker, func() (interface{}, error) {
		var existing models.User
		if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&existing); err != nil {
			return nil, err
		}
		return &existing, nil
	})
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	_, err = guard(s.Breaker, func() (interface{}, error) {
		return s.UserCollection.InsertOne(ctx, user)
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: New user registered: %s", email)
	return user, nil
}

// Login verifies the credentials and issues a session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	res, err := guard(s.Breaker, func() (interface{}, error) {
		var user models.User
		if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
			return nil, err
		}
		return &user, nil
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.CheckPassword(dummyHash, password)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	user := res.(*models.User)
	if !utils.CheckPassword(user.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.JWTService.GenerateSessionToken(user.ID.Hex())
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	return user, token, nil
}

// GetProfile returns the full user record for the current session.
func (s *UserService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	res, err := guard(s.Breaker, func() (interface{}, error) {
		var user models.User
		if err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			return nil, err
		}
		return &user, nil
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return res.(*models.User), nil
}

// ListUsers returns every user projected down to the display fields.
func (s *UserService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	res, err := guard(s.Breaker, func() (interface{}, error) {
		opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
		cursor, err := s.UserCollection.Find(ctx, bson.M{}, opts)
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var users []models.UserSummary
		if err := cursor.All(ctx, &users); err != nil {
			return nil, err
		}
		return users, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	users := res.([]models.UserSummary)
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}
