package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/example/plant-shop/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared with the existing plant shop database
const (
	PlantsCollection = "plants_info"
	CartCollection   = "cart_items"
	UsersCollection  = "users"
	BannerCollection = "banner_images"
)

// MongoStore implements Store on top of MongoDB
type MongoStore struct {
	client  *mongo.Client
	plants  *mongo.Collection
	carts   *mongo.Collection
	users   *mongo.Collection
	banners *mongo.Collection
}

type plantDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	model.Plant `bson:",inline"`
}

func (d plantDoc) toModel() model.Plant {
	p := d.Plant
	p.ID = d.ID.Hex()
	return p
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Name         string             `bson:"name,omitempty"`
	Phone        string             `bson:"phone"`
	Address      string             `bson:"address"`
	Avatar       string             `bson:"avatar"`
	Role         string             `bson:"role,omitempty"`
	Favorites    []interface{}      `bson:"favorites"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d userDoc) toModel() *model.User {
	favorites := stringValues(d.Favorites)
	role := d.Role
	if role == "" {
		role = model.RoleCustomer
	}
	return &model.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		Phone:        d.Phone,
		Address:      d.Address,
		Avatar:       d.Avatar,
		Role:         role,
		Favorites:    favorites,
		CreatedAt:    d.CreatedAt,
	}
}

// ConnectMongo dials the server and verifies the connection
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// NewMongoStore binds the store to a database
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:  client,
		plants:  db.Collection(PlantsCollection),
		carts:   db.Collection(CartCollection),
		users:   db.Collection(UsersCollection),
		banners: db.Collection(BannerCollection),
	}
}

// EnsureIndexes creates the unique indexes the atomic operations rely on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("cart index: %w", err)
	}
	_, err = s.carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("cart product index: %w", err)
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("user email index: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Plants

func (s *MongoStore) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (s *MongoStore) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc plantDoc
	if err := s.plants.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *MongoStore) GetPlantsByIDs(ctx context.Context, ids []string) ([]model.Plant, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []model.Plant{}, nil
	}
	return s.findPlants(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (s *MongoStore) ListPlants(ctx context.Context) ([]model.Plant, error) {
	return s.findPlants(ctx, bson.M{})
}

func (s *MongoStore) SearchPlants(ctx context.Context, term string) ([]model.Plant, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	return s.findPlants(ctx, bson.M{"$or": bson.A{
		bson.M{"commonName": pattern},
		bson.M{"scientificName": pattern},
	}})
}

func (s *MongoStore) findPlants(ctx context.Context, filter bson.M) ([]model.Plant, error) {
	cur, err := s.plants.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "commonName", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	plants := []model.Plant{}
	for cur.Next(ctx) {
		var doc plantDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		plants = append(plants, doc.toModel())
	}
	return plants, cur.Err()
}

func (s *MongoStore) CreatePlant(ctx context.Context, plant *model.Plant) error {
	res, err := s.plants.InsertOne(ctx, plantDoc{Plant: *plant})
	if err != nil {
		return err
	}
	plant.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) UpdatePlant(ctx context.Context, id string, patch model.PlantPatch) (*model.Plant, error) {
	current, err := s.GetPlant(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(current)

	oid, _ := primitive.ObjectIDFromHex(id)
	var doc plantDoc
	err = s.plants.FindOneAndReplace(ctx, bson.M{"_id": oid}, plantDoc{Plant: *current},
		options.FindOneAndReplace().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		return nil, mongoErr(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *MongoStore) DeletePlant(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.plants.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListBanners(ctx context.Context) ([]model.Banner, error) {
	cur, err := s.banners.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	banners := []model.Banner{}
	for cur.Next(ctx) {
		var doc struct {
			ID           primitive.ObjectID `bson:"_id"`
			model.Banner `bson:",inline"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b := doc.Banner
		b.ID = doc.ID.Hex()
		banners = append(banners, b)
	}
	return banners, cur.Err()
}

// Cart

func cartFilter(userID, productID string) bson.M {
	return bson.M{"user_id": userID, "product_id": productID}
}

func (s *MongoStore) UpsertCartEntry(ctx context.Context, userID, productID string, quantity int, commonName string) (*model.CartEntry, error) {
	now := time.Now()
	update := bson.M{
		"$set":         bson.M{"cart_count": quantity, "commonName": commonName, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var entry model.CartEntry
	if err := s.carts.FindOneAndUpdate(ctx, cartFilter(userID, productID), update, opts).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *MongoStore) AdjustCartEntry(ctx context.Context, userID, productID string, delta, max int, commonName string) (*model.CartEntry, error) {
	if delta > max || -delta > max {
		return nil, ErrOutOfRange
	}

	now := time.Now()
	filter := cartFilter(userID, productID)
	set := bson.M{"updatedAt": now}
	if commonName != "" {
		set["commonName"] = commonName
	}
	update := bson.M{"$inc": bson.M{"cart_count": delta}, "$set": set}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if delta > 0 {
		// the bound lives in the filter; an existing entry that fails it makes the
		// upsert collide with the unique index instead of inserting a duplicate
		filter["cart_count"] = bson.M{"$lte": max - delta}
		update["$setOnInsert"] = bson.M{"createdAt": now}
		opts.SetUpsert(true)
	} else {
		filter["cart_count"] = bson.M{"$gte": -delta}
	}

	var entry model.CartEntry
	err := s.carts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	if delta > 0 && mongo.IsDuplicateKeyError(err) {
		// either the entry is at the bound or a concurrent first insert won;
		// the second try sees the row and applies the filter to it
		err = s.carts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	}
	switch {
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrOutOfRange
	case errors.Is(err, mongo.ErrNoDocuments):
		if _, getErr := s.GetCartEntry(ctx, userID, productID); getErr == nil {
			return nil, ErrOutOfRange
		}
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}

	if entry.Quantity == 0 {
		_, err := s.carts.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID, "cart_count": 0})
		if err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

func (s *MongoStore) DeleteCartEntry(ctx context.Context, userID, productID string) error {
	err := s.carts.FindOneAndDelete(ctx, cartFilter(userID, productID)).Err()
	return mongoErr(err)
}

func (s *MongoStore) GetCartEntry(ctx context.Context, userID, productID string) (*model.CartEntry, error) {
	var entry model.CartEntry
	if err := s.carts.FindOne(ctx, cartFilter(userID, productID)).Decode(&entry); err != nil {
		return nil, mongoErr(err)
	}
	return &entry, nil
}

func (s *MongoStore) ListCartEntries(ctx context.Context, userID string) ([]model.CartEntry, error) {
	cur, err := s.carts.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []model.CartEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *MongoStore) CartProductIDs(ctx context.Context) ([]string, error) {
	values, err := s.carts.Distinct(ctx, "product_id", bson.M{})
	if err != nil {
		return nil, err
	}
	return stringValues(values), nil
}

func (s *MongoStore) DeleteCartEntriesByProduct(ctx context.Context, productID string) (int64, error) {
	res, err := s.carts.DeleteMany(ctx, bson.M{"product_id": productID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Users

func (s *MongoStore) CreateUser(ctx context.Context, user *model.User) error {
	doc := userDoc{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Phone:        user.Phone,
		Address:      user.Address,
		Avatar:       user.Avatar,
		Role:         user.Role,
		Favorites:    []interface{}{},
		CreatedAt:    user.CreatedAt,
	}
	res, err := s.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mongoErr(err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.Avatar != nil {
		set["avatar"] = *update.Avatar
	}
	if len(set) == 0 {
		return s.GetUser(ctx, id)
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, mongoErr(err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) ToggleFavorite(ctx context.Context, userID, productID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, ErrNotFound
	}

	// pull only matches when the id is present, so each branch is a single atomic write
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "favorites": favoriteMatch(productID)},
		bson.M{"$pull": bson.M{"favorites": favoriteMatch(productID)}})
	if err != nil {
		return false, err
	}
	if res.ModifiedCount > 0 {
		return false, nil
	}

	res, err = s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"favorites": favoriteRef(productID)}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

func (s *MongoStore) FavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Favorites, nil
}

func (s *MongoStore) FavoriteProductIDs(ctx context.Context) ([]string, error) {
	values, err := s.users.Distinct(ctx, "favorites", bson.M{})
	if err != nil {
		return nil, err
	}
	return stringValues(values), nil
}

func (s *MongoStore) RemoveFavoriteEverywhere(ctx context.Context, productID string) (int64, error) {
	res, err := s.users.UpdateMany(ctx,
		bson.M{"favorites": favoriteMatch(productID)},
		bson.M{"$pull": bson.M{"favorites": favoriteMatch(productID)}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func mongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// favoriteRef is the stored form of a favorite: an ObjectId reference to
// plants_info, as existing user documents hold them.
func favoriteRef(productID string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(productID); err == nil {
		return oid
	}
	return productID
}

// favoriteMatch matches a favorite in either stored form. Plain string ids
// may exist in documents written before references were used.
func favoriteMatch(productID string) bson.M {
	forms := bson.A{productID}
	if oid, err := primitive.ObjectIDFromHex(productID); err == nil {
		forms = append(forms, oid)
	}
	return bson.M{"$in": forms}
}

// stringValues turns stored ids, either ObjectIds or strings, into strings,
// dropping blanks and duplicates.
func stringValues(values []interface{}) []string {
	ids := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		var id string
		switch v := v.(type) {
		case primitive.ObjectID:
			id = v.Hex()
		case string:
			id = strings.TrimSpace(v)
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
