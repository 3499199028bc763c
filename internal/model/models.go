package model

import "time"

// CareTips describes how to look after a plant
type CareTips struct {
	Light       string `json:"light" bson:"light"`
	Water       string `json:"water" bson:"water"`
	Soil        string `json:"soil" bson:"soil"`
	Temperature string `json:"temperature" bson:"temperature"`
}

// Plant is a catalog entry. Cart lines and favorites reference it by ID.
type Plant struct {
	ID             string    `json:"_id" bson:"-"`
	CommonName     string    `json:"commonName" bson:"commonName"`
	ScientificName string    `json:"scientificName" bson:"scientificName"`
	Category       string    `json:"category,omitempty" bson:"category,omitempty"`
	Description    string    `json:"description,omitempty" bson:"description,omitempty"`
	CareTips       *CareTips `json:"careTips,omitempty" bson:"careTips,omitempty"`
	Price          float64   `json:"price" bson:"price"`
	Image          string    `json:"image,omitempty" bson:"image,omitempty"`
	ImageURL       string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Toxicity       string    `json:"toxicity,omitempty" bson:"toxicity,omitempty"`
	Maintenance    string    `json:"maintenance,omitempty" bson:"maintenance,omitempty"`
	AirPurifying   bool      `json:"airPurifying" bson:"airPurifying"`
}

// Banner is a promotional image shown on the home screen
type Banner struct {
	ID        string    `json:"_id" bson:"-"`
	FileName  string    `json:"file_name" bson:"file_name"`
	FilePath  string    `json:"file_path" bson:"file_path"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// PlantPatch carries a partial plant update; nil fields are left untouched
type PlantPatch struct {
	CommonName     *string   `json:"commonName,omitempty"`
	ScientificName *string   `json:"scientificName,omitempty"`
	Category       *string   `json:"category,omitempty"`
	Description    *string   `json:"description,omitempty"`
	CareTips       *CareTips `json:"careTips,omitempty"`
	Price          *float64  `json:"price,omitempty"`
	Image          *string   `json:"image,omitempty"`
	ImageURL       *string   `json:"image_url,omitempty"`
	Toxicity       *string   `json:"toxicity,omitempty"`
	Maintenance    *string   `json:"maintenance,omitempty"`
	AirPurifying   *bool     `json:"airPurifying,omitempty"`
}

// Apply copies the non-nil fields of the patch onto p
func (patch PlantPatch) Apply(p *Plant) {
	if patch.CommonName != nil {
		p.CommonName = *patch.CommonName
	}
	if patch.ScientificName != nil {
		p.ScientificName = *patch.ScientificName
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CareTips != nil {
		tips := *patch.CareTips
		p.CareTips = &tips
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Toxicity != nil {
		p.Toxicity = *patch.Toxicity
	}
	if patch.Maintenance != nil {
		p.Maintenance = *patch.Maintenance
	}
	if patch.AirPurifying != nil {
		p.AirPurifying = *patch.AirPurifying
	}
}

// CartEntry is the stored quantity a user intends to buy of one product.
// CommonName is a snapshot taken at the last write and may lag the catalog.
type CartEntry struct {
	UserID     string    `json:"user_id" bson:"user_id"`
	ProductID  string    `json:"product_id" bson:"product_id"`
	CommonName string    `json:"commonName" bson:"commonName"`
	Quantity   int       `json:"cart_count" bson:"cart_count"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CartLine is a cart entry joined with the live catalog at read time
type CartLine struct {
	UserID         string    `json:"user_id"`
	ProductID      string    `json:"product_id"`
	Quantity       int       `json:"cart_count"`
	CommonName     string    `json:"commonName"`
	ScientificName string    `json:"scientificName"`
	Price          float64   `json:"price"`
	ImageURL       string    `json:"image_url"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewCartLine enriches an entry with the current plant data
func NewCartLine(entry CartEntry, plant Plant) CartLine {
	return CartLine{
		UserID:         entry.UserID,
		ProductID:      entry.ProductID,
		Quantity:       entry.Quantity,
		CommonName:     plant.CommonName,
		ScientificName: plant.ScientificName,
		Price:          plant.Price,
		ImageURL:       plant.ImageURL,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
}

// User profile defaults
const (
	DefaultPhone   = "N/A"
	DefaultAddress = "N/A"
	DefaultAvatar  = "https://placehold.co/200x200"
)

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User owns the favorites set by value
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Avatar       string    `json:"avatar"`
	Role         string    `json:"role"`
	Favorites    []string  `json:"favorites"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProfileUpdate holds the editable profile fields; nil means unchanged
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Avatar  *string `json:"avatar,omitempty"`
}
