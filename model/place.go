package model

import "errors"

// Place は都市にある宿泊施設を表すモデルです。
type Place struct {
	Base
	CityID          string  `json:"city_id"`
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	NumberRooms     int     `json:"number_rooms"`
	NumberBathrooms int     `json:"number_bathrooms"`
	MaxGuest        int     `json:"max_guest"`
	PriceByNight    int     `json:"price_by_night"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

// PlaceUpdate はPlaceの更新可能なフィールドです。city_idとuser_idは変更できません。
type PlaceUpdate struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	NumberRooms     *int     `json:"number_rooms"`
	NumberBathrooms *int     `json:"number_bathrooms"`
	MaxGuest        *int     `json:"max_guest"`
	PriceByNight    *int     `json:"price_by_night"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

// NewPlace は新しいPlaceインスタンスを作成します。詳細フィールドはApplyで設定します。
func NewPlace(cityID, userID, name string) (*Place, error) {
	p := &Place{Base: newBase(), CityID: cityID, UserID: userID, Name: name}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (*Place) Kind() Kind { return KindPlace }

// Apply は指定されたフィールドのみを上書きします。
func (p *Place) Apply(u PlaceUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.NumberRooms != nil {
		p.NumberRooms = *u.NumberRooms
	}
	if u.NumberBathrooms != nil {
		p.NumberBathrooms = *u.NumberBathrooms
	}
	if u.MaxGuest != nil {
		p.MaxGuest = *u.MaxGuest
	}
	if u.PriceByNight != nil {
		p.PriceByNight = *u.PriceByNight
	}
	if u.Latitude != nil {
		p.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		p.Longitude = *u.Longitude
	}
}

// Validate はPlaceのデータバリデーションを行います。
func (p *Place) Validate() error {
	if err := p.Base.validate(); err != nil {
		return err
	}
	if p.CityID == "" {
		return errors.New("city_id is required")
	}
	if p.UserID == "" {
		return errors.New("user_id is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.NumberRooms < 0 || p.NumberBathrooms < 0 || p.MaxGuest < 0 || p.PriceByNight < 0 {
		return errors.New("capacity and price must not be negative")
	}
	return nil
}
