package model

import "errors"

// Amenity は宿泊施設の設備を表すモデルです。
type Amenity struct {
	Base
	Name string `json:"name"`
}

// AmenityUpdate はAmenityの更新可能なフィールドです。
type AmenityUpdate struct {
	Name *string `json:"name"`
}

// NewAmenity は新しいAmenityインスタンスを作成します。
func NewAmenity(name string) (*Amenity, error) {
	a := &Amenity{Base: newBase(), Name: name}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func (*Amenity) Kind() Kind { return KindAmenity }

// Apply は指定されたフィールドのみを上書きします。
func (a *Amenity) Apply(u AmenityUpdate) {
	if u.Name != nil {
		a.Name = *u.Name
	}
}

// Validate はAmenityのデータバリデーションを行います。
func (a *Amenity) Validate() error {
	if err := a.Base.validate(); err != nil {
		return err
	}
	if a.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
