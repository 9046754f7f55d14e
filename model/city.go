package model

import "errors"

// City は州に属する都市を表すモデルです。
type City struct {
	Base
	StateID string `json:"state_id"`
	Name    string `json:"name"`
}

// CityUpdate はCityの更新可能なフィールドです。state_idは変更できません。
type CityUpdate struct {
	Name *string `json:"name"`
}

// NewCity は新しいCityインスタンスを作成します。
func NewCity(stateID, name string) (*City, error) {
	c := &City{Base: newBase(), StateID: stateID, Name: name}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (*City) Kind() Kind { return KindCity }

// Apply は指定されたフィールドのみを上書きします。
func (c *City) Apply(u CityUpdate) {
	if u.Name != nil {
		c.Name = *u.Name
	}
}

// Validate はCityのデータバリデーションを行います。
func (c *City) Validate() error {
	if err := c.Base.validate(); err != nil {
		return err
	}
	if c.StateID == "" {
		return errors.New("state_id is required")
	}
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
