package model

import "errors"

// State は州を表すモデルです。
type State struct {
	Base
	Name string `json:"name"`
}

// StateUpdate はStateの更新可能なフィールドです。
type StateUpdate struct {
	Name *string `json:"name"`
}

// NewState は新しいStateインスタンスを作成します。
func NewState(name string) (*State, error) {
	s := &State{Base: newBase(), Name: name}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (*State) Kind() Kind { return KindState }

// Apply は指定されたフィールドのみを上書きします。
func (s *State) Apply(u StateUpdate) {
	if u.Name != nil {
		s.Name = *u.Name
	}
}

// Validate はStateのデータバリデーションを行います。
func (s *State) Validate() error {
	if err := s.Base.validate(); err != nil {
		return err
	}
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
