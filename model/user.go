package model

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// User はユーザーを表すモデルです。Passwordはbcryptハッシュを保持します。
type User struct {
	Base
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserUpdate はUserの更新可能なフィールドです。emailは変更できません。
type UserUpdate struct {
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// NewUser は新しいUserインスタンスを作成します。passwordは平文で受け取りハッシュ化します。
func NewUser(email, password, firstName, lastName string) (*User, error) {
	u := &User{
		Base:      newBase(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (*User) Kind() Kind { return KindUser }

// SetPassword はパスワードをハッシュ化して設定します。
func (u *User) SetPassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword は平文のパスワードがハッシュと一致するか確認します。
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Apply は指定されたフィールドのみを上書きします。
func (u *User) Apply(upd UserUpdate) error {
	if upd.Password != nil {
		if err := u.SetPassword(*upd.Password); err != nil {
			return err
		}
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	return nil
}

// Public はパスワードを除いたコピーを返します。
func (u *User) Public() *User {
	c := *u
	c.Password = ""
	return &c
}

// Validate はUserのデータバリデーションを行います。
func (u *User) Validate() error {
	if err := u.Base.validate(); err != nil {
		return err
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
