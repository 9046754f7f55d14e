package model

import "errors"

// Review はユーザーが宿泊施設に書いたレビューです。
type Review struct {
	Base
	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}

// ReviewUpdate はReviewの更新可能なフィールドです。
type ReviewUpdate struct {
	Text *string `json:"text"`
}

// NewReview は新しいReviewインスタンスを作成します。
func NewReview(placeID, userID, text string) (*Review, error) {
	r := &Review{Base: newBase(), PlaceID: placeID, UserID: userID, Text: text}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (*Review) Kind() Kind { return KindReview }

// Apply は指定されたフィールドのみを上書きします。
func (r *Review) Apply(u ReviewUpdate) {
	if u.Text != nil {
		r.Text = *u.Text
	}
}

// Validate はReviewのデータバリデーションを行います。
func (r *Review) Validate() error {
	if err := r.Base.validate(); err != nil {
		return err
	}
	if r.PlaceID == "" {
		return errors.New("place_id is required")
	}
	if r.UserID == "" {
		return errors.New("user_id is required")
	}
	if r.Text == "" {
		return errors.New("text is required")
	}
	return nil
}
