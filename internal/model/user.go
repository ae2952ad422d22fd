// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// EmailとNicknameはDBのUNIQUE制約で一意性が保証される。
// PasswordHashは常にbcryptハッシュであり、平文パスワードは保持しない。
type User struct {
	ID              string
	Email           string
	Nickname        string
	PasswordHash    string
	DateOfBirth     time.Time
	Biography       string
	ProfileImageKey string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MinAgeYears は登録可能な最低年齢。
const MinAgeYears = 5

// OldEnough は基準日nowにおいて生年月日dobが最低年齢を満たすかを返す。
// ちょうど5歳の誕生日当日は満たす。前日は満たさない。
func OldEnough(dob, now time.Time) bool {
	cutoff := now.AddDate(-MinAgeYears, 0, 0)
	return !dob.After(cutoff)
}
