package model

import (
	"testing"
	"time"
)

// TestOldEnough_ExactBirthday はちょうど5歳の誕生日当日に登録可能なことを検証する。
func TestOldEnough_ExactBirthday(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	dob := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)

	if !OldEnough(dob, now) {
		t.Error("expected exact 5th birthday to be old enough")
	}
}

// TestOldEnough_DayBeforeBirthday は5歳の誕生日前日は登録不可なことを検証する。
func TestOldEnough_DayBeforeBirthday(t *testing.T) {
	now := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	dob := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)

	if OldEnough(dob, now) {
		t.Error("expected day before 5th birthday to be too young")
	}
}

// TestOldEnough_Adult は十分に年上の生年月日が通過することを検証する。
func TestOldEnough_Adult(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

	if !OldEnough(dob, now) {
		t.Error("expected adult date of birth to be old enough")
	}
}
