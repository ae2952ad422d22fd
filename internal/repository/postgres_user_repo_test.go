package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/hitoshi/microblog/internal/model"
)

// TestMapUserUniqueViolation_Email はemail制約違反がEMAIL_TAKENに変換されることを検証する。
func TestMapUserUniqueViolation_Email(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_unique"}

	apiErr := mapUserUniqueViolation(pqErr)
	if apiErr == nil {
		t.Fatal("expected APIError, got nil")
	}
	if apiErr.Code != model.ErrCodeEmailTaken {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeEmailTaken)
	}
}

// TestMapUserUniqueViolation_Nickname はnickname制約違反がNICKNAME_TAKENに変換されることを検証する。
func TestMapUserUniqueViolation_Nickname(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "users_nickname_unique"}

	apiErr := mapUserUniqueViolation(pqErr)
	if apiErr == nil {
		t.Fatal("expected APIError, got nil")
	}
	if apiErr.Code != model.ErrCodeNicknameTaken {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeNicknameTaken)
	}
}

// TestMapUserUniqueViolation_Wrapped はラップされたpqエラーも変換されることを検証する。
func TestMapUserUniqueViolation_Wrapped(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_unique"}
	wrapped := fmt.Errorf("insert failed: %w", pqErr)

	if apiErr := mapUserUniqueViolation(wrapped); apiErr == nil {
		t.Fatal("expected APIError for wrapped pq error, got nil")
	}
}

// TestMapUserUniqueViolation_OtherError は制約違反以外のエラーにnilを返すことを検証する。
func TestMapUserUniqueViolation_OtherError(t *testing.T) {
	if apiErr := mapUserUniqueViolation(errors.New("connection refused")); apiErr != nil {
		t.Errorf("expected nil for non-pq error, got %v", apiErr)
	}

	pqErr := &pq.Error{Code: "23503", Constraint: "posts_user_id_fkey"}
	if apiErr := mapUserUniqueViolation(pqErr); apiErr != nil {
		t.Errorf("expected nil for non-unique-violation, got %v", apiErr)
	}

	pqErr = &pq.Error{Code: "23505", Constraint: "unknown_constraint"}
	if apiErr := mapUserUniqueViolation(pqErr); apiErr != nil {
		t.Errorf("expected nil for unknown constraint, got %v", apiErr)
	}
}
