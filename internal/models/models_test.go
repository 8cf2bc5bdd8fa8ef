package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"task-tracker/backend/internal/models"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"john_doe", "alice1", "Ab-9", "user-name_42"}
	for _, username := range valid {
		if err := models.ValidateUsername(username); err != nil {
			t.Errorf("Expected %q to be valid, got %v", username, err)
		}
	}

	invalid := []string{"abc", "", "has space", "emoji😀name", "a!b@c#d"}
	for _, username := range invalid {
		if err := models.ValidateUsername(username); err == nil {
			t.Errorf("Expected %q to be invalid", username)
		}
	}

	long := make([]byte, 33)
	for i := range long {
		long[i] = 'a'
	}
	if err := models.ValidateUsername(string(long)); err == nil {
		t.Error("Expected 33-character username to be invalid")
	}
}

func TestValidPriority(t *testing.T) {
	for _, p := range []string{"high", "medium", "low"} {
		if !models.ValidPriority(p) {
			t.Errorf("Expected priority %q to be valid", p)
		}
	}
	for _, p := range []string{"", "HIGH", "urgent", "critical"} {
		if models.ValidPriority(p) {
			t.Errorf("Expected priority %q to be invalid", p)
		}
	}
}

func TestNormalizeLabels(t *testing.T) {
	labels, err := models.NormalizeLabels([]string{"Work", "Urgent", "Work"})
	if err != nil {
		t.Fatalf("Expected valid labels, got %v", err)
	}

	if len(labels) != 2 {
		t.Errorf("Expected duplicates to collapse to 2 labels, got %d", len(labels))
	}

	// Normalization sorts, so equal sets compare equal regardless of order.
	other, err := models.NormalizeLabels([]string{"Urgent", "Work"})
	if err != nil {
		t.Fatalf("Expected valid labels, got %v", err)
	}
	for i := range labels {
		if labels[i] != other[i] {
			t.Errorf("Expected normalized label sets to match, got %v vs %v", labels, other)
		}
	}

	if _, err := models.NormalizeLabels([]string{"Chores"}); err == nil {
		t.Error("Expected label outside the allowed set to be rejected")
	}
}

func TestParseDate(t *testing.T) {
	d, err := models.ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("Expected valid date, got %v", err)
	}

	if d.Year != 2025 || d.Month != time.March || d.Day != 9 {
		t.Errorf("Expected 2025-03-09, got %s", d)
	}

	if _, err := models.ParseDate("03/09/2025"); err == nil {
		t.Error("Expected non-ISO date format to fail")
	}

	if _, err := models.ParseDate("2025-13-01"); err == nil {
		t.Error("Expected month 13 to fail")
	}
}

func TestDate_Before(t *testing.T) {
	earlier := models.NewDate(2025, time.January, 31)
	later := models.NewDate(2025, time.February, 1)

	if !earlier.Before(later) {
		t.Errorf("Expected %s to be before %s", earlier, later)
	}
	if later.Before(earlier) {
		t.Errorf("Expected %s not to be before %s", later, earlier)
	}
	if earlier.Before(earlier) {
		t.Error("Expected a date not to be before itself")
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := models.NewDate(2025, time.December, 24)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Failed to marshal date: %v", err)
	}

	if string(data) != `"2025-12-24"` {
		t.Errorf("Expected \"2025-12-24\", got %s", data)
	}

	var decoded models.Date
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal date: %v", err)
	}

	if decoded != d {
		t.Errorf("Expected %s after round trip, got %s", d, decoded)
	}
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	user := models.User{
		Username:     "alice1",
		PasswordHash: "$2a$12$secret",
	}

	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("Failed to marshal user: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal user JSON: %v", err)
	}

	if _, present := decoded["password_hash"]; present {
		t.Error("password_hash must never appear in serialized output")
	}
	if _, present := decoded["PasswordHash"]; present {
		t.Error("PasswordHash must never appear in serialized output")
	}
}

func TestTask_Validation(t *testing.T) {
	if err := models.ValidateTitle(""); err == nil {
		t.Error("Expected empty title to be invalid")
	}

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	if err := models.ValidateTitle(string(long)); err == nil {
		t.Error("Expected 101-character title to be invalid")
	}

	if err := models.ValidateTitle("Backend work"); err != nil {
		t.Errorf("Expected valid title, got %v", err)
	}

	desc := make([]byte, 501)
	for i := range desc {
		desc[i] = 'x'
	}
	if err := models.ValidateDescription(string(desc)); err == nil {
		t.Error("Expected 501-character description to be invalid")
	}
}

func TestValidationCountsCharactersNotBytes(t *testing.T) {
	// 100 two-byte runes: 200 bytes but exactly at the character limit.
	title := strings.Repeat("é", 100)
	if err := models.ValidateTitle(title); err != nil {
		t.Errorf("Expected 100-character accented title to be valid, got %v", err)
	}
	if err := models.ValidateTitle(title + "é"); err == nil {
		t.Error("Expected 101-character accented title to be invalid")
	}

	if err := models.ValidateDescription(strings.Repeat("ü", 500)); err != nil {
		t.Errorf("Expected 500-character accented description to be valid, got %v", err)
	}
	if err := models.ValidateDescription(strings.Repeat("ü", 501)); err == nil {
		t.Error("Expected 501-character accented description to be invalid")
	}

	if err := models.ValidateFullName(strings.Repeat("ß", 100)); err != nil {
		t.Errorf("Expected 100-character accented name to be valid, got %v", err)
	}
	if err := models.ValidateFullName(strings.Repeat("ß", 101)); err == nil {
		t.Error("Expected 101-character accented name to be invalid")
	}
}
