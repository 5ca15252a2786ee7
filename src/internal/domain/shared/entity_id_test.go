package shared_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/jackyeh168/gym_crm/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRegistrationMarker struct{}

type testRegistrationID = shared.EntityID[testRegistrationMarker]

var errInvalidTestID = shared.NewDomainError("TEST_ID_INVALID", shared.KindValidation, "無效的測試 ID")

func parseTestID(t *testing.T, s string) testRegistrationID {
	t.Helper()
	id, err := shared.ParseEntityID[testRegistrationMarker](s, errInvalidTestID)
	require.NoError(t, err)
	return id
}

func TestParseEntityID_NormalizesInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"小寫", "550e8400-e29b-41d4-a716-446655440000"},
		{"大寫", "550E8400-E29B-41D4-A716-446655440000"},
		{"前後空白", "  550e8400-e29b-41d4-a716-446655440000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := parseTestID(t, tt.input)
			assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
			assert.False(t, id.IsEmpty())
		})
	}
}

func TestParseEntityID_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"空字串", ""},
		{"不是 UUID", "not-a-uuid"},
		{"截斷", "550e8400-e29b"},
		{"全零", "00000000-0000-0000-0000-000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := shared.ParseEntityID[testRegistrationMarker](tt.input, errInvalidTestID)

			require.Error(t, err)
			assert.True(t, id.IsEmpty())
			assert.ErrorIs(t, err, errInvalidTestID)

			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.input, de.Context["input"])
			assert.NotEmpty(t, de.Context["parse_error"])
		})
	}
}

func TestEntityID_Equals(t *testing.T) {
	raw := "550e8400-e29b-41d4-a716-446655440000"

	assert.True(t, parseTestID(t, raw).Equals(parseTestID(t, raw)))
	assert.False(t, parseTestID(t, raw).Equals(shared.NewEntityID[testRegistrationMarker]()))
	assert.True(t, testRegistrationID{}.IsEmpty())
}

func TestNewEntityID_UniqueUnderConcurrency(t *testing.T) {
	const goroutines = 100
	ids := make([]testRegistrationID, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			ids[index] = shared.NewEntityID[testRegistrationMarker]()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, goroutines)
	for _, id := range ids {
		assert.False(t, seen[id.String()], "重複的 ID: %s", id)
		seen[id.String()] = true
	}
}
