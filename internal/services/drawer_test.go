package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArowuTest/jackpot-backend/internal/models"
)

func entries(pairs ...any) []models.Entry {
	var out []models.Entry
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.Entry{AccountID: pairs[i].(string), Amount: dec(pairs[i+1].(string))})
	}
	return out
}

func TestSelectWinnerWalksCumulativeStakes(t *testing.T) {
	pool := entries("A", "40", "B", "60")

	winner, forced, err := NewDrawer(fixedRandom(0.55)).SelectWinner(pool, "")
	require.NoError(t, err)
	assert.Equal(t, "B", winner)
	assert.False(t, forced)

	winner, _, err = NewDrawer(fixedRandom(0.39)).SelectWinner(pool, "")
	require.NoError(t, err)
	assert.Equal(t, "A", winner)

	winner, _, err = NewDrawer(fixedRandom(0)).SelectWinner(pool, "")
	require.NoError(t, err)
	assert.Equal(t, "A", winner)
}

func TestSelectWinnerIsProportional(t *testing.T) {
	d := NewDrawer(rand.New(rand.NewSource(42)))
	pool := entries("A", "30", "B", "70")

	const draws = 100000
	wins := map[string]int{}
	for i := 0; i < draws; i++ {
		w, _, err := d.SelectWinner(pool, "")
		require.NoError(t, err)
		wins[w]++
	}
	assert.InDelta(t, 0.30, float64(wins["A"])/draws, 0.01)
	assert.InDelta(t, 0.70, float64(wins["B"])/draws, 0.01)
}

func TestSelectWinnerOverride(t *testing.T) {
	pool := entries("A", "40", "B", "60")

	winner, forced, err := NewDrawer(fixedRandom(0.99)).SelectWinner(pool, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", winner)
	assert.True(t, forced)

	// an override outside the round falls back to the random draw
	winner, forced, err = NewDrawer(fixedRandom(0.99)).SelectWinner(pool, "Z")
	require.NoError(t, err)
	assert.Equal(t, "B", winner)
	assert.False(t, forced)
}

func TestSelectWinnerEmpty(t *testing.T) {
	d := NewDrawer(fixedRandom(0.5))

	_, _, err := d.SelectWinner(nil, "")
	assert.ErrorIs(t, err, ErrEmptyRound)

	_, _, err = d.SelectWinner(entries("A", "0"), "A")
	assert.ErrorIs(t, err, ErrEmptyRound)
}

func TestSelectWinnerSkipsZeroStakes(t *testing.T) {
	winner, _, err := NewDrawer(fixedRandom(0)).SelectWinner(entries("A", "0", "B", "5"), "")
	require.NoError(t, err)
	assert.Equal(t, "B", winner)
}
