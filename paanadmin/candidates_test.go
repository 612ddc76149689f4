package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTierStripsRequirementSuffix(t *testing.T) {
	assert.Equal(t, TIER_FULL, normalizeTier("Full - Requirement: 3+ years of operation"))
	assert.Equal(t, TIER_GOLD, normalizeTier("Gold - Requirement: invited members only"))
	assert.Equal(t, TIER_ASSOCIATE, normalizeTier("Associate"))
}

func TestNormalizeTierCaseInsensitive(t *testing.T) {
	assert.Equal(t, TIER_GOLD, normalizeTier("gold"))
	assert.Equal(t, TIER_FULL, normalizeTier("  FULL  "))
}

func TestNormalizeTierUnknownDefaultsFree(t *testing.T) {
	assert.Equal(t, TIER_FREE, normalizeTier(""))
	assert.Equal(t, TIER_FREE, normalizeTier("Platinum"))
	assert.Equal(t, TIER_FREE, normalizeTier("Full Member"))
}

func TestTierRanksOrdering(t *testing.T) {
	assert.Less(t, tierRanks[TIER_FREE], tierRanks[TIER_ASSOCIATE])
	assert.Less(t, tierRanks[TIER_ASSOCIATE], tierRanks[TIER_FULL])
	assert.Less(t, tierRanks[TIER_FULL], tierRanks[TIER_GOLD])
}
