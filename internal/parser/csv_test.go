package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/babylog/internal/model"
)

func TestCSVParserReadsRows(t *testing.T) {
	text := "datetime,activity,duration,quantity,notes\n" +
		"2024-01-15 08:30,feeding,,120,ミルク\n" +
		"2024/1/15 09:00,母乳,20,,\n" +
		"2024-01-15 10:00,diaper,,,\n"

	result, err := NewCSVParser(testOptions()).Parse(text, "export.csv")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Records, 3)
	assert.Equal(t, 4, result.TotalLines)
	assert.Equal(t, 3, result.ParsedEventCount)

	first := result.Records[0]
	assert.Equal(t, model.ActivityFeeding, first.ActivityType)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), first.Timestamp)
	assert.Nil(t, first.Duration)
	require.NotNil(t, first.Quantity)
	assert.InDelta(t, 120, *first.Quantity, 1e-9)
	assert.Equal(t, "export.csv", first.Metadata.ImportedFilename)

	second := result.Records[1]
	assert.Equal(t, model.ActivityFeeding, second.ActivityType)
	require.NotNil(t, second.Duration)
	assert.InDelta(t, 20, *second.Duration, 1e-9)

	assert.Equal(t, model.ActivityDiaper, result.Records[2].ActivityType)
	assert.Nil(t, result.Records[2].Quantity)
}

func TestCSVParserRowErrors(t *testing.T) {
	text := "日時,種類,時間\n" +
		"yesterday,feeding,10\n" +
		"2024-01-15 08:30,juggling,\n" +
		"2024-01-15 09:30,sleeping,-5\n" +
		"2024-01-15 10:30,sleeping,45\n"

	result, err := NewCSVParser(testOptions()).Parse(text, "")
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Len(t, result.Errors, 3)

	assert.Equal(t, 2, result.Errors[0].Line)
	assert.Equal(t, "datetime", result.Errors[0].Field)
	assert.Equal(t, 3, result.Errors[1].Line)
	assert.Equal(t, "activity", result.Errors[1].Field)
	assert.Equal(t, "Unknown activity type: juggling", result.Errors[1].Message)
	assert.Equal(t, "duration", result.Errors[2].Field)
}

func TestCSVParserMissingColumns(t *testing.T) {
	_, err := NewCSVParser(testOptions()).Parse("when,what\n2024-01-15 08:30,feeding\n", "bad.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")

	_, err = NewCSVParser(testOptions()).Parse("", "empty.csv")
	require.Error(t, err)
}

func TestParsersShareInterface(t *testing.T) {
	parsers := []Parser{NewTextParser(testOptions()), NewCSVParser(testOptions())}
	inputs := []string{
		"2024/1/15(月)\n08:30   ミルク 120ml\n",
		"datetime,activity,quantity\n2024-01-15 08:30,feeding,120\n",
	}
	for i, p := range parsers {
		result, err := p.Parse(inputs[i], "x")
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		rec := result.Records[0]
		assert.Equal(t, model.ActivityFeeding, rec.ActivityType)
		assert.Equal(t, time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), rec.Timestamp)
		require.NotNil(t, rec.Quantity)
		assert.InDelta(t, 120, *rec.Quantity, 1e-9)
	}
}
